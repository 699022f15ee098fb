// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Check entry CRC32 and sizes against header records",
		ArgsUsage: "<archive.ipf>...",
		Flags:     readerFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return cli.Exit("error: at least one archive path is required", 1)
			}

			log := loggerFrom(ctx)
			w := cmd.Root().Writer
			failed := 0

			for _, path := range cmd.Args().Slice() {
				r, err := openArchive(ctx, cmd, path)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}

				results, err := r.Verify(ctx)
				_ = r.Close()
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %s: %v", path, err), 1)
				}

				bad := 0
				for _, res := range results {
					if res.Err == nil {
						continue
					}
					bad++
					_, _ = fmt.Fprintf(w, "FAIL %s: %v\n", res.Entry.FullPath(), res.Err)
				}

				log.Info("archive verified", "path", path, "entries", len(results), "failed", bad)
				failed += bad
			}

			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d entries failed verification", failed), 2)
			}

			_, _ = fmt.Fprintln(w, "OK")
			return nil
		},
	}
}
