// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
	"github.com/woozymasta/ipf"
)

func catCmd() *cli.Command {
	var mode string

	return &cli.Command{
		Name:      "cat",
		Usage:     "Write decoded entry content to stdout",
		ArgsUsage: "<archive.ipf> <entry/path>",
		Flags: append(readerFlags(),
			&cli.StringFlag{
				Name:        "mode",
				Usage:       "force cipher mode (stored, forward, inverse)",
				Destination: &mode,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return cli.Exit("error: archive path and entry path are required", 1)
			}
			archivePath, entryPath := cmd.Args().Get(0), cmd.Args().Get(1)

			r, err := openArchive(ctx, cmd, archivePath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = r.Close() }()

			e, err := openForCat(r, entryPath, mode)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = e.Close() }()

			n, err := io.Copy(cmd.Root().Writer, e)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %s: %v", entryPath, err), 1)
			}

			loggerFrom(ctx).Debug("entry written", "entry", e.FullPath(), "kind", e.Kind().String(), "bytes", n)
			return nil
		},
	}
}

// openForCat opens entryPath by name, or by index with a forced cipher mode.
func openForCat(r *ipf.Reader, entryPath, mode string) (*ipf.Entry, error) {
	if mode == "" {
		return r.ByName(entryPath)
	}

	m, err := ipf.ParseCipherMode(mode)
	if err != nil {
		return nil, err
	}

	for i, info := range r.Entries() {
		if info.Path == entryPath {
			return r.OpenEntryWithMode(i, m)
		}
	}

	return nil, fmt.Errorf("%w: %s", ipf.ErrFileNotFound, entryPath)
}
