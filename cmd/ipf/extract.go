// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/urfave/cli/v3"
	"github.com/woozymasta/ipf"
)

func extractCmd() *cli.Command {
	var (
		outDir, prefix, glob, fileMode string
		workers                        int64
		rawNames, skipArchiveName      bool
	)

	flags := append(readerFlags(), filterFlags(&prefix, &glob)...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "output directory",
			Value:       ".",
			Destination: &outDir,
		},
		&cli.Int64Flag{
			Name:        "workers",
			Aliases:     []string{"j"},
			Usage:       "parallel extraction workers (0 = GOMAXPROCS)",
			Destination: &workers,
		},
		&cli.StringFlag{
			Name:        "file-mode",
			Usage:       "output file policy (auto, truncate, create_only)",
			Value:       string(ipf.ExtractFileModeAuto),
			Destination: &fileMode,
		},
		&cli.BoolFlag{
			Name:        "raw-names",
			Usage:       "write entry paths without sanitization",
			Destination: &rawNames,
		},
		&cli.BoolFlag{
			Name:        "skip-archive-name",
			Usage:       "write <out>/<path> instead of <out>/<archive_name>/<path>",
			Destination: &skipArchiveName,
		},
	)

	return &cli.Command{
		Name:      "extract",
		Aliases:   []string{"x"},
		Usage:     "Extract decoded entries to a directory",
		ArgsUsage: "<archive.ipf>...",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return cli.Exit("error: at least one archive path is required", 1)
			}

			log := loggerFrom(ctx)
			ec := configFrom(ctx).Extract
			if ec.FileMode != "" && !cmd.IsSet("file-mode") {
				fileMode = ec.FileMode
			}
			if ec.Workers != nil && !cmd.IsSet("workers") {
				workers = *ec.Workers
			}
			if ec.RawNames != nil && !cmd.IsSet("raw-names") {
				rawNames = *ec.RawNames
			}
			if ec.SkipArchiveName != nil && !cmd.IsSet("skip-archive-name") {
				skipArchiveName = *ec.SkipArchiveName
			}

			for _, path := range cmd.Args().Slice() {
				if err := extractArchive(ctx, cmd, path, outDir, ipf.ListOptions{PathPrefix: prefix, Glob: glob}, ipf.ExtractOptions{
					FileMode:        ipf.ExtractFileMode(fileMode),
					MaxWorkers:      int(workers),
					RawNames:        rawNames,
					SkipArchiveName: skipArchiveName,
				}); err != nil {
					return cli.Exit(fmt.Sprintf("error: %s: %v", path, err), 1)
				}
			}

			log.Info("extract finished", "archives", cmd.Args().Len(), "out", outDir)
			return nil
		},
	}
}

// extractArchive extracts filtered entries of one archive.
func extractArchive(ctx context.Context, cmd *cli.Command, path, outDir string, filter ipf.ListOptions, opts ipf.ExtractOptions) error {
	log := loggerFrom(ctx)

	r, err := openArchive(ctx, cmd, path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	entries, err := ipf.FilterEntries(r.Entries(), filter)
	if err != nil {
		return err
	}

	var files, bytes atomic.Int64
	opts.Entries = entries
	opts.OnEntryDone = func(entry ipf.EntryInfo, written int64, outputPath string) {
		files.Add(1)
		bytes.Add(written)
		log.Debug("extracted", "entry", entry.FullPath(), "bytes", written, "out", outputPath)
	}

	if err := r.Extract(ctx, outDir, opts); err != nil {
		return err
	}

	log.Info("archive extracted", "path", path, "files", files.Load(), "bytes", bytes.Load())
	return nil
}
