// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"github.com/woozymasta/ipf"
)

// listedArchive is the JSON shape of one listed archive.
type listedArchive struct {
	Path    string            `json:"path"`
	Header  ipf.ArchiveHeader `json:"header"`
	Entries []ipf.EntryInfo   `json:"entries"`
}

func listCmd() *cli.Command {
	var (
		prefix, glob, archiveName string
		asJSON, asciiOnly         bool
	)

	flags := append(filterFlags(&prefix, &glob),
		&cli.StringFlag{
			Name:        "archive-name",
			Usage:       "keep entries with this container label",
			Destination: &archiveName,
		},
		&cli.BoolFlag{
			Name:        "ascii-only",
			Usage:       "drop entries with non-ASCII paths",
			Destination: &asciiOnly,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print JSON instead of a table",
			Destination: &asJSON,
		},
	)

	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List archive entries",
		ArgsUsage: "<archive.ipf>...",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return cli.Exit("error: at least one archive path is required", 1)
			}

			opts := ipf.ListOptions{
				ArchiveName: archiveName,
				PathPrefix:  prefix,
				Glob:        glob,
				ASCIIOnly:   asciiOnly,
			}

			listed := make([]listedArchive, 0, cmd.Args().Len())
			for _, path := range cmd.Args().Slice() {
				header, err := ipf.ReadArchiveHeader(path)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %s: %v", path, err), 1)
				}

				entries, err := ipf.ListEntriesWithOptions(path, opts)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %s: %v", path, err), 1)
				}

				loggerFrom(ctx).Debug("listed", "path", path, "total", header.EntryCount, "kept", len(entries))
				listed = append(listed, listedArchive{Path: path, Header: header, Entries: entries})
			}

			w := cmd.Root().Writer
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(listed)
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			for _, a := range listed {
				_, _ = fmt.Fprintf(tw, "# %s\trev %d\tbase %d\t%d entries\t\n",
					a.Path, a.Header.Revision, a.Header.BaseRevision, len(a.Entries))
				for _, e := range a.Entries {
					_, _ = fmt.Fprintf(tw, "%d\t%d\t%08x\t%s\t\n", e.CompressedSize, e.UncompressedSize, e.CRC32, e.FullPath())
				}
			}

			return tw.Flush()
		},
	}
}
