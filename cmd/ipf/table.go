// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"github.com/woozymasta/ipf/ies"
)

func tableCmd() *cli.Command {
	var format string

	return &cli.Command{
		Name:      "table",
		Usage:     "Decode an IES table entry",
		ArgsUsage: "<archive.ipf> <entry.ies>",
		Flags: append(readerFlags(),
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format (text, csv, json)",
				Value:       "text",
				Destination: &format,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return cli.Exit("error: archive path and table path are required", 1)
			}
			archivePath, entryPath := cmd.Args().Get(0), cmd.Args().Get(1)

			r, err := openArchive(ctx, cmd, archivePath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = r.Close() }()

			table, err := r.Table(entryPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			loggerFrom(ctx).Debug("table decoded",
				"name", table.Header.Name,
				"columns", len(table.Columns),
				"rows", len(table.Rows),
			)

			if err := writeTable(cmd.Root().Writer, table, format); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return nil
		},
	}
}

// writeTable renders table in the requested format.
func writeTable(w io.Writer, table *ies.Table, format string) error {
	switch format {
	case "", "text":
		return table.WriteText(w)
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(table.Records()); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	default:
		return fmt.Errorf("unknown table format %q", format)
	}
}
