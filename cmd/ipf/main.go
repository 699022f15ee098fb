// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

// Command ipf lists, reads, verifies and extracts IPF archives.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp builds the root command.
func newApp() *cli.Command {
	return &cli.Command{
		Name:   "ipf",
		Usage:  "IPF archive reader",
		Flags:  globalFlags(),
		Before: setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			listCmd(),
			catCmd(),
			extractCmd(),
			tableCmd(),
			verifyCmd(),
		},
	}
}

// setup loads config and installs the logger into the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	applyGlobalConfig(cmd, cfg)

	log, err := newLogger(cmd.Root().ErrWriter, logLevel, logFormat)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}

	ctx = withConfig(ctx, cfg)
	return withLogger(ctx, log), nil
}
