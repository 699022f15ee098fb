// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package main

import "github.com/urfave/cli/v3"

var (
	configFile string
	logLevel   string
	logFormat  string
	rawTables  bool
	cipherKey  string
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "path to YAML config file",
			Sources:     cli.EnvVars("IPF_CONFIG"),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (text, json)",
			Value:       "text",
			Destination: &logFormat,
		},
	}
}

func readerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "raw-tables",
			Usage:       "expose inflated IES bytes instead of text rendering",
			Destination: &rawTables,
		},
		&cli.StringFlag{
			Name:        "cipher-key",
			Usage:       "override obfuscation key (hex)",
			Destination: &cipherKey,
		},
	}
}

func filterFlags(prefix, glob *string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "prefix",
			Usage:       "keep entries under path prefix",
			Destination: prefix,
		},
		&cli.StringFlag{
			Name:        "glob",
			Aliases:     []string{"g"},
			Usage:       "keep entries matching doublestar pattern, e.g. xml/**/*.xml",
			Destination: glob,
		},
	}
}
