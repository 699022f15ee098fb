// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/woozymasta/ipf"
	"github.com/woozymasta/pathrules"
	"gopkg.in/yaml.v3"
)

// Config represents the ipf configuration file (~/.config/ipf/config.yaml).
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// CipherKey is the obfuscation key as hex.
	CipherKey string `yaml:"cipher_key"`
	RawTables *bool  `yaml:"raw_tables"`

	Stored  StoredConfig  `yaml:"stored"`
	Extract ExtractConfig `yaml:"extract"`
}

// StoredConfig lists gitignore-style patterns for entries packed raw.
// Empty Include keeps the default jpg, fsb and mp3 rules.
type StoredConfig struct {
	Include       []string `yaml:"include"`
	Exclude       []string `yaml:"exclude"`
	CaseSensitive bool     `yaml:"case_sensitive"`
}

// ExtractConfig holds extract command defaults.
type ExtractConfig struct {
	FileMode        string `yaml:"file_mode"`
	Workers         *int64 `yaml:"workers"`
	RawNames        *bool  `yaml:"raw_names"`
	SkipArchiveName *bool  `yaml:"skip_archive_name"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ipf", "config.yaml")
}

// loadConfig reads path, or the user config file when path is empty.
// A missing default file yields a zero Config; a missing explicit file is an error.
func loadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
		if path == "" {
			return Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// applyGlobalConfig fills global flag variables not set on the command line.
func applyGlobalConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// readerOptions merges config and reader flags into library options.
// rawTablesSet reports whether --raw-tables was given explicitly.
func readerOptions(cfg Config, rawTablesSet bool) (ipf.ReaderOptions, error) {
	opts := ipf.ReaderOptions{RawTables: rawTables}
	if cfg.RawTables != nil && !rawTablesSet {
		opts.RawTables = *cfg.RawTables
	}

	keyHex := cipherKey
	if keyHex == "" {
		keyHex = cfg.CipherKey
	}
	if keyHex != "" {
		key, err := hex.DecodeString(strings.TrimSpace(keyHex))
		if err != nil {
			return ipf.ReaderOptions{}, fmt.Errorf("cipher key: %w", err)
		}
		opts.CipherKey = key
	}

	opts.StoredRules = cfg.Stored.rules()
	if len(opts.StoredRules) > 0 {
		opts.StoredMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: !cfg.Stored.CaseSensitive,
			DefaultAction:   pathrules.ActionExclude,
		}
	}

	return opts, nil
}

// rules converts include and exclude patterns to ordered path rules.
func (s StoredConfig) rules() []pathrules.Rule {
	if len(s.Include) == 0 {
		return nil
	}

	rules := make([]pathrules.Rule, 0, len(s.Include)+len(s.Exclude))
	for _, p := range s.Include {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: p})
	}
	for _, p := range s.Exclude {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionExclude, Pattern: p})
	}

	return rules
}

// openArchive opens path using config and reader flags.
func openArchive(ctx context.Context, c *cli.Command, path string) (*ipf.Reader, error) {
	opts, err := readerOptions(configFrom(ctx), c.IsSet("raw-tables"))
	if err != nil {
		return nil, err
	}

	r, err := ipf.OpenWithOptions(path, opts)
	if err != nil {
		return nil, err
	}

	h := r.Header()
	loggerFrom(ctx).Debug("archive opened",
		"path", path,
		"entries", r.Len(),
		"base_revision", h.BaseRevision,
		"revision", h.Revision,
	)

	return r, nil
}

type configKey struct{}

func withConfig(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) Config {
	if cfg, ok := ctx.Value(configKey{}).(Config); ok {
		return cfg
	}
	return Config{}
}
