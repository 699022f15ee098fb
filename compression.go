// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package ipf

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/klauspost/compress/flate"
	"github.com/woozymasta/pathrules"
)

// storedMatcher holds compiled rules selecting entries packed without compression.
type storedMatcher struct {
	matcher *pathrules.Matcher
}

// newStoredMatcher compiles stored-extension path rules.
func newStoredMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*storedMatcher, error) {
	rules = normalizeStoredRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidStoredRule, err)
	}

	return &storedMatcher{matcher: matcher}, nil
}

// normalizeStoredRules normalizes rule patterns and drops empty patterns.
func normalizeStoredRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePathForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether path is included by stored rules.
func (m *storedMatcher) Match(path string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	// Trailing spaces are part of the extension, but rule matching trims them.
	if strings.TrimRightFunc(path, unicode.IsSpace) != path {
		return false
	}

	candidate := NormalizePath(path)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}

// worthCompressing reports whether entry was compressed and obfuscated at build time.
// Entries without an extension are always worth compressing.
func worthCompressing(m *storedMatcher, info *EntryInfo) bool {
	if info.Ext() == "" {
		return true
	}

	return !m.Match(info.Path)
}

// newInflater wraps src in a raw DEFLATE decompressor.
func newInflater(src io.Reader) io.ReadCloser {
	return flate.NewReader(src)
}
