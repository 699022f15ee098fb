// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package ipf

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ListOptions selects a subset of entries for listing or extraction.
type ListOptions struct {
	// ArchiveName keeps only entries with this container label (case-insensitive).
	ArchiveName string `json:"archive_name,omitempty" yaml:"archive_name,omitempty"`
	// PathPrefix keeps entries under prefix, or the exact entry when prefix names a file.
	PathPrefix string `json:"path_prefix,omitempty" yaml:"path_prefix,omitempty"`
	// Glob keeps entries whose path matches a doublestar pattern, e.g. "xml/**/*.xml".
	Glob string `json:"glob,omitempty" yaml:"glob,omitempty"`
	// MinCompressedSize drops entries with smaller stored payload.
	MinCompressedSize uint32 `json:"min_compressed_size,omitempty" yaml:"min_compressed_size,omitempty"`
	// ASCIIOnly drops entries whose path contains non-ASCII bytes.
	ASCIIOnly bool `json:"ascii_only,omitempty" yaml:"ascii_only,omitempty"`
}

// FilterEntries applies opts to entries and returns the kept entries in original order.
func FilterEntries(entries []EntryInfo, opts ListOptions) ([]EntryInfo, error) {
	if opts.Glob != "" && !doublestar.ValidatePattern(opts.Glob) {
		return nil, fmt.Errorf("%w: %q", doublestar.ErrBadPattern, opts.Glob)
	}

	out := entries
	if opts.ArchiveName != "" {
		out = filterEntriesByArchiveName(out, opts.ArchiveName)
	}
	if opts.MinCompressedSize > 0 {
		out = filterEntriesBySize(out, opts.MinCompressedSize)
	}
	if opts.ASCIIOnly {
		out = filterEntriesByASCIIOnly(out)
	}
	out = filterEntriesByPrefix(out, opts.PathPrefix)
	if opts.Glob != "" {
		out = filterEntriesByGlob(out, opts.Glob)
	}

	return out, nil
}

// filterEntriesByArchiveName keeps entries from one container label.
func filterEntriesByArchiveName(entries []EntryInfo, name string) []EntryInfo {
	out := make([]EntryInfo, 0, len(entries))
	for _, entry := range entries {
		if strings.EqualFold(entry.ArchiveName, name) {
			out = append(out, entry)
		}
	}

	return out
}

// filterEntriesBySize keeps entries with stored payload at least minSize bytes.
func filterEntriesBySize(entries []EntryInfo, minSize uint32) []EntryInfo {
	out := make([]EntryInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.CompressedSize < minSize {
			continue
		}

		out = append(out, entry)
	}

	return out
}

// filterEntriesByASCIIOnly keeps entries whose path contains only ASCII bytes.
func filterEntriesByASCIIOnly(entries []EntryInfo) []EntryInfo {
	out := make([]EntryInfo, 0, len(entries))
	for _, entry := range entries {
		if !filterPathIsASCIIOnly(entry.Path) {
			continue
		}

		out = append(out, entry)
	}

	return out
}

// filterPathIsASCIIOnly reports whether path contains only ASCII bytes.
func filterPathIsASCIIOnly(pathValue string) bool {
	for idx := 0; idx < len(pathValue); idx++ {
		if pathValue[idx] >= 0x80 {
			return false
		}
	}

	return true
}

// filterEntriesByPrefix keeps entries under prefix (or exact match if it points to a file).
func filterEntriesByPrefix(entries []EntryInfo, prefix string) []EntryInfo {
	prefix = NormalizePath(prefix)
	if prefix == "" {
		return entries
	}

	normalizedPrefix := prefix + "/"
	out := make([]EntryInfo, 0, len(entries))
	for _, entry := range entries {
		entryPath := NormalizePath(entry.Path)
		if entryPath == prefix || strings.HasPrefix(entryPath, normalizedPrefix) {
			out = append(out, entry)
		}
	}

	return out
}

// filterEntriesByGlob keeps entries whose normalized path matches a validated pattern.
func filterEntriesByGlob(entries []EntryInfo, pattern string) []EntryInfo {
	out := make([]EntryInfo, 0, len(entries))
	for _, entry := range entries {
		if doublestar.MatchUnvalidated(pattern, NormalizePath(entry.Path)) {
			out = append(out, entry)
		}
	}

	return out
}
