// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package ipf

import (
	"path"
	"strings"

	"github.com/woozymasta/pathrules"
)

// Internal binary layout constants.
const (
	footerSize      = 24 // fixed trailing archive footer size
	entryPrefixSize = 20 // fixed part of one entry header record
)

// Signature is the 4-byte magic stored at footer offset 12.
var Signature = [4]byte{0x50, 0x4B, 0x05, 0x06}

// DefaultStoredExtensions lists extensions packed without compression and obfuscation.
var DefaultStoredExtensions = []string{"jpg", "fsb", "mp3"}

// tableExtension marks entries holding an IES table.
const tableExtension = "ies"

// ArchiveHeader is the parsed 24-byte archive footer.
type ArchiveHeader struct {
	// EntryCount is number of entry header records.
	EntryCount uint16 `json:"entry_count" yaml:"entry_count"`
	// LocalFileOffset is absolute offset of the first entry header record.
	LocalFileOffset uint32 `json:"local_file_offset" yaml:"local_file_offset"`
	// HeaderOffset is absolute offset of the footer itself as written by the packer.
	HeaderOffset uint32 `json:"header_offset" yaml:"header_offset"`
	// Signature must equal the package-level Signature.
	Signature [4]byte `json:"signature" yaml:"signature"`
	// BaseRevision is the patch revision this archive applies on top of.
	BaseRevision uint32 `json:"base_revision" yaml:"base_revision"`
	// Revision is the patch revision of this archive.
	Revision uint32 `json:"revision" yaml:"revision"`
}

// EntryInfo describes a single parsed IPF entry header.
type EntryInfo struct {
	// Path is the full relative path inside the archive, '/'-separated.
	Path string `json:"path" yaml:"path"`
	// ArchiveName is the container label, e.g. "xml_tool.ipf".
	ArchiveName string `json:"archive_name" yaml:"archive_name"`
	// CRC32 is the checksum stored in the entry record.
	CRC32 uint32 `json:"crc32" yaml:"crc32"`
	// CompressedSize is stored payload size in bytes.
	CompressedSize uint32 `json:"compressed_size" yaml:"compressed_size"`
	// UncompressedSize is original content size in bytes.
	UncompressedSize uint32 `json:"uncompressed_size" yaml:"uncompressed_size"`
	// DataOffset is absolute byte offset of entry payload.
	DataOffset uint32 `json:"data_offset" yaml:"data_offset"`
}

// FileName returns the last '/'-separated component of Path.
func (e *EntryInfo) FileName() string {
	if idx := strings.LastIndexByte(e.Path, '/'); idx >= 0 {
		return e.Path[idx+1:]
	}

	return e.Path
}

// Ext returns the file extension without the leading dot.
// Names without a dot, dotfiles like ".hidden", and names ending in a dot have no extension.
func (e *EntryInfo) Ext() string {
	name := e.FileName()
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}

	return name[idx+1:]
}

// FullPath returns ArchiveName and Path joined with '/'.
func (e *EntryInfo) FullPath() string {
	if e.ArchiveName == "" {
		return path.Clean(e.Path)
	}

	return path.Join(e.ArchiveName, e.Path)
}

// isTable reports whether entry holds an IES table.
func (e *EntryInfo) isTable() bool {
	return strings.EqualFold(e.Ext(), tableExtension)
}

// ReaderOptions configures archive parsing and entry decoding.
type ReaderOptions struct {
	// CipherKey overrides the obfuscation key. Empty means DefaultCipherKey.
	CipherKey []byte `json:"-" yaml:"-"`
	// StoredRules selects entries packed raw (no cipher, no compression).
	// Empty means one case-insensitive "*.<ext>" rule per DefaultStoredExtensions item.
	StoredRules []pathrules.Rule `json:"stored_rules,omitempty" yaml:"stored_rules,omitempty"`
	// StoredMatcherOptions control stored rule matching.
	StoredMatcherOptions pathrules.MatcherOptions `json:"stored_matcher_options,omitzero" yaml:"stored_matcher_options,omitzero"`
	// RawTables exposes inflated IES bytes instead of the decoded text rendering.
	RawTables bool `json:"raw_tables,omitempty" yaml:"raw_tables,omitempty"`
	// SkipBoundsCheck keeps entries whose payload range exceeds the source size.
	SkipBoundsCheck bool `json:"skip_bounds_check,omitempty" yaml:"skip_bounds_check,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(entry EntryInfo, written int64, outputPath string) `json:"-" yaml:"-"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// Entries limits extraction to selected metadata list; nil means all parsed entries.
	Entries []EntryInfo `json:"-" yaml:"-"`
	// MaxWorkers is number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// RawNames disables default path sanitization during extract.
	RawNames bool `json:"raw_names,omitempty" yaml:"raw_names,omitempty"`
	// SkipArchiveName writes entries under dstDir/<path> instead of dstDir/<archive_name>/<path>.
	SkipArchiveName bool `json:"skip_archive_name,omitempty" yaml:"skip_archive_name,omitempty"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeAuto first tries create-only, then falls back to truncate for existing files.
	ExtractFileModeAuto ExtractFileMode = "auto"
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// applyDefaults fills zero-valued reader options with defaults.
func (opts *ReaderOptions) applyDefaults() {
	if len(opts.CipherKey) == 0 {
		opts.CipherKey = DefaultCipherKey
	}

	if len(opts.StoredRules) == 0 {
		opts.StoredRules = defaultStoredRules()
	}

	if opts.StoredMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.StoredMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}

	if opts.StoredMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.StoredMatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.FileMode == "" {
		opts.FileMode = ExtractFileModeAuto
	}
}

// defaultStoredRules builds include rules for DefaultStoredExtensions.
func defaultStoredRules() []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(DefaultStoredExtensions))
	for _, ext := range DefaultStoredExtensions {
		rules = append(rules, pathrules.Rule{
			Action:  pathrules.ActionInclude,
			Pattern: "*." + ext,
		})
	}

	return rules
}
