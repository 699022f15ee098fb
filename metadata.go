// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package ipf

import "io"

// ReadArchiveHeader opens an IPF and returns only the footer without parsing entry table.
func ReadArchiveHeader(path string) (ArchiveHeader, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return ArchiveHeader{}, err
	}
	defer func() { _ = f.Close() }()

	return ReadArchiveHeaderFromReaderAt(f, size)
}

// ReadArchiveHeaderFromReaderAt reads only the footer from a random-access source.
func ReadArchiveHeaderFromReaderAt(ra io.ReaderAt, size int64) (ArchiveHeader, error) {
	if ra == nil {
		return ArchiveHeader{}, ErrNilReader
	}

	return parseFooter(ra, size)
}

// ListEntries opens an IPF and returns entry metadata without payload reads.
func ListEntries(path string) ([]EntryInfo, error) {
	return ListEntriesWithOptions(path, ListOptions{})
}

// ListEntriesWithOptions opens an IPF and returns filtered entry metadata.
func ListEntriesWithOptions(path string, opts ListOptions) ([]EntryInfo, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return ListEntriesFromReaderAtWithOptions(f, size, opts)
}

// ListEntriesFromReaderAt parses entry metadata from a random-access source.
func ListEntriesFromReaderAt(ra io.ReaderAt, size int64) ([]EntryInfo, error) {
	return ListEntriesFromReaderAtWithOptions(ra, size, ListOptions{})
}

// ListEntriesFromReaderAtWithOptions parses and filters entry metadata from a random-access source.
func ListEntriesFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ListOptions) ([]EntryInfo, error) {
	if ra == nil {
		return nil, ErrNilReader
	}

	header, err := parseFooter(ra, size)
	if err != nil {
		return nil, err
	}

	entries, err := parseEntries(ra, size, header)
	if err != nil {
		return nil, err
	}

	return FilterEntries(entries, opts)
}
