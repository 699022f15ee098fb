// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package ipf

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"unicode/utf8"
)

// readerEntryBufferSize is a sequential read buffer for entry table parsing.
const readerEntryBufferSize = 64 * 1024

var (
	// entryTableReaderPool reuses buffered readers for sequential table parsing.
	entryTableReaderPool = sync.Pool{
		New: func() any {
			return bufio.NewReaderSize(bytes.NewReader(nil), readerEntryBufferSize)
		},
	}
)

// Reader provides read-only access to a parsed IPF archive.
type Reader struct {
	// ra is the underlying random-access source used for payload reads.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// stored selects entries packed without cipher and compression.
	stored *storedMatcher
	// entries stores parsed immutable entry headers in archive order.
	entries []EntryInfo
	// opts are reader options with defaults applied.
	opts ReaderOptions
	// header is the parsed archive footer.
	header ArchiveHeader
	// size is total source size in bytes.
	size int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// Open opens IPF file by path and parses footer and entry table.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions opens IPF file by path using explicit reader options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}

	r, err := NewReaderFromReaderAtWithOptions(f, size, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// NewReaderFromReaderAt parses IPF from existing ReaderAt and known size.
func NewReaderFromReaderAt(ra io.ReaderAt, size int64) (*Reader, error) {
	return NewReaderFromReaderAtWithOptions(ra, size, ReaderOptions{})
}

// NewReaderFromReaderAtWithOptions parses IPF from existing ReaderAt and known size using explicit reader options.
func NewReaderFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions) (*Reader, error) {
	if ra == nil {
		return nil, ErrNilReader
	}

	opts.applyDefaults()
	stored, err := newStoredMatcher(opts.StoredRules, opts.StoredMatcherOptions)
	if err != nil {
		return nil, err
	}

	r := &Reader{ra: ra, size: size, opts: opts, stored: stored}
	if err := r.parse(); err != nil {
		return nil, err
	}

	return r, nil
}

// NewReaderFromReadSeeker parses IPF from a seekable stream.
// When rs does not implement io.ReaderAt, reads are serialized through rs.
func NewReaderFromReadSeeker(rs io.ReadSeeker) (*Reader, error) {
	return NewReaderFromReadSeekerWithOptions(rs, ReaderOptions{})
}

// NewReaderFromReadSeekerWithOptions parses IPF from a seekable stream using explicit reader options.
func NewReaderFromReadSeekerWithOptions(rs io.ReadSeeker, opts ReaderOptions) (*Reader, error) {
	if rs == nil {
		return nil, ErrNilReader
	}

	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek end: %w", err)
	}

	ra, ok := rs.(io.ReaderAt)
	if !ok {
		ra = &readSeekerAt{rs: rs}
	}

	return NewReaderFromReaderAtWithOptions(ra, size, opts)
}

// Len returns number of entries.
func (r *Reader) Len() int {
	if r == nil {
		return 0
	}

	return len(r.entries)
}

// IsEmpty reports whether archive has no entries.
func (r *Reader) IsEmpty() bool {
	return r.Len() == 0
}

// Header returns parsed archive footer.
func (r *Reader) Header() ArchiveHeader {
	if r == nil {
		return ArchiveHeader{}
	}

	return r.header
}

// Entries returns a copy of parsed entries in archive order.
func (r *Reader) Entries() []EntryInfo {
	if r == nil {
		return nil
	}

	entries := make([]EntryInfo, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Close closes the underlying file if reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// parse reads footer and entry table.
func (r *Reader) parse() error {
	header, err := parseFooter(r.ra, r.size)
	if err != nil {
		return err
	}
	r.header = header

	entries, err := parseEntries(r.ra, r.size, header)
	if err != nil {
		return err
	}
	r.entries = entries

	if !r.opts.SkipBoundsCheck {
		if err := validateEntryRanges(r.entries, r.size); err != nil {
			return err
		}
	}

	return nil
}

// parseFooter reads and validates the trailing 24-byte footer.
func parseFooter(ra io.ReaderAt, size int64) (ArchiveHeader, error) {
	if size < footerSize {
		return ArchiveHeader{}, fmt.Errorf("%w: source shorter than %d-byte footer", ErrInvalidArchive, footerSize)
	}

	var buf [footerSize]byte
	if _, err := ra.ReadAt(buf[:], size-footerSize); err != nil {
		if errors.Is(err, io.EOF) {
			return ArchiveHeader{}, fmt.Errorf("%w: short footer", ErrInvalidArchive)
		}

		return ArchiveHeader{}, fmt.Errorf("read footer: %w", err)
	}

	header := ArchiveHeader{
		EntryCount:      binary.LittleEndian.Uint16(buf[0:2]),
		LocalFileOffset: binary.LittleEndian.Uint32(buf[2:6]),
		// buf[6:8] is reserved and always zero.
		HeaderOffset: binary.LittleEndian.Uint32(buf[8:12]),
		BaseRevision: binary.LittleEndian.Uint32(buf[16:20]),
		Revision:     binary.LittleEndian.Uint32(buf[20:24]),
	}
	copy(header.Signature[:], buf[12:16])

	if header.Signature != Signature {
		return ArchiveHeader{}, fmt.Errorf("%w: bad signature % x", ErrInvalidArchive, header.Signature[:])
	}

	return header, nil
}

// parseEntries reads EntryCount contiguous entry records starting at LocalFileOffset.
func parseEntries(ra io.ReaderAt, size int64, header ArchiveHeader) ([]EntryInfo, error) {
	tableOffset := int64(header.LocalFileOffset)
	if header.EntryCount == 0 {
		return []EntryInfo{}, nil
	}
	if tableOffset >= size {
		return nil, fmt.Errorf("read entry header: %w", io.ErrUnexpectedEOF)
	}

	sr := io.NewSectionReader(ra, tableOffset, size-tableOffset)
	br := entryTableReaderPool.Get().(*bufio.Reader) //nolint:forcetypeassert // pool contains only *bufio.Reader
	br.Reset(sr)
	defer entryTableReaderPool.Put(br)

	entries := make([]EntryInfo, 0, header.EntryCount)
	for i := 0; i < int(header.EntryCount); i++ {
		entry, err := parseEntryHeader(br)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// parseEntryHeader reads one entry record: fixed prefix, archive name, file name.
func parseEntryHeader(br io.Reader) (EntryInfo, error) {
	var fields [entryPrefixSize]byte
	if _, err := io.ReadFull(br, fields[:]); err != nil {
		return EntryInfo{}, fmt.Errorf("read entry header: %w", unexpectedEOF(err))
	}

	fileNameLen := binary.LittleEndian.Uint16(fields[0:2])
	archiveNameLen := binary.LittleEndian.Uint16(fields[18:20])
	entry := EntryInfo{
		CRC32:            binary.LittleEndian.Uint32(fields[2:6]),
		CompressedSize:   binary.LittleEndian.Uint32(fields[6:10]),
		UncompressedSize: binary.LittleEndian.Uint32(fields[10:14]),
		DataOffset:       binary.LittleEndian.Uint32(fields[14:18]),
	}

	archiveName, err := readUTF8(br, int(archiveNameLen))
	if err != nil {
		return EntryInfo{}, fmt.Errorf("read archive name: %w", err)
	}

	fileName, err := readUTF8(br, int(fileNameLen))
	if err != nil {
		return EntryInfo{}, fmt.Errorf("read file name: %w", err)
	}

	entry.ArchiveName = archiveName
	entry.Path = fileName
	return entry, nil
}

// readUTF8 reads n raw bytes and decodes them as UTF-8 text.
func readUTF8(br io.Reader, n int) (string, error) {
	if n == 0 {
		return "", nil
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return "", unexpectedEOF(err)
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("%w: %q", ErrEncoding, buf)
	}

	return string(buf), nil
}

// validateEntryRanges checks every payload range lies within the source.
func validateEntryRanges(entries []EntryInfo, size int64) error {
	for i := range entries {
		end := int64(entries[i].DataOffset) + int64(entries[i].CompressedSize)
		if end > size {
			return fmt.Errorf("%w: %w: entry %s payload [%d, %d) exceeds source size %d",
				ErrInvalidArchive, ErrInvalidEntryOffset, entries[i].Path, entries[i].DataOffset, end, size)
		}
	}

	return nil
}

// unexpectedEOF converts a bare io.EOF from fixed-size reads into io.ErrUnexpectedEOF.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}

	return err
}

// readSeekerAt adapts io.ReadSeeker to io.ReaderAt by serializing seek+read pairs.
type readSeekerAt struct {
	rs io.ReadSeeker
	mu sync.Mutex
}

// ReadAt implements io.ReaderAt.
func (a *readSeekerAt) ReadAt(p []byte, off int64) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.rs.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}

	n, err := io.ReadFull(a.rs, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}

	return n, err
}

// openFileWithSize opens a file and returns a handle plus current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open IPF: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat: %w", err)
	}

	return f, fi.Size(), nil
}
