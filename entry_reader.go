// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package ipf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/woozymasta/ipf/ies"
)

// EntryKind is the reader chain selected for one entry.
type EntryKind uint8

// Entry reader chains.
const (
	// EntryKindStored exposes the raw payload range through a pass-through cipher.
	EntryKindStored EntryKind = iota
	// EntryKindDeflate exposes inflated plaintext.
	EntryKindDeflate
	// EntryKindTable exposes the canonical text rendering of an IES table.
	EntryKindTable
)

// String returns kind name.
func (k EntryKind) String() string {
	switch k {
	case EntryKindStored:
		return "stored"
	case EntryKindDeflate:
		return "deflate"
	case EntryKindTable:
		return "table"
	default:
		return fmt.Sprintf("EntryKind(%d)", uint8(k))
	}
}

// Entry is a decoded read stream over one archive entry.
// Each Entry owns a copy of its header record and an independent section of the source.
type Entry struct {
	// src is the top of the reader chain.
	src io.Reader
	// inflater is closed together with the entry when present.
	inflater io.Closer
	// info is the entry header copy.
	info EntryInfo
	// kind is the selected chain.
	kind EntryKind
	// mode is the cipher mode of the chain.
	mode CipherMode
}

// Info returns the entry header record.
func (e *Entry) Info() EntryInfo {
	return e.info
}

// ArchiveName returns the container label, e.g. "xml_tool.ipf".
func (e *Entry) ArchiveName() string {
	return e.info.ArchiveName
}

// Path returns the entry path without archive name, e.g. "event_banner/event1234.png".
func (e *Entry) Path() string {
	return e.info.Path
}

// FileName returns the last path component, e.g. "event1234.png".
func (e *Entry) FileName() string {
	return e.info.FileName()
}

// FullPath returns archive name joined with path, e.g. "xml_tool.ipf/event_banner/event1234.png".
func (e *Entry) FullPath() string {
	return e.info.FullPath()
}

// Kind returns the selected reader chain.
func (e *Entry) Kind() EntryKind {
	return e.kind
}

// Mode returns the cipher mode applied to the raw payload.
func (e *Entry) Mode() CipherMode {
	return e.mode
}

// Read implements io.Reader over decoded content.
func (e *Entry) Read(p []byte) (int, error) {
	return e.src.Read(p)
}

// Close releases decompressor state.
func (e *Entry) Close() error {
	if e.inflater == nil {
		return nil
	}

	return e.inflater.Close()
}

// ByIndex opens entry at index i in archive order.
func (r *Reader) ByIndex(i int) (*Entry, error) {
	info, err := r.entryAt(i)
	if err != nil {
		return nil, err
	}

	return r.openEntry(info, r.modeFor(&info))
}

// ByName opens the first entry, in archive order, whose full relative path equals name.
func (r *Reader) ByName(name string) (*Entry, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	idx := r.indexOf(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	return r.ByIndex(idx)
}

// OpenEntryWithMode opens entry at index i forcing the cipher mode instead of the extension default.
// The chain shape (inflate, table decode) still follows the entry extension.
func (r *Reader) OpenEntryWithMode(i int, mode CipherMode) (*Entry, error) {
	if mode > CipherInverse {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCipherMode, mode)
	}

	info, err := r.entryAt(i)
	if err != nil {
		return nil, err
	}

	return r.openEntry(info, mode)
}

// ReadEntry reads full decoded content of the named entry.
func (r *Reader) ReadEntry(name string) ([]byte, error) {
	e, err := r.ByName(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = e.Close() }()

	return io.ReadAll(e)
}

// ReadEntryAt reads full decoded content of the entry at index i.
func (r *Reader) ReadEntryAt(i int) ([]byte, error) {
	e, err := r.ByIndex(i)
	if err != nil {
		return nil, err
	}
	defer func() { _ = e.Close() }()

	return io.ReadAll(e)
}

// Table decodes the named IES entry into a table document.
func (r *Reader) Table(name string) (*ies.Table, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	idx := r.indexOf(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	info := r.entries[idx]
	if !worthCompressing(r.stored, &info) {
		return nil, fmt.Errorf("%w: %s is stored raw", ErrInvalidArchive, name)
	}

	rc := newInflater(r.cipherSection(&info, CipherInverse))
	defer func() { _ = rc.Close() }()

	return decodeTable(&info, rc)
}

// entryAt returns a copy of entry header i.
func (r *Reader) entryAt(i int) (EntryInfo, error) {
	if err := r.checkOpen(); err != nil {
		return EntryInfo{}, err
	}
	if i < 0 || i >= len(r.entries) {
		return EntryInfo{}, fmt.Errorf("%w: index %d of %d", ErrFileNotFound, i, len(r.entries))
	}

	return r.entries[i], nil
}

// indexOf returns index of first entry whose Path equals name, or -1.
func (r *Reader) indexOf(name string) int {
	for i := range r.entries {
		if r.entries[i].Path == name {
			return i
		}
	}

	return -1
}

// checkOpen validates reader state.
func (r *Reader) checkOpen() error {
	if r == nil || r.ra == nil {
		return ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	return nil
}

// modeFor returns default cipher mode for entry.
func (r *Reader) modeFor(info *EntryInfo) CipherMode {
	if worthCompressing(r.stored, info) {
		return CipherInverse
	}

	return CipherStored
}

// cipherSection bounds reads to the entry payload and wraps it with the cipher.
func (r *Reader) cipherSection(info *EntryInfo, mode CipherMode) *CipherReader {
	sr := io.NewSectionReader(r.ra, int64(info.DataOffset), int64(info.CompressedSize))
	return NewCipherReader(sr, mode, r.opts.CipherKey)
}

// openEntry assembles the reader chain for entry.
func (r *Reader) openEntry(info EntryInfo, mode CipherMode) (*Entry, error) {
	e := &Entry{info: info, mode: mode}
	crypt := r.cipherSection(&info, mode)

	if !worthCompressing(r.stored, &info) {
		e.kind = EntryKindStored
		e.src = crypt
		return e, nil
	}

	inflater := newInflater(crypt)
	e.inflater = inflater
	if info.isTable() && !r.opts.RawTables {
		e.kind = EntryKindTable
		e.src = &tableReader{info: &e.info, src: inflater}
		return e, nil
	}

	e.kind = EntryKindDeflate
	e.src = inflater
	return e, nil
}

// tableReader buffers the inflated table on first Read and serves its text rendering.
type tableReader struct {
	src  io.Reader
	info *EntryInfo
	text *bytes.Reader
	err  error
}

// Read implements io.Reader.
func (t *tableReader) Read(p []byte) (int, error) {
	if t.text == nil && t.err == nil {
		table, err := decodeTable(t.info, t.src)
		if err != nil {
			t.err = err
		} else {
			t.text = bytes.NewReader([]byte(table.Text()))
		}
	}
	if t.err != nil {
		return 0, t.err
	}

	return t.text.Read(p)
}

// decodeTable reads src fully and decodes it as IES.
func decodeTable(info *EntryInfo, src io.Reader) (*ies.Table, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("inflate table %s: %w", info.Path, err)
	}

	table, err := ies.Decode(data)
	if err != nil {
		if errors.Is(err, ies.ErrInvalidTable) {
			return nil, fmt.Errorf("%w: table %s: %w", ErrInvalidArchive, info.Path, err)
		}

		return nil, fmt.Errorf("decode table %s: %w", info.Path, err)
	}

	return table, nil
}
