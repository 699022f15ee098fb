// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package ies

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"
	"unicode/utf8"
)

// Binary layout sizes.
const (
	HeaderSize     = 154 // fixed table header size
	ColumnSize     = 136 // fixed column descriptor size
	nameSize       = 128 // zero-padded table name
	columnNameSize = 64  // one obfuscated column name field
	rowPrefixSize  = 6   // reserved bytes plus class name length
)

// Header is the fixed table header with derived section offsets.
type Header struct {
	// Name is the table name with zero padding removed.
	Name string `json:"name" yaml:"name"`
	// OffsetHint1 is the byte length of the column directory section.
	OffsetHint1 uint32 `json:"offset_hint1" yaml:"offset_hint1"`
	// OffsetHint2 is the byte length of the row section.
	OffsetHint2 uint32 `json:"offset_hint2" yaml:"offset_hint2"`
	// FileSize is the declared blob size.
	FileSize uint32 `json:"file_size" yaml:"file_size"`
	// RowCount is number of rows.
	RowCount uint16 `json:"row_count" yaml:"row_count"`
	// ColumnCount is number of column descriptors.
	ColumnCount uint16 `json:"column_count" yaml:"column_count"`
	// IntColumnCount is number of numeric cells per row.
	IntColumnCount uint16 `json:"int_column_count" yaml:"int_column_count"`
	// StrColumnCount is number of string cells per row.
	StrColumnCount uint16 `json:"str_column_count" yaml:"str_column_count"`
}

// ColumnOffset returns FileSize - OffsetHint1 - OffsetHint2.
func (h *Header) ColumnOffset() int64 {
	return int64(h.FileSize) - int64(h.OffsetHint1) - int64(h.OffsetHint2)
}

// RowOffset returns FileSize - OffsetHint2.
func (h *Header) RowOffset() int64 {
	return int64(h.FileSize) - int64(h.OffsetHint2)
}

// validate checks derived offsets are within [0, FileSize].
func (h *Header) validate() error {
	size := int64(h.FileSize)
	if off := h.ColumnOffset(); off < 0 || off > size {
		return fmt.Errorf("%w: column offset %d outside file size %d", ErrInvalidTable, off, size)
	}
	if off := h.RowOffset(); off < 0 || off > size {
		return fmt.Errorf("%w: row offset %d outside file size %d", ErrInvalidTable, off, size)
	}

	return nil
}

// Column is one column descriptor.
type Column struct {
	// Name is the canonical display name.
	Name string `json:"name" yaml:"name"`
	// AltName is the second name field, often Name with a "CT_" prefix.
	AltName string `json:"alt_name,omitempty" yaml:"alt_name,omitempty"`
	// IsString reports whether column holds string cells.
	IsString bool `json:"is_string" yaml:"is_string"`
	// Order is the rank of the column inside its numeric or string group.
	Order uint16 `json:"order" yaml:"order"`
}

// CellKind tags Cell variants.
type CellKind uint8

// Cell kinds.
const (
	// CellNumber holds a 32-bit float.
	CellNumber CellKind = iota
	// CellString holds text.
	CellString
)

// Cell is one row value.
type Cell struct {
	// Text is set for CellString.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	// Number is set for CellNumber.
	Number float32 `json:"number,omitempty" yaml:"number,omitempty"`
	// Kind selects the variant.
	Kind CellKind `json:"kind" yaml:"kind"`
}

// NumberCell returns numeric cell.
func NumberCell(v float32) Cell {
	return Cell{Kind: CellNumber, Number: v}
}

// StringCell returns string cell.
func StringCell(s string) Cell {
	return Cell{Kind: CellString, Text: s}
}

// Row is one table row.
type Row struct {
	// ClassName is row metadata and is not rendered as a cell.
	ClassName string `json:"class_name" yaml:"class_name"`
	// Cells holds numeric cells followed by string cells.
	Cells []Cell `json:"cells" yaml:"cells"`
}

// Table is a fully decoded IES document.
type Table struct {
	Header  Header   `json:"header" yaml:"header"`
	Columns []Column `json:"columns" yaml:"columns"`
	Rows    []Row    `json:"rows" yaml:"rows"`
}

// ColumnIndex returns position of first column with given name, or -1.
func (t *Table) ColumnIndex(name string) int {
	return slices.IndexFunc(t.Columns, func(c Column) bool { return c.Name == name })
}

// Decode parses a fully buffered IES blob.
func Decode(data []byte) (*Table, error) {
	c := &cursor{data: data}

	header, err := parseHeader(c)
	if err != nil {
		return nil, err
	}

	c.seek(header.ColumnOffset())
	columns, err := parseColumns(c, int(header.ColumnCount))
	if err != nil {
		return nil, err
	}

	c.seek(header.RowOffset())
	rows := make([]Row, 0, header.RowCount)
	for i := 0; i < int(header.RowCount); i++ {
		row, err := parseRow(c, int(header.IntColumnCount), int(header.StrColumnCount))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		rows = append(rows, row)
	}

	return &Table{Header: header, Columns: columns, Rows: rows}, nil
}

// DecodeReader buffers r fully and decodes it.
func DecodeReader(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}

	return Decode(data)
}

// parseHeader reads the 154-byte header at offset zero.
func parseHeader(c *cursor) (Header, error) {
	buf, err := c.next(HeaderSize)
	if err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}

	name := bytes.TrimRight(buf[:nameSize], "\x00")
	if !utf8.Valid(name) {
		return Header{}, fmt.Errorf("%w: table name", ErrEncoding)
	}

	h := Header{
		Name:           string(name),
		OffsetHint1:    binary.LittleEndian.Uint32(buf[132:136]),
		OffsetHint2:    binary.LittleEndian.Uint32(buf[136:140]),
		FileSize:       binary.LittleEndian.Uint32(buf[140:144]),
		RowCount:       binary.LittleEndian.Uint16(buf[146:148]),
		ColumnCount:    binary.LittleEndian.Uint16(buf[148:150]),
		IntColumnCount: binary.LittleEndian.Uint16(buf[150:152]),
		StrColumnCount: binary.LittleEndian.Uint16(buf[152:154]),
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}

	return h, nil
}

// parseColumns reads count descriptors and orders them: numeric group first, string group second,
// each group sorted by Order with read order kept for equal ranks.
func parseColumns(c *cursor, count int) ([]Column, error) {
	numeric := make([]Column, 0, count)
	text := make([]Column, 0)
	for i := 0; i < count; i++ {
		col, err := parseColumn(c)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}

		if col.IsString {
			text = append(text, col)
		} else {
			numeric = append(numeric, col)
		}
	}

	byOrder := func(a, b Column) int { return cmp.Compare(a.Order, b.Order) }
	slices.SortStableFunc(numeric, byOrder)
	slices.SortStableFunc(text, byOrder)

	return append(numeric, text...), nil
}

// parseColumn reads one 136-byte descriptor.
func parseColumn(c *cursor) (Column, error) {
	buf, err := c.next(ColumnSize)
	if err != nil {
		return Column{}, err
	}

	name, err := Deobfuscate(buf[0:columnNameSize])
	if err != nil {
		return Column{}, fmt.Errorf("name: %w", err)
	}

	altName, err := Deobfuscate(buf[columnNameSize : 2*columnNameSize])
	if err != nil {
		return Column{}, fmt.Errorf("alt name: %w", err)
	}

	// buf[129:134] is reserved.
	return Column{
		Name:     name,
		AltName:  altName,
		IsString: buf[128] != 0,
		Order:    binary.LittleEndian.Uint16(buf[134:136]),
	}, nil
}

// parseRow reads one row: class name, numeric cells, string cells and the per-row trailer.
func parseRow(c *cursor, numCount, strCount int) (Row, error) {
	prefix, err := c.next(rowPrefixSize)
	if err != nil {
		return Row{}, err
	}

	classLen := int(binary.LittleEndian.Uint16(prefix[4:6]))
	classRaw, err := c.next(classLen)
	if err != nil {
		return Row{}, err
	}

	className, err := Deobfuscate(classRaw)
	if err != nil {
		return Row{}, fmt.Errorf("class name: %w", err)
	}

	cells := make([]Cell, 0, numCount+strCount)
	for i := 0; i < numCount; i++ {
		raw, err := c.next(4)
		if err != nil {
			return Row{}, err
		}

		cells = append(cells, NumberCell(math.Float32frombits(binary.LittleEndian.Uint32(raw))))
	}

	for i := 0; i < strCount; i++ {
		lenRaw, err := c.next(2)
		if err != nil {
			return Row{}, err
		}

		raw, err := c.next(int(binary.LittleEndian.Uint16(lenRaw)))
		if err != nil {
			return Row{}, err
		}

		s, err := Deobfuscate(raw)
		if err != nil {
			return Row{}, fmt.Errorf("string cell %d: %w", i, err)
		}

		cells = append(cells, StringCell(s))
	}

	// One trailing byte per string column follows every row; its meaning is unknown.
	c.skip(int64(strCount))

	return Row{ClassName: className, Cells: cells}, nil
}

// Deobfuscate decodes one stored text field. Scanning stops at the first raw zero byte;
// every byte before it is XORed with 1. The result must be valid UTF-8.
func Deobfuscate(raw []byte) (string, error) {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b == 0 {
			break
		}

		out = append(out, b^1)
	}

	if !utf8.Valid(out) {
		return "", fmt.Errorf("%w: %q", ErrEncoding, out)
	}

	return string(out), nil
}

// cursor is a seekable position over a resident blob.
// Seeking past the end is allowed; reads there fail with io.ErrUnexpectedEOF.
type cursor struct {
	data []byte
	pos  int64
}

// seek moves to absolute offset.
func (c *cursor) seek(off int64) {
	c.pos = off
}

// skip advances by n bytes.
func (c *cursor) skip(n int64) {
	c.pos += n
}

// next returns the following n bytes and advances.
func (c *cursor) next(n int) ([]byte, error) {
	end := c.pos + int64(n)
	if c.pos < 0 || end > int64(len(c.data)) {
		return nil, io.ErrUnexpectedEOF
	}

	buf := c.data[c.pos:end]
	c.pos = end
	return buf, nil
}
