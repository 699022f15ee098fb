// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package ies

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders a numeric cell as shortest round-trip decimal text without exponent.
// Infinities render as "inf" and "-inf", NaN as "NaN".
func FormatNumber(v float32) string {
	switch {
	case math.IsInf(float64(v), 1):
		return "inf"
	case math.IsInf(float64(v), -1):
		return "-inf"
	case v != v:
		return "NaN"
	}

	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

// String renders cell text: numbers via FormatNumber, strings wrapped in double quotes without escaping.
func (c Cell) String() string {
	if c.Kind == CellString {
		return `"` + c.Text + `"`
	}

	return FormatNumber(c.Number)
}

// String renders cells joined by commas.
func (r Row) String() string {
	var b strings.Builder
	for i, cell := range r.Cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(cell.String())
	}

	return b.String()
}

// WriteText writes the canonical rendering: column names line, then one line per row.
// Every line ends with '\n'.
func (t *Table) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, col := range t.Columns {
		if i > 0 {
			_ = bw.WriteByte(',')
		}
		_, _ = bw.WriteString(col.Name)
	}
	_ = bw.WriteByte('\n')

	for i := range t.Rows {
		_, _ = bw.WriteString(t.Rows[i].String())
		_ = bw.WriteByte('\n')
	}

	return bw.Flush()
}

// Text returns the canonical rendering as string.
func (t *Table) Text() string {
	var b strings.Builder
	_ = t.WriteText(&b)
	return b.String()
}

// Records returns the header and rows as string fields, for CSV writers.
// String cells are returned without quotes.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)

	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	out = append(out, names)

	for _, row := range t.Rows {
		fields := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			if cell.Kind == CellString {
				fields[i] = cell.Text
				continue
			}
			fields[i] = FormatNumber(cell.Number)
		}
		out = append(out, fields)
	}

	return out
}
