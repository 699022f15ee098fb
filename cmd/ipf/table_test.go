package main

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/woozymasta/ipf/ies"
)

func sampleTable() *ies.Table {
	return &ies.Table{
		Header: ies.Header{Name: "items"},
		Columns: []ies.Column{
			{Name: "ClassID"},
			{Name: "Name", IsString: true},
		},
		Rows: []ies.Row{
			{ClassName: "Sword", Cells: []ies.Cell{ies.NumberCell(101), ies.StringCell("Sword")}},
			{ClassName: "Shield", Cells: []ies.Cell{ies.NumberCell(1.5), ies.StringCell("Kite, Shield")}},
		},
	}
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{format: "text", want: "ClassID,Name\n101,\"Sword\"\n1.5,\"Kite, Shield\"\n"},
		{format: "", want: "ClassID,Name\n101,\"Sword\"\n1.5,\"Kite, Shield\"\n"},
		{format: "csv", want: "ClassID,Name\n101,Sword\n1.5,\"Kite, Shield\"\n"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		if err := writeTable(&buf, sampleTable(), tt.format); err != nil {
			t.Fatalf("format %q: %v", tt.format, err)
		}
		if buf.String() != tt.want {
			t.Fatalf("format %q:\ngot  %q\nwant %q", tt.format, buf.String(), tt.want)
		}
	}
}

func TestWriteTable_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := writeTable(&buf, sampleTable(), "json"); err != nil {
		t.Fatalf("writeTable: %v", err)
	}

	var got ies.Table
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Header.Name != "items" || len(got.Rows) != 2 || got.Rows[1].Cells[1].Text != "Kite, Shield" {
		t.Fatalf("decoded=%+v", got)
	}
}

func TestWriteTable_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := writeTable(&bytes.Buffer{}, sampleTable(), "xml")
	if err == nil || !strings.Contains(err.Error(), "xml") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}
