package ipf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_InvalidSignature(t *testing.T) {
	t.Parallel()

	data := buildIPF(t, []testEntry{{archive: "a.ipf", path: "a.txt", data: []byte("hello")}}).data
	copy(data[len(data)-footerSize+12:], []byte{0x50, 0x4B, 0x03, 0x04})

	path := filepath.Join(t.TempDir(), "bad.ipf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if !errors.Is(err, ErrInvalidArchive) {
		t.Fatalf("expected ErrInvalidArchive, got %v", err)
	}
}

func TestOpen_ShortSource(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, 1, footerSize - 1} {
		data := make([]byte, size)
		_, err := NewReaderFromReaderAt(bytes.NewReader(data), int64(size))
		if !errors.Is(err, ErrInvalidArchive) {
			t.Fatalf("size %d: expected ErrInvalidArchive, got %v", size, err)
		}
	}
}

func TestOpen_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.ipf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestReader_EmptyArchive(t *testing.T) {
	t.Parallel()

	r := openTestReader(t, nil, ReaderOptions{})
	if !r.IsEmpty() || r.Len() != 0 {
		t.Fatalf("Len=%d IsEmpty=%v, want empty", r.Len(), r.IsEmpty())
	}

	if _, err := r.ByIndex(0); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("ByIndex(0) on empty archive: %v", err)
	}
}

func TestReader_HeaderAndEntries(t *testing.T) {
	t.Parallel()

	entries := []testEntry{
		{archive: "xml_tool.ipf", path: "xml/item.xml", data: []byte("<item/>")},
		{archive: "ui.ipf", path: "event_banner/event1234.jpg", data: []byte("JPEGDATA"), stored: true},
		{archive: "ies.ipf", path: "item.ies", data: sampleTable()},
	}
	arc := buildIPF(t, entries)

	r, err := NewReaderFromReaderAt(bytes.NewReader(arc.data), int64(len(arc.data)))
	if err != nil {
		t.Fatalf("NewReaderFromReaderAt: %v", err)
	}
	defer func() { _ = r.Close() }()

	if got := r.Header(); got != arc.header {
		t.Fatalf("Header()=%+v, want %+v", got, arc.header)
	}
	if r.Len() != int(arc.header.EntryCount) {
		t.Fatalf("Len()=%d, want %d", r.Len(), arc.header.EntryCount)
	}

	got := r.Entries()
	for i, e := range entries {
		if got[i].Path != e.path || got[i].ArchiveName != e.archive {
			t.Fatalf("entry %d = %s/%s, want %s/%s", i, got[i].ArchiveName, got[i].Path, e.archive, e.path)
		}
		if got[i].DataOffset != arc.offsets[i] || got[i].CompressedSize != arc.sizes[i] {
			t.Fatalf("entry %d range = [%d,+%d), want [%d,+%d)", i,
				got[i].DataOffset, got[i].CompressedSize, arc.offsets[i], arc.sizes[i])
		}
		if got[i].UncompressedSize != uint32(len(e.data)) {
			t.Fatalf("entry %d UncompressedSize=%d, want %d", i, got[i].UncompressedSize, len(e.data))
		}
	}

	got[0].Path = "mutated"
	if r.Entries()[0].Path == "mutated" {
		t.Fatal("Entries() must return a copy")
	}
}

func TestReader_ByIndexOutOfRange(t *testing.T) {
	t.Parallel()

	r := openTestReader(t, []testEntry{
		{archive: "a.ipf", path: "a.txt", data: []byte("a")},
		{archive: "a.ipf", path: "b.txt", data: []byte("b")},
	}, ReaderOptions{})

	for _, idx := range []int{-1, 2, 100} {
		if _, err := r.ByIndex(idx); !errors.Is(err, ErrFileNotFound) {
			t.Fatalf("ByIndex(%d): expected ErrFileNotFound, got %v", idx, err)
		}
	}
}

func TestReader_ByNameFirstMatchWins(t *testing.T) {
	t.Parallel()

	r := openTestReader(t, []testEntry{
		{archive: "one.ipf", path: "dup.txt", data: []byte("first")},
		{archive: "two.ipf", path: "dup.txt", data: []byte("second")},
	}, ReaderOptions{})

	e, err := r.ByName("dup.txt")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	defer func() { _ = e.Close() }()

	if e.ArchiveName() != "one.ipf" {
		t.Fatalf("ArchiveName()=%q, want one.ipf", e.ArchiveName())
	}

	got, err := io.ReadAll(e)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "first" {
		t.Fatalf("content=%q, want first", got)
	}

	if _, err := r.ByName("DUP.txt"); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("lookup must be exact, got %v", err)
	}
	if _, err := r.ByName("one.ipf/dup.txt"); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("lookup must not include archive name, got %v", err)
	}
}

func TestReader_InvalidUTF8Name(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name    string
		archive string
		path    string
	}{
		{name: "file name", archive: "a.ipf", path: "bad\xff.txt"},
		{name: "archive name", archive: "bad\xc3(.ipf", path: "a.txt"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data := buildIPF(t, []testEntry{{archive: tc.archive, path: tc.path, data: []byte("x")}}).data
			_, err := NewReaderFromReaderAt(bytes.NewReader(data), int64(len(data)))
			if !errors.Is(err, ErrEncoding) {
				t.Fatalf("expected ErrEncoding, got %v", err)
			}
		})
	}
}

func TestReader_TruncatedEntryTable(t *testing.T) {
	t.Parallel()

	arc := buildIPF(t, []testEntry{{archive: "a.ipf", path: "a.txt", data: []byte("hello")}})
	h := arc.header
	// Records past the first run into the footer and then off the end of the source.
	h.EntryCount = 5

	data := append([]byte{}, arc.data[:len(arc.data)-footerSize]...)
	data = append(data, encodeFooter(h)...)

	_, err := NewReaderFromReaderAt(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestReader_PayloadOutOfBounds(t *testing.T) {
	t.Parallel()

	arc := buildIPF(t, []testEntry{{archive: "a.ipf", path: "a.txt", data: []byte("hello")}})
	data := append([]byte{}, arc.data...)

	// Entry record starts at LocalFileOffset; data_offset lives at +14.
	binary.LittleEndian.PutUint32(data[arc.header.LocalFileOffset+14:], uint32(len(data)))

	_, err := NewReaderFromReaderAt(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, ErrInvalidArchive) || !errors.Is(err, ErrInvalidEntryOffset) {
		t.Fatalf("expected ErrInvalidArchive+ErrInvalidEntryOffset, got %v", err)
	}

	r, err := NewReaderFromReaderAtWithOptions(bytes.NewReader(data), int64(len(data)), ReaderOptions{SkipBoundsCheck: true})
	if err != nil {
		t.Fatalf("SkipBoundsCheck: %v", err)
	}
	if _, err := r.ReadEntryAt(0); err == nil {
		t.Fatal("expected read error for out-of-range payload")
	}
}

// seekOnly hides io.ReaderAt of bytes.Reader.
type seekOnly struct {
	io.ReadSeeker
}

func TestNewReaderFromReadSeeker(t *testing.T) {
	t.Parallel()

	data := buildIPF(t, []testEntry{
		{archive: "a.ipf", path: "a.txt", data: []byte("alpha")},
		{archive: "a.ipf", path: "b.mp3", data: []byte("ID3 beta"), stored: true},
	}).data

	r, err := NewReaderFromReadSeeker(seekOnly{bytes.NewReader(data)})
	if err != nil {
		t.Fatalf("NewReaderFromReadSeeker: %v", err)
	}

	for name, want := range map[string]string{"a.txt": "alpha", "b.mp3": "ID3 beta"} {
		got, err := r.ReadEntry(name)
		if err != nil {
			t.Fatalf("ReadEntry %s: %v", name, err)
		}
		if string(got) != want {
			t.Fatalf("ReadEntry %s=%q, want %q", name, got, want)
		}
	}
}

func TestReader_Close(t *testing.T) {
	t.Parallel()

	path := writeIPF(t, []testEntry{{archive: "a.ipf", path: "a.txt", data: []byte("hello")}})
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := r.ByIndex(0); !errors.Is(err, ErrClosed) {
		t.Fatalf("ByIndex after Close: expected ErrClosed, got %v", err)
	}
	if _, err := r.ReadEntry("a.txt"); !errors.Is(err, ErrClosed) {
		t.Fatalf("ReadEntry after Close: expected ErrClosed, got %v", err)
	}
}

func TestNilReader(t *testing.T) {
	t.Parallel()

	if _, err := NewReaderFromReaderAt(nil, 0); !errors.Is(err, ErrNilReader) {
		t.Fatalf("expected ErrNilReader, got %v", err)
	}
	if _, err := NewReaderFromReadSeeker(nil); !errors.Is(err, ErrNilReader) {
		t.Fatalf("expected ErrNilReader, got %v", err)
	}

	var r *Reader
	if r.Len() != 0 {
		t.Fatal("nil reader Len must be zero")
	}
	if _, err := r.ByIndex(0); !errors.Is(err, ErrNilReader) {
		t.Fatalf("expected ErrNilReader, got %v", err)
	}
}

func TestEntryInfo_PathHelpers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		info     EntryInfo
		fileName string
		ext      string
		fullPath string
	}{
		{
			info:     EntryInfo{ArchiveName: "ui.ipf", Path: "event_banner/event1234.png"},
			fileName: "event1234.png", ext: "png", fullPath: "ui.ipf/event_banner/event1234.png",
		},
		{info: EntryInfo{ArchiveName: "a.ipf", Path: "noext"}, fileName: "noext", ext: "", fullPath: "a.ipf/noext"},
		{info: EntryInfo{ArchiveName: "a.ipf", Path: "dir/.hidden"}, fileName: ".hidden", ext: "", fullPath: "a.ipf/dir/.hidden"},
		{info: EntryInfo{ArchiveName: "a.ipf", Path: "x.tar.gz"}, fileName: "x.tar.gz", ext: "gz", fullPath: "a.ipf/x.tar.gz"},
		{info: EntryInfo{ArchiveName: "a.ipf", Path: "trail."}, fileName: "trail.", ext: "", fullPath: "a.ipf/trail."},
		{info: EntryInfo{Path: "a/b.IES"}, fileName: "b.IES", ext: "IES", fullPath: "a/b.IES"},
	}

	for _, tc := range cases {
		t.Run(tc.info.Path, func(t *testing.T) {
			t.Parallel()

			if got := tc.info.FileName(); got != tc.fileName {
				t.Fatalf("FileName()=%q, want %q", got, tc.fileName)
			}
			if got := tc.info.Ext(); got != tc.ext {
				t.Fatalf("Ext()=%q, want %q", got, tc.ext)
			}
			if got := tc.info.FullPath(); got != tc.fullPath {
				t.Fatalf("FullPath()=%q, want %q", got, tc.fullPath)
			}
		})
	}
}
