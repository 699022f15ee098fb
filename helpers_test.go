package ipf

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/woozymasta/ipf/ies"
)

// testEntry describes one entry for buildIPF.
type testEntry struct {
	archive string
	path    string
	// data is plaintext content.
	data []byte
	// stored writes data as-is instead of deflate + forward cipher.
	stored bool
	// payload overrides the encoded payload bytes when set.
	payload []byte
}

// testArchive holds a built archive and the entry layout.
type testArchive struct {
	data    []byte
	offsets []uint32
	sizes   []uint32
	header  ArchiveHeader
}

// deflateForward compresses plain with raw DEFLATE and applies the forward cipher.
func deflateForward(t testing.TB, plain []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		t.Fatalf("flate.NewWriter: %v", err)
	}
	if _, err := fw.Write(plain); err != nil {
		t.Fatalf("deflate write: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("deflate close: %v", err)
	}

	compressed := buf.Bytes()
	return Transform(make([]byte, len(compressed)), compressed, CipherForward, nil)
}

// buildIPF lays out payloads from offset zero, then the entry table, then the footer.
func buildIPF(t testing.TB, entries []testEntry) testArchive {
	t.Helper()

	var out bytes.Buffer
	arc := testArchive{
		offsets: make([]uint32, len(entries)),
		sizes:   make([]uint32, len(entries)),
	}

	for i, e := range entries {
		payload := e.payload
		if payload == nil {
			if e.stored {
				payload = e.data
			} else {
				payload = deflateForward(t, e.data)
			}
		}

		arc.offsets[i] = uint32(out.Len())
		arc.sizes[i] = uint32(len(payload))
		out.Write(payload)
	}

	tableOffset := uint32(out.Len())
	for i, e := range entries {
		var prefix [entryPrefixSize]byte
		binary.LittleEndian.PutUint16(prefix[0:2], uint16(len(e.path)))
		binary.LittleEndian.PutUint32(prefix[2:6], crc32.ChecksumIEEE(e.data))
		binary.LittleEndian.PutUint32(prefix[6:10], arc.sizes[i])
		binary.LittleEndian.PutUint32(prefix[10:14], uint32(len(e.data)))
		binary.LittleEndian.PutUint32(prefix[14:18], arc.offsets[i])
		binary.LittleEndian.PutUint16(prefix[18:20], uint16(len(e.archive)))
		out.Write(prefix[:])
		out.WriteString(e.archive)
		out.WriteString(e.path)
	}

	arc.header = ArchiveHeader{
		EntryCount:      uint16(len(entries)),
		LocalFileOffset: tableOffset,
		HeaderOffset:    uint32(out.Len()),
		Signature:       Signature,
		BaseRevision:    11000,
		Revision:        11042,
	}
	out.Write(encodeFooter(arc.header))

	arc.data = out.Bytes()
	return arc
}

// encodeFooter serializes the 24-byte footer.
func encodeFooter(h ArchiveHeader) []byte {
	buf := make([]byte, footerSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.EntryCount)
	binary.LittleEndian.PutUint32(buf[2:6], h.LocalFileOffset)
	binary.LittleEndian.PutUint32(buf[8:12], h.HeaderOffset)
	copy(buf[12:16], h.Signature[:])
	binary.LittleEndian.PutUint32(buf[16:20], h.BaseRevision)
	binary.LittleEndian.PutUint32(buf[20:24], h.Revision)
	return buf
}

// writeIPF builds an archive and writes it into a temp dir.
func writeIPF(t testing.TB, entries []testEntry) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.ipf")
	if err := os.WriteFile(path, buildIPF(t, entries).data, 0o600); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	return path
}

// openTestReader builds an archive in memory and opens it.
func openTestReader(t testing.TB, entries []testEntry, opts ReaderOptions) *Reader {
	t.Helper()

	data := buildIPF(t, entries).data
	r, err := NewReaderFromReaderAtWithOptions(bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		t.Fatalf("NewReaderFromReaderAtWithOptions: %v", err)
	}

	return r
}

// testTableColumn is one column descriptor for buildIES.
type testTableColumn struct {
	name     string
	isString bool
	order    uint16
}

// testTableRow is one row for buildIES.
type testTableRow struct {
	class string
	nums  []float32
	strs  []string
}

// obfuscateText is the inverse of ies.Deobfuscate for text without bytes equal to 1.
// The result is zero padded to size; size smaller than len(s) keeps the full text.
func obfuscateText(s string, size int) []byte {
	out := make([]byte, max(size, len(s)))
	for i := 0; i < len(s); i++ {
		out[i] = s[i] ^ 1
	}

	return out
}

// buildIES encodes a minimal IES blob: header, columns directly after it, rows after columns.
func buildIES(name string, columns []testTableColumn, rows []testTableRow) []byte {
	var numCount, strCount int
	for _, c := range columns {
		if c.isString {
			strCount++
		} else {
			numCount++
		}
	}

	var cols bytes.Buffer
	for _, c := range columns {
		var desc [ies.ColumnSize]byte
		copy(desc[0:64], obfuscateText(c.name, 64))
		copy(desc[64:128], obfuscateText("CT_"+c.name, 64))
		if c.isString {
			desc[128] = 1
		}
		binary.LittleEndian.PutUint16(desc[134:136], c.order)
		cols.Write(desc[:])
	}

	var body bytes.Buffer
	for _, r := range rows {
		var prefix [6]byte
		binary.LittleEndian.PutUint16(prefix[4:6], uint16(len(r.class)))
		body.Write(prefix[:])
		body.Write(obfuscateText(r.class, len(r.class)))

		for _, v := range r.nums {
			var raw [4]byte
			binary.LittleEndian.PutUint32(raw[:], math.Float32bits(v))
			body.Write(raw[:])
		}

		for _, s := range r.strs {
			var l [2]byte
			binary.LittleEndian.PutUint16(l[:], uint16(len(s)))
			body.Write(l[:])
			body.Write(obfuscateText(s, len(s)))
		}

		body.Write(make([]byte, strCount))
	}

	header := make([]byte, ies.HeaderSize)
	copy(header, name)
	fileSize := ies.HeaderSize + cols.Len() + body.Len()
	binary.LittleEndian.PutUint32(header[132:136], uint32(cols.Len()))
	binary.LittleEndian.PutUint32(header[136:140], uint32(body.Len()))
	binary.LittleEndian.PutUint32(header[140:144], uint32(fileSize))
	binary.LittleEndian.PutUint16(header[146:148], uint16(len(rows)))
	binary.LittleEndian.PutUint16(header[148:150], uint16(len(columns)))
	binary.LittleEndian.PutUint16(header[150:152], uint16(numCount))
	binary.LittleEndian.PutUint16(header[152:154], uint16(strCount))

	out := make([]byte, 0, fileSize)
	out = append(out, header...)
	out = append(out, cols.Bytes()...)
	return append(out, body.Bytes()...)
}

// sampleTable is a small table with one numeric and one string column.
func sampleTable() []byte {
	return buildIES("Item", []testTableColumn{
		{name: "Name", isString: true, order: 0},
		{name: "ClassID", order: 0},
	}, []testTableRow{
		{class: "Sword", nums: []float32{101}, strs: []string{"Sword"}},
		{class: "Shield", nums: []float32{1.5}, strs: []string{"Kite Shield"}},
	})
}

// sampleTableText is the rendering of sampleTable.
const sampleTableText = "ClassID,Name\n101,\"Sword\"\n1.5,\"Kite Shield\"\n"
