// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

/*
Package ipf reads IPF game-client archives. The archive directory sits in a
24-byte footer at the end of the file; entry headers follow at the footer's
local file offset, and each entry payload is a byte range of the source.

Entry decoding (summary):
  - entries whose extension matches stored rules (jpg, fsb, mp3 by default)
    are exposed as raw bytes;
  - every other entry is de-obfuscated with the position-keyed cipher and
    inflated as raw DEFLATE;
  - ".ies" entries are additionally decoded as IES tables (package ies) and
    exposed as their canonical comma-separated text.

# Reading

	r, err := ipf.Open("xml_tool.ipf")
	if err != nil {
	    return err
	}
	defer r.Close()
	for i := 0; i < r.Len(); i++ {
	    e, err := r.ByIndex(i)
	    if err != nil {
	        return err
	    }
	    data, err := io.ReadAll(e)
	    _ = e.Close()
	    if err != nil {
	        return err
	    }
	    fmt.Println(e.FullPath(), len(data))
	}

Lookup by path compares the full relative path exactly; the first match in
archive order wins:

	data, err := r.ReadEntry("xml/item.xml")

Entries read through independent sections of an io.ReaderAt, so several
entries may be read at once. Sources opened with NewReaderFromReadSeeker
share one cursor and serialize reads internally.

For metadata-only scans:

	entries, err := ipf.ListEntriesWithOptions("xml_tool.ipf", ipf.ListOptions{
	    Glob: "xml/**",
	})

# Cipher modes

The extension heuristic picks the cipher mode. Callers may force one:

	e, err := r.OpenEntryWithMode(i, ipf.CipherStored)

# Extracting

	if err := r.Extract(ctx, "out/", ipf.ExtractOptions{MaxWorkers: 4}); err != nil {
	    return err
	}

Output paths are <archive_name>/<path> under the destination, sanitized
unless ExtractOptions.RawNames is set.
*/
package ipf
