// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

/*
Package ies decodes IES binary tables embedded in IPF archives and renders
them in a canonical comma-separated text form.

An IES blob is laid out as:

	0    name                 128 bytes, zero padded, plain UTF-8
	128  reserved             4 bytes
	132  offset hint 1        uint32
	136  offset hint 2        uint32
	140  file size            uint32
	144  reserved             2 bytes
	146  row count            uint16
	148  column count         uint16
	150  numeric column count uint16
	152  string column count  uint16
	154  ...

Column descriptors start at fileSize-hint1-hint2 and rows at fileSize-hint2,
so the whole blob must be resident before decoding:

	table, err := ies.Decode(data)
	if err != nil {
	    return err
	}
	fmt.Print(table.Text())

Names and string cells are stored with a one-bit XOR and zero termination;
see Deobfuscate.
*/
package ies
