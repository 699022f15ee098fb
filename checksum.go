// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package ipf

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"
)

// VerifyResult is the outcome of checking one entry against its header record.
type VerifyResult struct {
	// Entry is the checked header record.
	Entry EntryInfo `json:"entry" yaml:"entry"`
	// Err is nil when CRC32 and size match.
	Err error `json:"-" yaml:"-"`
	// CRC32 is the checksum of the decoded payload.
	CRC32 uint32 `json:"crc32" yaml:"crc32"`
	// Size is the decoded payload size in bytes.
	Size int64 `json:"size" yaml:"size"`
}

// VerifyEntry decodes entry i without table rendering and compares the CRC32 and
// size of the payload with the header record. Stored entries are checked over raw bytes.
func (r *Reader) VerifyEntry(i int) (VerifyResult, error) {
	info, err := r.entryAt(i)
	if err != nil {
		return VerifyResult{}, err
	}

	return r.verifyEntry(info)
}

// Verify checks every entry in archive order and returns one result per entry.
// The returned error is non-nil only for failures that stop the scan, such as a closed reader
// or a cancelled context; per-entry mismatches are reported in VerifyResult.Err.
func (r *Reader) Verify(ctx context.Context) ([]VerifyResult, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	results := make([]VerifyResult, 0, len(r.entries))
	for i := range r.entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := r.verifyEntry(r.entries[i])
		if err != nil {
			res = VerifyResult{Entry: r.entries[i], Err: err}
		}

		results = append(results, res)
	}

	return results, nil
}

// verifyEntry hashes the decoded payload of info.
func (r *Reader) verifyEntry(info EntryInfo) (VerifyResult, error) {
	res := VerifyResult{Entry: info}

	var src io.Reader
	crypt := r.cipherSection(&info, r.modeFor(&info))
	if worthCompressing(r.stored, &info) {
		rc := newInflater(crypt)
		defer func() { _ = rc.Close() }()
		src = rc
	} else {
		src = crypt
	}

	h := crc32.NewIEEE()
	n, err := io.Copy(h, src)
	if err != nil {
		return res, fmt.Errorf("hash %s: %w", info.Path, err)
	}

	res.CRC32 = h.Sum32()
	res.Size = n

	switch {
	case n != int64(info.UncompressedSize):
		res.Err = fmt.Errorf("%w: %s: %d bytes, header says %d", ErrSizeMismatch, info.Path, n, info.UncompressedSize)
	case res.CRC32 != info.CRC32:
		res.Err = fmt.Errorf("%w: %s: %08x, header says %08x", ErrChecksumMismatch, info.Path, res.CRC32, info.CRC32)
	}

	return res, nil
}
