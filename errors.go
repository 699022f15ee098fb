// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package ipf

import (
	"errors"

	"github.com/woozymasta/ipf/ies"
)

// Sentinel errors for IPF operations. Use errors.Is in callers.
var (
	// ErrInvalidArchive means the IPF footer is missing, short, or carries a bad signature,
	// or a nested table has inconsistent derived offsets.
	ErrInvalidArchive = errors.New("invalid IPF archive")
	// ErrFileNotFound means the requested entry index or path does not exist in the archive.
	ErrFileNotFound = errors.New("file not found in archive")
	// ErrEncoding means a text field is not valid UTF-8 after de-obfuscation.
	ErrEncoding = ies.ErrEncoding
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrClosed means the reader or resource is already closed.
	ErrClosed = errors.New("reader or resource already closed")
	// ErrInvalidEntryOffset means an entry payload range falls outside the source.
	ErrInvalidEntryOffset = errors.New("invalid entry offset")
	// ErrInvalidStoredRule means one or more stored-extension rules are invalid.
	ErrInvalidStoredRule = errors.New("invalid stored rules")
	// ErrUnknownCipherMode means a cipher mode value is outside the known set.
	ErrUnknownCipherMode = errors.New("unknown cipher mode")
	// ErrChecksumMismatch means decoded entry content does not match the stored CRC32.
	ErrChecksumMismatch = errors.New("entry checksum mismatch")
	// ErrSizeMismatch means decoded entry content does not match the stored uncompressed size.
	ErrSizeMismatch = errors.New("entry size mismatch")
	// ErrInvalidExtractPath means archive entry path is invalid for extraction destination.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrExtractPathOutsideRoot means resolved extraction path escapes destination root.
	ErrExtractPathOutsideRoot = errors.New("extract path escapes destination root")
)
