// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package ies

import "errors"

var (
	// ErrInvalidTable means table header or derived offsets are inconsistent.
	ErrInvalidTable = errors.New("invalid IES table")
	// ErrEncoding means a text field is not valid UTF-8 after de-obfuscation.
	ErrEncoding = errors.New("invalid UTF-8")
)
