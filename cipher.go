// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ipf

package ipf

import (
	"fmt"
	"hash/crc32"
	"io"
)

// CipherMode selects the obfuscation transform direction.
type CipherMode uint8

// Cipher modes. Forward and Inverse undo each other at matching offsets.
const (
	// CipherStored passes bytes through unchanged.
	CipherStored CipherMode = iota
	// CipherForward obfuscates plaintext, as the packer does.
	CipherForward
	// CipherInverse restores plaintext from obfuscated bytes.
	CipherInverse
)

// String returns mode name.
func (m CipherMode) String() string {
	switch m {
	case CipherStored:
		return "stored"
	case CipherForward:
		return "forward"
	case CipherInverse:
		return "inverse"
	default:
		return fmt.Sprintf("CipherMode(%d)", uint8(m))
	}
}

// ParseCipherMode converts mode name produced by String back to CipherMode.
func ParseCipherMode(s string) (CipherMode, error) {
	switch s {
	case "stored":
		return CipherStored, nil
	case "forward":
		return CipherForward, nil
	case "inverse":
		return CipherInverse, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCipherMode, s)
	}
}

// DefaultCipherKey is the key shared by IPF packers and readers.
var DefaultCipherKey = []byte{
	0x6F, 0x66, 0x4F, 0x31, 0x61, 0x30, 0x75, 0x65, 0x58, 0x41,
	0x3F, 0x20, 0x5B, 0xFF, 0x73, 0x20, 0x68, 0x20, 0x25, 0x3F,
}

// Initial register values before the key is absorbed.
const (
	keyInit0 = 0x12345678
	keyInit1 = 0x23456789
	keyInit2 = 0x34567890

	keyMultiplier = 0x08088405
)

// cipherKeys is the three-register keystream state.
type cipherKeys [3]uint32

// newCipherKeys seeds registers and absorbs key.
func newCipherKeys(key []byte) cipherKeys {
	k := cipherKeys{keyInit0, keyInit1, keyInit2}
	for _, b := range key {
		k.update(b)
	}

	return k
}

// update advances registers over one plaintext byte.
func (k *cipherKeys) update(b byte) {
	k[0] = crcStep(k[0], b)
	k[1] = (k[1]+(k[0]&0xFF))*keyMultiplier + 1
	k[2] = crcStep(k[2], byte(k[1]>>24))
}

// stream returns the keystream byte for current state.
func (k *cipherKeys) stream() byte {
	t := (k[2] & 0xFFFD) | 2
	return byte((t * (t ^ 1)) >> 8)
}

// crcStep feeds one byte into a reflected IEEE CRC-32 register without pre/post inversion.
func crcStep(crc uint32, b byte) uint32 {
	return crc32.IEEETable[byte(crc)^b] ^ (crc >> 8)
}

// cipherState applies one mode at running entry offsets.
type cipherState struct {
	keys   cipherKeys
	offset int64
	mode   CipherMode
}

// newCipherState returns state positioned at entry offset zero.
func newCipherState(mode CipherMode, key []byte) cipherState {
	return cipherState{keys: newCipherKeys(key), mode: mode}
}

// apply transforms buf in place and advances offset by len(buf).
// Only bytes at even entry offsets are transformed.
func (s *cipherState) apply(buf []byte) {
	if s.mode == CipherStored {
		s.offset += int64(len(buf))
		return
	}

	i := 0
	if s.offset&1 != 0 {
		i = 1
	}
	for ; i < len(buf); i += 2 {
		switch s.mode {
		case CipherInverse:
			buf[i] ^= s.keys.stream()
			s.keys.update(buf[i])
		case CipherForward:
			plain := buf[i]
			buf[i] ^= s.keys.stream()
			s.keys.update(plain)
		}
	}

	s.offset += int64(len(buf))
}

// CipherReader applies the obfuscation transform to bytes read from an underlying stream.
// Offsets are counted from the first byte read. The mode is fixed for the reader lifetime.
type CipherReader struct {
	src   io.Reader
	state cipherState
}

// NewCipherReader wraps src with the given mode. Empty key means DefaultCipherKey.
func NewCipherReader(src io.Reader, mode CipherMode, key []byte) *CipherReader {
	if len(key) == 0 {
		key = DefaultCipherKey
	}

	return &CipherReader{src: src, state: newCipherState(mode, key)}
}

// Read implements io.Reader.
func (r *CipherReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		r.state.apply(p[:n])
	}

	return n, err
}

// Mode returns the transform mode.
func (r *CipherReader) Mode() CipherMode {
	return r.state.mode
}

// Offset returns number of bytes consumed so far.
func (r *CipherReader) Offset() int64 {
	return r.state.offset
}

// Transform applies mode to src as one whole entry starting at offset zero and writes into dst.
// dst must be at least len(src) bytes; dst and src may be the same slice.
func Transform(dst, src []byte, mode CipherMode, key []byte) []byte {
	if len(key) == 0 {
		key = DefaultCipherKey
	}

	dst = dst[:len(src)]
	copy(dst, src)
	state := newCipherState(mode, key)
	state.apply(dst)
	return dst
}
