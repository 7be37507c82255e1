// Copyright (C) 2026 The Nexus Miner Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package codec

import (
	"encoding/hex"
	"errors"
)

// Hash256, Hash512 and Hash1024 are fixed-width opaque hash values. They
// carry no interpretation beyond their byte length.
type (
	Hash256  [32]byte
	Hash512  [64]byte
	Hash1024 [128]byte
)

var ErrInvalidHexLength = errors.New("codec: hex string has odd length")

// HexToBytes decodes a case-insensitive, even-length hex string. On any
// error the returned slice is nil.
func HexToBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrInvalidHexLength
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

func BytesToHash256(b []byte) (Hash256, error) {
	var h Hash256
	if len(b) < 32 {
		return h, ErrTruncatedBuffer
	}
	copy(h[:], b[:32])
	return h, nil
}

func BytesToHash512(b []byte) (Hash512, error) {
	var h Hash512
	if len(b) < 64 {
		return h, ErrTruncatedBuffer
	}
	copy(h[:], b[:64])
	return h, nil
}

func BytesToHash1024(b []byte) (Hash1024, error) {
	var h Hash1024
	if len(b) < 128 {
		return h, ErrTruncatedBuffer
	}
	copy(h[:], b[:128])
	return h, nil
}

func (h Hash256) IsZero() bool {
	for _, v := range h {
		if v != 0 {
			return false
		}
	}
	return true
}

func (h Hash256) String() string { return hex.EncodeToString(h[:]) }
func (h Hash512) String() string { return hex.EncodeToString(h[:]) }
