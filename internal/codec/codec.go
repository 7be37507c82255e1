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

// Package codec provides the mixed-endianness integer and hash encoding
// used across the wire protocol: framing lengths and block-header fields
// are big-endian, authentication and submission inner fields are
// little-endian. Keep the two families separate rather than picking one
// global default.
package codec

import (
	"encoding/binary"
	"errors"
)

// ErrTruncatedBuffer is returned whenever a decoder runs past the end of
// its input.
var ErrTruncatedBuffer = errors.New("codec: truncated buffer")

func U16BE(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, ErrTruncatedBuffer
	}
	return binary.BigEndian.Uint16(b), nil
}

func U32BE(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, ErrTruncatedBuffer
	}
	return binary.BigEndian.Uint32(b), nil
}

func U64BE(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, ErrTruncatedBuffer
	}
	return binary.BigEndian.Uint64(b), nil
}

func U16LE(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, ErrTruncatedBuffer
	}
	return binary.LittleEndian.Uint16(b), nil
}

func U32LE(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, ErrTruncatedBuffer
	}
	return binary.LittleEndian.Uint32(b), nil
}

func U64LE(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, ErrTruncatedBuffer
	}
	return binary.LittleEndian.Uint64(b), nil
}

func PutU16BE(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func PutU32BE(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func PutU64BE(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func PutU16LE(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func PutU32LE(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func PutU64LE(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
