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

// Package block implements the compact 92-byte block header codec (C4).
//
// An earlier protocol dialect used a 216-byte header with a 1024-bit
// prev_hash and a variable-size merkle root; only the current compact
// layout is implemented here. The older layout is a source-history
// artifact and not a compatibility target (§9).
package block

import (
	"encoding/binary"

	"github.com/duggavo/serializer"

	"nexusminer/internal/codec"
)

// HeaderSize is the fixed on-wire size of a compact block header.
const HeaderSize = 92

// Header is the compact block header: all integer fields are big-endian
// on the wire.
type Header struct {
	Version    uint32
	PrevHash   codec.Hash256
	MerkleRoot codec.Hash256
	Channel    uint32
	Height     uint32
	Bits       uint32
	Nonce      uint64
	Time       uint32
}

// Decode reads a Header from the first HeaderSize bytes of b. Trailing
// bytes beyond HeaderSize are ignored — the caller's frame may carry
// more than just the header and is responsible for validating the
// remainder if it matters to them.
func Decode(b []byte) (Header, error) {
	var h Header
	if len(b) < HeaderSize {
		return h, codec.ErrTruncatedBuffer
	}

	off := 0
	h.Version = binary.BigEndian.Uint32(b[off:])
	off += 4

	prev, err := codec.BytesToHash256(b[off:])
	if err != nil {
		return Header{}, codec.ErrTruncatedBuffer
	}
	h.PrevHash = prev
	off += 32

	merkle, err := codec.BytesToHash256(b[off:])
	if err != nil {
		return Header{}, codec.ErrTruncatedBuffer
	}
	h.MerkleRoot = merkle
	off += 32

	h.Channel = binary.BigEndian.Uint32(b[off:])
	off += 4
	h.Height = binary.BigEndian.Uint32(b[off:])
	off += 4
	h.Bits = binary.BigEndian.Uint32(b[off:])
	off += 4
	h.Nonce = binary.BigEndian.Uint64(b[off:])
	off += 8
	h.Time = binary.BigEndian.Uint32(b[off:])
	off += 4

	if off != HeaderSize {
		return Header{}, codec.ErrTruncatedBuffer
	}

	return h, nil
}

// Encode produces the exact HeaderSize-byte wire representation.
func Encode(h Header) []byte {
	s := serializer.Serializer{Endian: binary.BigEndian}
	s.AddUint32(h.Version)
	s.AddFixedByteArray(h.PrevHash[:], 32)
	s.AddFixedByteArray(h.MerkleRoot[:], 32)
	s.AddUint32(h.Channel)
	s.AddUint32(h.Height)
	s.AddUint32(h.Bits)
	s.AddUint64(h.Nonce)
	s.AddUint32(h.Time)
	return s.Data
}
