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

package llp

import (
	"errors"

	"nexusminer/internal/codec"
)

// ErrInvalidOpcode is returned when a parsed or about-to-be-sent packet
// violates its class's framing rules.
var ErrInvalidOpcode = errors.New("llp: invalid opcode framing")

// ErrIncomplete signals the parser needs more bytes; the caller must not
// advance its read offset.
var ErrIncomplete = errors.New("llp: incomplete packet")

// Packet is a single framed unit: opcode plus optional payload.
type Packet struct {
	Opcode  Opcode
	Payload []byte
}

// Validate applies the §4.3 validity rules for a packet about to be sent
// or one just parsed from the wire.
func Validate(p Packet) error {
	class := ClassOf(p.Opcode)
	switch class {
	case ClassData, ClassAuth:
		if len(p.Payload) == 0 {
			return ErrInvalidOpcode
		}
	case ClassRequest, ClassResponse, ClassControl:
		if len(p.Payload) != 0 {
			return ErrInvalidOpcode
		}
	default:
		return ErrInvalidOpcode
	}
	return nil
}

// Frame serializes a packet for the wire: opcode byte, optional
// big-endian u32 length, payload.
func Frame(opcode Opcode, payload []byte) ([]byte, error) {
	p := Packet{Opcode: opcode, Payload: payload}
	if err := Validate(p); err != nil {
		return nil, err
	}

	class := ClassOf(opcode)
	if !class.HasLengthField() {
		return []byte{byte(opcode)}, nil
	}

	out := make([]byte, 0, 5+len(payload))
	out = append(out, byte(opcode))
	out = append(out, codec.PutU32BE(uint32(len(payload)))...)
	out = append(out, payload...)
	return out, nil
}

// Parse attempts to read a single packet starting at buf[0]. It returns
// the packet and the number of bytes consumed, or ErrIncomplete if buf
// does not yet hold a full packet (the caller must not discard buf), or
// ErrInvalidOpcode if the opcode byte is recognized but the framing
// violates its class's rules. Parse never reads past len(buf).
func Parse(buf []byte) (Packet, int, error) {
	if len(buf) < 1 {
		return Packet{}, 0, ErrIncomplete
	}

	op := Opcode(buf[0])
	class := ClassOf(op)

	if !class.HasLengthField() {
		if class == ClassUnknown {
			return Packet{}, 0, ErrInvalidOpcode
		}
		return Packet{Opcode: op}, 1, nil
	}

	const headerLen = 5
	if len(buf) < headerLen {
		return Packet{}, 0, ErrIncomplete
	}

	length, err := codec.U32BE(buf[1:headerLen])
	if err != nil {
		return Packet{}, 0, ErrIncomplete
	}
	if length == 0 {
		return Packet{}, 0, ErrInvalidOpcode
	}

	total := headerLen + int(length)
	if len(buf) < total {
		return Packet{}, 0, ErrIncomplete
	}

	payload := make([]byte, length)
	copy(payload, buf[headerLen:total])

	return Packet{Opcode: op, Payload: payload}, total, nil
}

// ParseAll drives Parse over buf until it hits ErrIncomplete, returning
// every fully-framed packet and the count of leftover unconsumed bytes.
// Invalid packets are dropped (per §7, InvalidOpcode is locally
// recoverable) and parsing continues from the next byte.
func ParseAll(buf []byte) (packets []Packet, residual int) {
	offset := 0
	for offset < len(buf) {
		p, n, err := Parse(buf[offset:])
		switch {
		case err == nil:
			packets = append(packets, p)
			offset += n
		case errors.Is(err, ErrIncomplete):
			return packets, len(buf) - offset
		case errors.Is(err, ErrInvalidOpcode):
			offset++
		default:
			offset++
		}
	}
	return packets, 0
}
