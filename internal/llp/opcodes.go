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

// Opcode is the single canonical wire opcode. The node historically
// defined aliases for some of these (ACCEPT == BLOCK_ACCEPTED == 200); we
// expose one name per value and leave the rest to SymbolicName.
type Opcode uint8

const (
	BlockData    Opcode = 0
	SubmitBlock  Opcode = 1
	BlockHeight  Opcode = 2
	SetChannel   Opcode = 3
	BlockReward  Opcode = 4
	GetBlock     Opcode = 129
	GetHeight    Opcode = 130
	GetReward    Opcode = 131
	Accept       Opcode = 200
	Reject       Opcode = 201
	ChannelAck   Opcode = 206
	AuthInit     Opcode = 207
	AuthChallenge Opcode = 208
	AuthResponse Opcode = 209
	AuthResult   Opcode = 210
	SessionStart Opcode = 211
	SessionKeepalive Opcode = 212
	Ping         Opcode = 253
	Close        Opcode = 254
)

// Class buckets an opcode into its framing rule family (§4.3).
type Class int

const (
	ClassUnknown Class = iota
	ClassData          // 0-127, length:u32_be + payload, length > 0
	ClassRequest       // 128-199, no length field
	ClassResponse      // 200-206, no length field
	ClassAuth          // 207-212, length:u32_be + payload, length > 0
	ClassControl       // 253, 254, no length field
)

func ClassOf(op Opcode) Class {
	switch {
	case op <= 127:
		return ClassData
	case op >= 128 && op <= 199:
		return ClassRequest
	case op >= 200 && op <= 206:
		return ClassResponse
	case op >= 207 && op <= 212:
		return ClassAuth
	case op == Ping || op == Close:
		return ClassControl
	default:
		return ClassUnknown
	}
}

// HasLengthField reports whether the class carries a 4-byte big-endian
// length prefix on the wire.
func (c Class) HasLengthField() bool {
	return c == ClassData || c == ClassAuth
}

var symbolicNames = map[Opcode]string{
	BlockData:        "BLOCK_DATA",
	SubmitBlock:      "SUBMIT_BLOCK",
	BlockHeight:      "BLOCK_HEIGHT",
	SetChannel:       "SET_CHANNEL",
	BlockReward:      "BLOCK_REWARD",
	GetBlock:         "GET_BLOCK",
	GetHeight:        "GET_HEIGHT",
	GetReward:        "GET_REWARD",
	Accept:           "ACCEPT",
	Reject:           "REJECT",
	ChannelAck:       "CHANNEL_ACK",
	AuthInit:         "AUTH_INIT",
	AuthChallenge:    "AUTH_CHALLENGE",
	AuthResponse:     "AUTH_RESPONSE",
	AuthResult:       "AUTH_RESULT",
	SessionStart:     "SESSION_START",
	SessionKeepalive: "SESSION_KEEPALIVE",
	Ping:             "PING",
	Close:            "CLOSE",
}

// SymbolicName returns the canonical name for logging; unrecognized
// opcodes fall back to "UNKNOWN" rather than panicking.
func SymbolicName(op Opcode) string {
	if name, ok := symbolicNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}
