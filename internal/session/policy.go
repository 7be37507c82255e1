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

package session

import "time"

// Policy is the tagged-variant replacement (§9 redesign flag) for a
// dynamic-dispatch Protocol base class: solo and pool mode share the
// same framing core and differ only in timers and height strictness.
type Policy interface {
	// StrictGreaterHeight reports whether BLOCK_DATA height must be
	// strictly greater than the tracked height (pool mode) or whether
	// equal is accepted (solo/stateless mode, §9).
	StrictGreaterHeight() bool

	// HeightTickInterval is non-zero only in pool mode, where a periodic
	// GET_HEIGHT timer drives work refresh.
	HeightTickInterval() time.Duration

	// PingInterval is non-zero only in pool mode.
	PingInterval() time.Duration
}

// SoloPolicy is the mandatory direct-protocol mode for solo mining: work
// acquisition is entirely request-driven, no height or ping timers run.
type SoloPolicy struct{}

func (SoloPolicy) StrictGreaterHeight() bool        { return false }
func (SoloPolicy) HeightTickInterval() time.Duration { return 0 }
func (SoloPolicy) PingInterval() time.Duration       { return 0 }

// PoolPolicy models the legacy pool/JSON variant noted in §1 and §9: a
// periodic GET_HEIGHT timer and PING timer run, and height acceptance is
// tightened to strict-greater since the node does not push a refresh on
// channel changes the way the stateless node does.
type PoolPolicy struct {
	GetHeightInterval time.Duration
	PingEvery         time.Duration
}

func (PoolPolicy) StrictGreaterHeight() bool { return true }

func (p PoolPolicy) HeightTickInterval() time.Duration { return p.GetHeightInterval }

func (p PoolPolicy) PingInterval() time.Duration { return p.PingEvery }
