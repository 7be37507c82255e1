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

// Package template validates block templates received from the node and
// tracks their lifecycle through to submission (C6). It exclusively owns
// the current template; workers only ever receive a value copy.
package template

import (
	"errors"
	"sync/atomic"
	"time"

	"nexusminer/internal/block"
	"nexusminer/internal/logx"
)

// State is a position in the EMPTY -> ... -> {STALE|SUBMITTED} lifecycle.
type State int

const (
	Empty State = iota
	Pending
	Received
	Validated
	Active
	Stale
	Submitted
)

var (
	ErrParse          = errors.New("template: payload did not decode to a header")
	ErrChannelMismatch = errors.New("template: channel does not match session channel")
	ErrStaleHeight    = errors.New("template: height regression")
	ErrZeroBits       = errors.New("template: bits is zero")
	ErrZeroMerkle     = errors.New("template: merkle root is all zeros")
	ErrNoTemplate     = errors.New("template: no validated/active template to submit against")
	ErrBadMerkleLen   = errors.New("template: merkle root must be 32 or 64 bytes")
)

// Template is a validated header plus session metadata.
type Template struct {
	Header    block.Header
	State     State
	ReceivedAt time.Time
	SourceAddr string
	SessionID  uint32
	id         uint64 // monotonic identity, used to reject stale-solution races
}

// FeedFunc is invoked exactly once per successfully validated template.
type FeedFunc func(h block.Header, bits uint32)

// Stats are atomic, Relaxed-ordering counters.
type Stats struct {
	Received  atomic.Uint64
	Validated atomic.Uint64
	Rejected  atomic.Uint64
	Stale     atomic.Uint64
	Fed       atomic.Uint64
	Verified  atomic.Uint64
	Submitted atomic.Uint64

	ReadTimeSumNanos       atomic.Uint64
	ValidationTimeSumNanos atomic.Uint64
}

// Interface is the template read/feed pipeline (C6).
type Interface struct {
	log *logx.Logger

	channel       uint32
	sessionID     uint32
	currentHeight uint32

	current  Template
	nextID   uint64
	feed     FeedFunc

	Stats Stats
}

// New constructs a template interface bound to a mining channel (1=prime,
// 2=hash). The session id is attached later via BindSession once auth
// completes.
func New(channel uint32, log *logx.Logger, feed FeedFunc) *Interface {
	return &Interface{channel: channel, log: log, feed: feed}
}

// BindSession records the node-assigned session id (§8 invariant 6).
func (t *Interface) BindSession(sessionID uint32) {
	t.sessionID = sessionID
}

// SessionID returns the currently bound session id.
func (t *Interface) SessionID() uint32 {
	return t.sessionID
}

// CurrentHeight returns the session height the interface is tracking.
func (t *Interface) CurrentHeight() uint32 {
	return t.currentHeight
}

// ResetHeight clears the tracked height, used on reconnect (S6).
func (t *Interface) ResetHeight() {
	t.currentHeight = 0
}

// validateHeight rejects height regressions. strictGreater is set by
// pool-mode policies and also rejects height == current; solo/stateless
// mode accepts it (§9 "Height acceptance after auth").
func (t *Interface) validateHeight(height uint32, strictGreater bool) error {
	if strictGreater {
		if height <= t.currentHeight {
			return ErrStaleHeight
		}
		return nil
	}
	if height < t.currentHeight {
		return ErrStaleHeight
	}
	return nil
}

// ApplyBlockData runs the C4 decode and the §4.6 validation chain over a
// BLOCK_DATA payload, in order, failing fast on the first violated check.
func (t *Interface) ApplyBlockData(payload []byte, strictGreaterHeight bool) error {
	start := time.Now()
	defer func() {
		t.Stats.ReadTimeSumNanos.Add(uint64(time.Since(start).Nanoseconds()))
	}()

	t.Stats.Received.Add(1)

	h, err := block.Decode(payload)
	if err != nil {
		t.Stats.Rejected.Add(1)
		return ErrParse
	}

	vStart := time.Now()
	defer func() {
		t.Stats.ValidationTimeSumNanos.Add(uint64(time.Since(vStart).Nanoseconds()))
	}()

	if h.Channel != t.channel {
		t.Stats.Rejected.Add(1)
		return ErrChannelMismatch
	}

	if err := t.validateHeight(h.Height, strictGreaterHeight); err != nil {
		t.Stats.Stale.Add(1)
		return err
	}

	if h.Bits == 0 {
		t.Stats.Rejected.Add(1)
		return ErrZeroBits
	}

	if h.MerkleRoot.IsZero() {
		t.Stats.Rejected.Add(1)
		return ErrZeroMerkle
	}

	t.Stats.Validated.Add(1)
	t.currentHeight = h.Height
	t.nextID++

	t.current = Template{
		Header:     h,
		State:      Active,
		ReceivedAt: time.Now(),
		SessionID:  t.sessionID,
		id:         t.nextID,
	}

	t.Stats.Fed.Add(1)
	if t.feed != nil {
		t.feed(h, h.Bits)
	}

	return nil
}

// MarkStale transitions the current ACTIVE template to STALE, preventing
// further submissions derived from it.
func (t *Interface) MarkStale() {
	if t.current.State == Active {
		t.current.State = Stale
		t.Stats.Stale.Add(1)
		if t.log != nil {
			t.log.Debugf("template height=%d marked stale", t.current.Header.Height)
		}
	}
}

// VerifySubmission confirms a worker's solution is eligible to be
// submitted: a VALIDATED or ACTIVE template must exist and the merkle
// root must be 32 or 64 bytes. A zero nonce is not rejected.
func (t *Interface) VerifySubmission(merkleRoot []byte, nonce uint64) error {
	if t.current.State != Active && t.current.State != Validated {
		return ErrNoTemplate
	}
	if len(merkleRoot) != 32 && len(merkleRoot) != 64 {
		return ErrBadMerkleLen
	}
	_ = nonce // zero nonce is valid, nothing to check
	t.Stats.Verified.Add(1)
	return nil
}

// MarkSubmitted transitions the current template to SUBMITTED after a
// successful send.
func (t *Interface) MarkSubmitted() {
	t.current.State = Submitted
	t.Stats.Submitted.Add(1)
}

// CurrentID exposes the template identity workers preempted mid-search
// must compare their solution against (§5 ordering guarantee).
func (t *Interface) CurrentID() uint64 {
	return t.current.id
}

// Current returns a value copy of the template's header and its bits
// target, for dispatch to workers.
func (t *Interface) Current() (block.Header, uint32, bool) {
	if t.current.State != Active {
		return block.Header{}, 0, false
	}
	return t.current.Header, t.current.Header.Bits, true
}
