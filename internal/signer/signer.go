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

// Package signer builds the canonical authentication and block-submission
// messages and invokes the Falcon oracle to sign them (C5), recording
// lock-free approximate metrics along the way.
package signer

import (
	"sync"
	"sync/atomic"
	"time"

	"nexusminer/internal/codec"
	"nexusminer/internal/falcon"
	"nexusminer/internal/logx"
)

// Kind labels a signing call for the per-kind counters; it carries no
// semantic weight beyond metrics.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindBlock          Kind = "block"
	KindPayload        Kind = "payload"
)

// typicalSigSizeMin/Max bound the Falcon-512 signature sizes observed in
// practice; sizes outside this range are logged, never rejected.
const (
	typicalSigSizeMin = 600
	typicalSigSizeMax = 700
)

// Wrapper owns a Falcon key pair and offers the three typed signing
// operations the session state machine needs.
type Wrapper struct {
	keys *falcon.KeyPair
	log  *logx.Logger

	totalSigs   atomic.Uint64
	totalMicros atomic.Uint64
	byKind      sync.Map // Kind -> *atomic.Uint64
}

// New wraps an existing key pair. The wrapper does not own the key pair's
// lifetime; callers must still call keys.Destroy() when done.
func New(keys *falcon.KeyPair, log *logx.Logger) *Wrapper {
	return &Wrapper{keys: keys, log: log}
}

// SignAuthentication signs address_bytes ∥ timestamp_u64_le with no
// length prefix, per §4.5.
func (w *Wrapper) SignAuthentication(address string, timestamp uint64) ([]byte, error) {
	msg := append([]byte(address), codec.PutU64LE(timestamp)...)
	return w.sign(msg, KindAuthentication)
}

// SignBlock signs merkle_root ∥ nonce_u64_le, per §4.5.
func (w *Wrapper) SignBlock(merkleRoot [64]byte, nonce uint64) ([]byte, error) {
	msg := append(append([]byte{}, merkleRoot[:]...), codec.PutU64LE(nonce)...)
	return w.sign(msg, KindBlock)
}

// SignPayload is the generic escape hatch; kind is metadata-only.
func (w *Wrapper) SignPayload(data []byte, kind Kind) ([]byte, error) {
	return w.sign(data, kind)
}

func (w *Wrapper) sign(msg []byte, kind Kind) ([]byte, error) {
	start := time.Now()
	sig, err := w.keys.Sign(msg)
	elapsed := time.Since(start)

	if err != nil {
		if w.log != nil {
			w.log.Errf("signing failed (kind=%s): %v", kind, err)
		}
		return nil, err
	}

	if len(sig) < typicalSigSizeMin || len(sig) > typicalSigSizeMax {
		if w.log != nil {
			w.log.Warnf("signature size %d outside typical Falcon-512 range [%d,%d]", len(sig), typicalSigSizeMin, typicalSigSizeMax)
		}
	}

	w.totalSigs.Add(1)
	w.totalMicros.Add(uint64(elapsed.Microseconds()))
	w.counter(kind).Add(1)

	return sig, nil
}

func (w *Wrapper) counter(kind Kind) *atomic.Uint64 {
	v, _ := w.byKind.LoadOrStore(kind, &atomic.Uint64{})
	return v.(*atomic.Uint64)
}

// Stats is a point-in-time, approximate (Relaxed-ordering-equivalent)
// snapshot of signing activity.
type Stats struct {
	TotalSignatures    uint64
	TotalSigningMicros uint64
	ByKind             map[Kind]uint64
}

func (w *Wrapper) Stats() Stats {
	s := Stats{
		TotalSignatures:    w.totalSigs.Load(),
		TotalSigningMicros: w.totalMicros.Load(),
		ByKind:             map[Kind]uint64{},
	}
	w.byKind.Range(func(k, v any) bool {
		s.ByKind[k.(Kind)] = v.(*atomic.Uint64).Load()
		return true
	})
	return s
}
