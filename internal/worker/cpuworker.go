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

package worker

import (
	"math/big"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"

	"nexusminer/internal/block"
	"nexusminer/internal/syncx"
)

// crossValidateInterval is how often (in hashes) the search loop flushes
// its local hash count into the shared Stats. The inner hash is
// recomputed only for candidates that pass the prefix filter; there is
// no periodic recomputation on this interval.
const crossValidateInterval = 100_000

// CPUWorker is the illustrative hash-channel search loop described in
// §4.8. The real Nexus hash kernel (Skein-1024 then Keccak-1024) is an
// explicit black box out of this spec's scope (§1); this implementation
// substitutes BLAKE3 as the fast first stage and Keccak (SHA3) as the
// second, preserving the filter-then-verify discipline without claiming
// wire compatibility with a production kernel.
type CPUWorker struct {
	id int

	mu       syncx.Mutex
	stats    Stats
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewCPUWorker(id int) *CPUWorker {
	return &CPUWorker{id: id}
}

func (w *CPUWorker) ID() int { return w.id }

// SetBlock preempts any running search (stop + join) and launches a new
// one seeded at this worker's disjoint nonce sub-range.
func (w *CPUWorker) SetBlock(h block.Header, bits uint32, templateID uint64, onSolution OnSolution) {
	w.stopCurrent()

	stop := make(chan struct{})
	done := make(chan struct{})
	w.stopCh = stop
	w.doneCh = done

	go w.search(h, bits, templateID, onSolution, stop, done)
}

func (w *CPUWorker) stopCurrent() {
	if w.stopCh != nil {
		close(w.stopCh)
		<-w.doneCh
	}
}

func (w *CPUWorker) search(h block.Header, bits uint32, templateID uint64, onSolution OnSolution, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	target := DifficultyTarget(bits)
	prefix := headerPrefix(h)
	midstate := blake3.Sum256(prefix)

	nonce := NonceRangeStart(w.id)
	var hashes uint64
	var bestZeros int

	for {
		select {
		case <-stop:
			return
		default:
		}

		candidate := append(append([]byte{}, midstate[:]...), nonceBytes(nonce)...)
		stage1 := blake3.Sum256(candidate)
		stage2 := sha3.Sum256(stage1[:])

		hashes++
		zeros := leadingZeroBits(stage2[:])
		if zeros > bestZeros {
			bestZeros = zeros
		}

		if zeros >= prefixFilterBits(bits) {
			// cross-validate by recomputing the inner hash before
			// trusting a candidate past the cheap filter.
			confirmStage1 := blake3.Sum256(candidate)
			confirmStage2 := sha3.Sum256(confirmStage1[:])
			if confirmStage1 != stage1 || confirmStage2 != stage2 {
				nonce++
				continue
			}

			if meetsTarget(confirmStage2[:], target) {
				h.Nonce = nonce
				w.recordStats(hashes, bestZeros, 1)
				if onSolution != nil {
					onSolution(Solution{
						WorkerID:   w.id,
						TemplateID: templateID,
						Header:     h,
						MerkleRoot: append([]byte{}, h.MerkleRoot[:]...),
					})
				}
				return
			}
		}

		if hashes%crossValidateInterval == 0 {
			w.recordStats(hashes, bestZeros, 0)
			hashes = 0
		}

		nonce++
	}
}

func (w *CPUWorker) recordStats(hashes uint64, bestZeros int, met uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.HashCount += hashes
	if bestZeros > w.stats.BestLeadingZeros {
		w.stats.BestLeadingZeros = bestZeros
	}
	w.stats.MetDifficulty += met
}

func (w *CPUWorker) Statistics() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *CPUWorker) Close() {
	w.stopCurrent()
}

func headerPrefix(h block.Header) []byte {
	b := block.Encode(h)
	// everything up to the nonce field is the stable midstate input
	return b[:len(b)-12]
}

func nonceBytes(n uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(n >> (8 * i))
	}
	return b
}

func leadingZeroBits(h []byte) int {
	count := 0
	for _, b := range h {
		if b == 0 {
			count += 8
			continue
		}
		for mask := byte(0x80); mask > 0; mask >>= 1 {
			if b&mask != 0 {
				return count
			}
			count++
		}
		return count
	}
	return count
}

// prefixFilterBits is the cheap pre-filter threshold: roughly half the
// bits the final target requires, cutting full verification work.
func prefixFilterBits(bits uint32) int {
	full := 256 - DifficultyTarget(bits).BitLen()
	half := full / 2
	if half < 1 {
		return 1
	}
	return half
}

// DifficultyTarget decodes the compact "bits" field into a 256-bit
// target using the common exponent/mantissa compact encoding: the high
// byte is the exponent (in bytes), the low three bytes are the mantissa.
// The exact bit semantics for the prime channel are explicitly left to
// the worker's own difficulty decoder (§9 open question); this decoder
// only serves the illustrative hash-channel worker.
func DifficultyTarget(bits uint32) *big.Int {
	exponent := bits >> 24
	mantissa := big.NewInt(int64(bits & 0x00FFFFFF))

	if exponent <= 3 {
		mantissa.Rsh(mantissa, uint(8*(3-exponent)))
		return mantissa
	}

	return mantissa.Lsh(mantissa, uint(8*(exponent-3)))
}

func meetsTarget(hash []byte, target *big.Int) bool {
	h := new(big.Int).SetBytes(hash)
	return h.Cmp(target) <= 0
}
