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
	"nexusminer/internal/block"
	"nexusminer/internal/syncx"
)

// ExternalWorker satisfies the Worker interface on behalf of a GPU or
// FPGA backend. Real device I/O (CUDA buffers, device handles) is an
// explicit non-goal of this spec (§9: "the core spec does not require
// device I/O"); this adapter exists to show the uniform surface over
// heterogeneous engines holds even when nothing runs locally — a device
// driver would plug into the goroutine SetBlock starts, in place of the
// no-op wait there, scoped so
// the device buffer it acquires is released on every exit path.
type ExternalWorker struct {
	id       int
	hardware string

	mu     syncx.Mutex
	stats  Stats
	stopCh chan struct{}
	doneCh chan struct{}
}

func NewExternalWorker(id int, hardware string) *ExternalWorker {
	return &ExternalWorker{id: id, hardware: hardware}
}

func (w *ExternalWorker) ID() int { return w.id }

func (w *ExternalWorker) SetBlock(h block.Header, bits uint32, templateID uint64, onSolution OnSolution) {
	w.stopCurrent()

	stop := make(chan struct{})
	done := make(chan struct{})
	w.stopCh = stop
	w.doneCh = done

	// A real backend would acquire its device buffer here and release it
	// on every path out of this goroutine, including preemption via stop.
	go func() {
		defer close(done)
		<-stop
	}()
}

func (w *ExternalWorker) stopCurrent() {
	if w.stopCh != nil {
		close(w.stopCh)
		<-w.doneCh
	}
}

func (w *ExternalWorker) Statistics() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *ExternalWorker) Close() {
	w.stopCurrent()
}
