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

// Package syncx wraps go-deadlock's Mutex and RWMutex so the mutexes
// shared between goroutines (per-worker counters, the connection
// manager's socket handle) get deadlock detection for free.
package syncx

import deadlock "github.com/sasha-s/go-deadlock"

type RWMutex struct {
	mu deadlock.RWMutex
}

func (r *RWMutex) Lock()    { r.mu.Lock() }
func (r *RWMutex) Unlock()  { r.mu.Unlock() }
func (r *RWMutex) RLock()   { r.mu.RLock() }
func (r *RWMutex) RUnlock() { r.mu.RUnlock() }

type Mutex struct {
	mu deadlock.Mutex
}

func (m *Mutex) Lock()   { m.mu.Lock() }
func (m *Mutex) Unlock() { m.mu.Unlock() }
