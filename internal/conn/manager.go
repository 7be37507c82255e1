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

// Package conn owns the single outbound TCP socket (C9): dialing,
// reconnect timing, and fanning inbound bytes through the LLP parser to
// the session state machine, one packet at a time, in wire order.
package conn

import (
	"context"
	"net"
	"time"

	"nexusminer/internal/llp"
	"nexusminer/internal/logx"
	"nexusminer/internal/syncx"
)

// PacketHandler receives every fully-framed inbound packet, in order, on
// the connection's single read goroutine.
type PacketHandler interface {
	HandlePacket(p llp.Packet) error
	Reset()
	Connect() error
}

// Manager dials one endpoint, re-dialing on error with a fixed retry
// interval, and serializes all outbound writes on a FIFO queue so at
// most one write is ever in flight.
type Manager struct {
	addr          string
	retryInterval time.Duration
	log           *logx.Logger
	handler       PacketHandler

	mu      syncx.Mutex
	conn    net.Conn
	writeCh chan []byte

	consecutiveFailures int
	unstableThreshold   int
	onUnstable          func(consecutiveFailures int)
}

func NewManager(addr string, retryInterval time.Duration, log *logx.Logger, handler PacketHandler) *Manager {
	return &Manager{
		addr:          addr,
		retryInterval: retryInterval,
		log:           log,
		handler:       handler,
		writeCh:       make(chan []byte, 64),
	}
}

// SetHandler wires the handler after construction, for the common case
// where the handler itself needs the Manager (as a Sender) to build.
func (m *Manager) SetHandler(handler PacketHandler) {
	m.handler = handler
}

// SetUnstableCallback arranges for fn to be called with the running
// count of consecutive reconnect failures every time that count reaches
// a multiple of threshold (a persistent-fault signal distinct from the
// single transient drops Reset already handles). threshold <= 0 disables
// the callback.
func (m *Manager) SetUnstableCallback(threshold int, fn func(consecutiveFailures int)) {
	m.unstableThreshold = threshold
	m.onUnstable = fn
}

// Send frames and queues an outbound packet. It never blocks on the
// network itself — only on the (bounded) queue.
func (m *Manager) Send(p llp.Packet) error {
	buf, err := llp.Frame(p.Opcode, p.Payload)
	if err != nil {
		return err
	}
	if m.log != nil {
		m.log.Net("->", llp.SymbolicName(p.Opcode), len(p.Payload), previewHex(p.Payload))
	}
	m.writeCh <- buf
	return nil
}

// Run dials, authenticates, and pumps inbound bytes until ctx is
// cancelled. On any socket error it emits Disconnected semantics (resets
// the handler) and retries after retryInterval.
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := m.runOnce(ctx); err != nil {
			if m.log != nil {
				m.log.Warnf("connection lost: %v", err)
			}
			if ctx.Err() == nil {
				m.consecutiveFailures++
				if m.onUnstable != nil && m.unstableThreshold > 0 && m.consecutiveFailures%m.unstableThreshold == 0 {
					m.onUnstable(m.consecutiveFailures)
				}
			}
		}

		m.handler.Reset()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.retryInterval):
		}
	}
}

func (m *Manager) runOnce(ctx context.Context) error {
	dialer := net.Dialer{}
	c, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.conn = c
	m.mu.Unlock()
	defer c.Close()

	m.consecutiveFailures = 0

	if m.log != nil {
		m.log.Infof("connected to %s", m.addr)
	}

	writeErrCh := make(chan error, 1)
	go m.writeLoop(c, writeErrCh)

	if err := m.handler.Connect(); err != nil {
		return err
	}

	readErrCh := make(chan error, 1)
	go m.readLoop(c, readErrCh)

	select {
	case err := <-readErrCh:
		return err
	case err := <-writeErrCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) writeLoop(c net.Conn, errCh chan<- error) {
	for buf := range m.writeCh {
		if _, err := c.Write(buf); err != nil {
			errCh <- err
			return
		}
	}
}

func (m *Manager) readLoop(c net.Conn, errCh chan<- error) {
	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 4096)

	for {
		n, err := c.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)

			packets, residual := llp.ParseAll(buf)
			for _, p := range packets {
				if m.log != nil {
					m.log.Net("<-", llp.SymbolicName(p.Opcode), len(p.Payload), previewHex(p.Payload))
				}
				if herr := m.handler.HandlePacket(p); herr != nil && m.log != nil {
					m.log.Warnf("packet handling error: %v", herr)
				}
			}
			if residual > 0 {
				buf = buf[len(buf)-residual:]
			} else {
				buf = buf[:0]
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func previewHex(payload []byte) string {
	n := len(payload)
	if n > 16 {
		n = 16
	}
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 0, n*2)
	for _, b := range payload[:n] {
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0F])
	}
	return string(out)
}
