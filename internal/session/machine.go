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

// Package session implements the core miner-to-node session state
// machine (C7): the auth handshake, channel negotiation, work polling,
// submission, and reconnect recovery.
package session

import (
	"errors"
	"time"

	"nexusminer/internal/codec"
	"nexusminer/internal/falcon"
	"nexusminer/internal/llp"
	"nexusminer/internal/logx"
	"nexusminer/internal/signer"
	"nexusminer/internal/template"
	"nexusminer/internal/worker"
)

var (
	ErrAuthRejected   = errors.New("session: node rejected authentication")
	ErrConnectionLost = errors.New("session: connection lost")
	ErrEmptyPayload   = errors.New("session: required payload absent")
	ErrNotAuthenticated = errors.New("session: packet sent before authentication completed")
)

// Sender is the minimal outbound seam the machine needs; internal/conn's
// Manager implements it by queuing onto its single-writer FIFO.
type Sender interface {
	Send(pkt llp.Packet) error
}

// Clock is injected so tests can control the auth timestamp.
type Clock func() uint64

func defaultClock() uint64 { return uint64(time.Now().Unix()) }

// Machine is one session's worth of state, bound to one connection.
type Machine struct {
	state  State
	policy Policy

	sender Sender
	log    *logx.Logger
	clock  Clock

	address string
	channel uint8
	keys    *falcon.KeyPair
	signer  *signer.Wrapper

	tmpl    *template.Interface
	workers *worker.Manager

	sessionID     uint32
	authenticated bool

	getBlockRetries int

	pendingHeight  uint32
	pendingNonce   uint64

	timerStop chan struct{}

	onAuthFailed   func(reason string)
	onSubmit       func(height uint32, channel uint8, nonce uint64)
	onSubmitResult func(accepted bool, height uint32, channel uint8, nonce uint64)
}

// Config bundles the construction-time dependencies for a Machine.
type Config struct {
	Policy  Policy
	Sender  Sender
	Log     *logx.Logger
	Clock   Clock
	Address string
	Channel uint8
	Keys    *falcon.KeyPair
	Signer  *signer.Wrapper
	Tmpl    *template.Interface
	Workers *worker.Manager

	// OnAuthFailed and OnSubmitResult are optional observers for the
	// ambient alerting/history surfaces; the state machine itself does
	// not depend on them.
	OnAuthFailed   func(reason string)
	OnSubmit       func(height uint32, channel uint8, nonce uint64)
	OnSubmitResult func(accepted bool, height uint32, channel uint8, nonce uint64)
}

func New(cfg Config) *Machine {
	clock := cfg.Clock
	if clock == nil {
		clock = defaultClock
	}
	return &Machine{
		state:   Init,
		policy:  cfg.Policy,
		sender:  cfg.Sender,
		log:     cfg.Log,
		clock:   clock,
		address: cfg.Address,
		channel: cfg.Channel,
		keys:    cfg.Keys,
		signer:  cfg.Signer,
		tmpl:    cfg.Tmpl,
		workers: cfg.Workers,

		onAuthFailed:   cfg.OnAuthFailed,
		onSubmit:       cfg.OnSubmit,
		onSubmitResult: cfg.OnSubmitResult,
	}
}

func (m *Machine) State() State { return m.state }

// Connect drives INIT -> CONNECTED -> AWAITING_AUTH_RESULT by composing
// and sending the AUTH_RESPONSE packet (§4.7 step 1-3).
func (m *Machine) Connect() error {
	m.state = Connected

	timestamp := m.clock()
	sig, err := m.signer.SignAuthentication(m.address, timestamp)
	if err != nil {
		return errors.Join(falcon.ErrCryptoFailure, err)
	}

	payload := make([]byte, 0, 2+falcon.PublicKeySize+2+len(sig))
	payload = append(payload, codec.PutU16LE(uint16(falcon.PublicKeySize))...)
	payload = append(payload, m.keys.Public[:]...)
	payload = append(payload, codec.PutU16LE(uint16(len(sig)))...)
	payload = append(payload, sig...)

	if err := m.sender.Send(llp.Packet{Opcode: llp.AuthResponse, Payload: payload}); err != nil {
		return errors.Join(ErrConnectionLost, err)
	}

	m.state = AwaitingAuthResult
	m.startTimers()
	return nil
}

// startTimers launches the policy's GET_HEIGHT/PING tickers (§4.7, pool
// mode only — SoloPolicy reports zero intervals and nothing is started).
// Ticks only ever call Sender.Send, never HandlePacket, so they cannot
// race with the single-threaded event loop's own state transitions.
func (m *Machine) startTimers() {
	m.stopTimers()
	if m.policy == nil {
		return
	}

	heightInterval := m.policy.HeightTickInterval()
	pingInterval := m.policy.PingInterval()
	if heightInterval <= 0 && pingInterval <= 0 {
		return
	}

	stop := make(chan struct{})
	m.timerStop = stop

	if heightInterval > 0 {
		go m.runTicker(heightInterval, llp.Packet{Opcode: llp.GetHeight}, stop)
	}
	if pingInterval > 0 {
		go m.runTicker(pingInterval, llp.Packet{Opcode: llp.Ping}, stop)
	}
}

func (m *Machine) runTicker(interval time.Duration, pkt llp.Packet, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if err := m.sender.Send(pkt); err != nil && m.log != nil {
				m.log.Warnf("timer send of %s failed: %v", llp.SymbolicName(pkt.Opcode), err)
			}
		}
	}
}

// stopTimers halts any running policy tickers; safe to call when none
// are running.
func (m *Machine) stopTimers() {
	if m.timerStop != nil {
		close(m.timerStop)
		m.timerStop = nil
	}
}

// HandlePacket is the single entry point the connection manager drives
// with every framed inbound packet, in wire order, on one goroutine.
func (m *Machine) HandlePacket(p llp.Packet) error {
	if p.Opcode == llp.Ping {
		if m.log != nil {
			m.log.Tracef("ping in state %s", m.state)
		}
		return nil
	}

	switch p.Opcode {
	case llp.AuthChallenge, llp.AuthInit:
		if m.log != nil {
			m.log.Warnf("legacy challenge-response opcode %s seen; direct protocol does not negotiate it, ignoring", llp.SymbolicName(p.Opcode))
		}
		return nil

	case llp.AuthResult:
		return m.handleAuthResult(p)

	case llp.ChannelAck:
		return m.handleChannelAck(p)

	case llp.BlockData:
		return m.handleBlockData(p)

	case llp.Accept, llp.Reject:
		return m.handleSubmitResult(p)

	case llp.BlockHeight:
		return nil // pool-mode informational push; solo mode ignores it

	default:
		if m.log != nil {
			m.log.Warnf("unexpected opcode %s in state %s", llp.SymbolicName(p.Opcode), m.state)
		}
		return nil
	}
}

func (m *Machine) handleAuthResult(p llp.Packet) error {
	if m.state != AwaitingAuthResult {
		return nil
	}
	if len(p.Payload) < 1 {
		return ErrEmptyPayload
	}

	status := p.Payload[0]
	if status != 0x01 {
		m.state = AuthFailed
		reason := "node rejected the miner's public key or signature"
		if m.log != nil {
			m.log.Critical(
				"authentication rejected by node",
				"likely causes: miner public key not whitelisted, stale node version, malformed signature",
				"the connection is left open; the miner authenticates again only after it drops and is re-dialed",
			)
		}
		if m.onAuthFailed != nil {
			m.onAuthFailed(reason)
		}
		return ErrAuthRejected
	}

	m.authenticated = true
	m.state = Authenticated

	if len(p.Payload) >= 5 {
		sid, err := codec.U32LE(p.Payload[1:5])
		if err == nil {
			m.sessionID = sid
			if m.tmpl != nil {
				m.tmpl.BindSession(sid)
			}
		}
	}

	return m.sendSetChannel()
}

func (m *Machine) sendSetChannel() error {
	m.state = AwaitingChannelAck
	return m.sender.Send(llp.Packet{Opcode: llp.SetChannel, Payload: []byte{m.channel}})
}

func (m *Machine) handleChannelAck(p llp.Packet) error {
	if len(p.Payload) >= 1 && p.Payload[0] != m.channel && m.log != nil {
		m.log.Warnf("node acked channel %d, requested %d", p.Payload[0], m.channel)
	}
	m.state = Ready
	return m.requestWork()
}

func (m *Machine) requestWork() error {
	m.state = AwaitingTemplate
	return m.sender.Send(llp.Packet{Opcode: llp.GetBlock})
}

func (m *Machine) handleBlockData(p llp.Packet) error {
	if len(p.Payload) == 0 {
		return ErrEmptyPayload
	}

	strict := m.policy != nil && m.policy.StrictGreaterHeight()
	err := m.tmpl.ApplyBlockData(p.Payload, strict)
	if err != nil {
		if errors.Is(err, template.ErrStaleHeight) {
			m.getBlockRetries++
			return m.requestWork()
		}
		m.getBlockRetries++
		if m.log != nil {
			m.log.Warnf("template rejected: %v", err)
		}
		return m.requestWork()
	}

	m.getBlockRetries = 0
	m.state = Mining

	h, bits, ok := m.tmpl.Current()
	if !ok {
		return nil
	}
	if m.workers != nil {
		m.workers.Dispatch(h, bits, m.tmpl.CurrentID(), nil)
	}
	return nil
}

// SubmitSolution builds and signs the SUBMIT_BLOCK payload (§3) for a
// worker's reported solution and transmits it. The submission is aborted
// (not downgraded) if the signer is unavailable.
func (m *Machine) SubmitSolution(sol worker.Solution) error {
	if sol.TemplateID != m.tmpl.CurrentID() {
		if m.log != nil {
			m.log.Warnf("dropping solution for superseded template %d (current %d)", sol.TemplateID, m.tmpl.CurrentID())
		}
		return template.ErrNoTemplate
	}
	if err := m.tmpl.VerifySubmission(sol.MerkleRoot, sol.Header.Nonce); err != nil {
		if m.log != nil {
			m.log.Warnf("dropping solution: %v", err)
		}
		return err
	}

	// the wire submission payload always carries a 64-byte merkle root;
	// a 256-bit (32-byte) root is right-zero-padded to fit.
	var merkle64 [64]byte
	copy(merkle64[:], sol.MerkleRoot)

	if m.signer == nil {
		if m.log != nil {
			m.log.Critical("signer unavailable in an authenticated session; aborting submission")
		}
		return ErrNotAuthenticated
	}

	timestamp := m.clock()
	sig, err := m.signer.SignPayload(append(append([]byte{}, merkle64[:]...), codec.PutU64LE(sol.Header.Nonce)...), signer.KindBlock)
	if err != nil {
		return errors.Join(falcon.ErrCryptoFailure, err)
	}

	payload := make([]byte, 0, 82+len(sig))
	payload = append(payload, merkle64[:]...)
	payload = append(payload, codec.PutU64LE(sol.Header.Nonce)...)
	payload = append(payload, codec.PutU64LE(timestamp)...)
	payload = append(payload, codec.PutU16LE(uint16(len(sig)))...)
	payload = append(payload, sig...)

	if err := m.sender.Send(llp.Packet{Opcode: llp.SubmitBlock, Payload: payload}); err != nil {
		return errors.Join(ErrConnectionLost, err)
	}

	m.tmpl.MarkSubmitted()
	m.state = AwaitingResult
	m.pendingHeight = sol.Header.Height
	m.pendingNonce = sol.Header.Nonce
	if m.onSubmit != nil {
		m.onSubmit(sol.Header.Height, m.channel, sol.Header.Nonce)
	}
	return nil
}

func (m *Machine) handleSubmitResult(p llp.Packet) error {
	if m.onSubmitResult != nil {
		m.onSubmitResult(p.Opcode == llp.Accept, m.pendingHeight, m.channel, m.pendingNonce)
	}
	m.state = Ready
	return m.requestWork()
}

// Reset returns the machine to a pre-handshake state after a connection
// loss (S6): authenticated=false, session_id=0, current_height=0, and
// any in-flight template is marked stale.
func (m *Machine) Reset() {
	m.stopTimers()
	m.state = Disconnected
	m.authenticated = false
	m.sessionID = 0
	if m.tmpl != nil {
		m.tmpl.MarkStale()
		m.tmpl.ResetHeight()
	}
}

func (m *Machine) SessionID() uint32 { return m.sessionID }
func (m *Machine) Authenticated() bool { return m.authenticated }
