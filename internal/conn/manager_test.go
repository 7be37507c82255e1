package conn

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"nexusminer/internal/llp"
)

type recordingHandler struct {
	packets []llp.Packet
	resets  int
}

func (r *recordingHandler) HandlePacket(p llp.Packet) error {
	r.packets = append(r.packets, p)
	return nil
}
func (r *recordingHandler) Reset()        { r.resets++ }
func (r *recordingHandler) Connect() error { return nil }

func TestSendFramesAndQueuesPacket(t *testing.T) {
	h := &recordingHandler{}
	m := NewManager("unused:0", time.Second, nil, h)

	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()
	m.conn = client

	go func() {
		m.writeLoop(client, make(chan error, 1))
	}()

	if err := m.Send(llp.Packet{Opcode: llp.GetBlock}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	buf := make([]byte, 1)
	if _, err := server.Read(buf); err != nil {
		t.Fatalf("server read: %v", err)
	}
	if buf[0] != byte(llp.GetBlock) {
		t.Fatalf("expected GET_BLOCK opcode byte, got %x", buf[0])
	}
}

func TestReadLoopDispatchesReassembledPackets(t *testing.T) {
	h := &recordingHandler{}
	m := NewManager("unused:0", time.Second, nil, h)

	server, client := net.Pipe()
	defer server.Close()

	errCh := make(chan error, 1)
	go m.readLoop(client, errCh)

	framed, err := llp.Frame(llp.GetBlock, nil)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}

	go func() {
		server.Write(framed)
		server.Close()
	}()

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for readLoop to observe EOF")
	}

	if len(h.packets) != 1 || h.packets[0].Opcode != llp.GetBlock {
		t.Fatalf("expected one GET_BLOCK packet dispatched, got %+v", h.packets)
	}
}

// TestUnstableCallbackFiresAfterThreshold exercises repeated dial
// failures against a port nothing is listening on and checks the
// callback first fires when the count reaches the configured threshold.
func TestUnstableCallbackFiresAfterThreshold(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	h := &recordingHandler{}
	m := NewManager(addr, 5*time.Millisecond, nil, h)

	var mu sync.Mutex
	var calls []int
	m.SetUnstableCallback(2, func(n int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, n)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	m.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) == 0 {
		t.Fatalf("expected unstable callback to fire at least once")
	}
	if calls[0] != 2 {
		t.Fatalf("expected first callback at count 2, got %d", calls[0])
	}
}
