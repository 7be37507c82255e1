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

// Package statusapi exposes the miner's point-in-time state over HTTP:
// a polled JSON snapshot and a push channel for dashboards that want
// live updates without re-polling.
package statusapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"nexusminer/internal/history"
	"nexusminer/internal/session"
	"nexusminer/internal/worker"
)

// Snapshot is the JSON document served at /stats and pushed to every
// live websocket subscriber.
type Snapshot struct {
	State         string               `json:"state"`
	SessionID     uint32               `json:"session_id"`
	Authenticated bool                 `json:"authenticated"`
	Workers       map[int]worker.Stats `json:"workers"`
	Recent        []history.Entry      `json:"recent_submissions"`
	Timestamp     int64                `json:"timestamp"`
}

// Source is the minimal read surface the API needs from the running
// miner; session.Machine satisfies it directly.
type Source interface {
	State() session.State
	SessionID() uint32
	Authenticated() bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server serves the gin-routed status API and fans snapshots out to
// connected websocket clients.
type Server struct {
	machine Source
	workers *worker.Manager
	hist    *history.Store
	now     func() int64

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func New(machine Source, workers *worker.Manager, hist *history.Store) *Server {
	return &Server{
		machine: machine,
		workers: workers,
		hist:    hist,
		now:     func() int64 { return time.Now().Unix() },
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Next()
	}
}

// Router builds the gin engine; callers run it with http.ListenAndServe
// or r.Run directly.
func (s *Server) Router() *gin.Engine {
	gin.SetMode("release")
	r := gin.Default()
	r.Use(cors())

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.GET("/stats", func(c *gin.Context) {
		c.Header("Cache-Control", "max-age=2")
		c.JSON(http.StatusOK, s.snapshot())
	})

	r.GET("/ws", func(c *gin.Context) {
		s.handleWebsocket(c.Writer, c.Request)
	})

	return r
}

func (s *Server) snapshot() Snapshot {
	snap := Snapshot{
		State:         s.machine.State().String(),
		SessionID:     s.machine.SessionID(),
		Authenticated: s.machine.Authenticated(),
		Timestamp:     s.now(),
	}
	if s.workers != nil {
		snap.Workers = s.workers.Statistics()
	}
	if s.hist != nil {
		if recent, err := s.hist.Recent(20); err == nil {
			snap.Recent = recent
		}
	}
	return snap
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	// drain and discard inbound frames so the client's close handshake
	// (and any keepalive pings) are observed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes the current snapshot to every connected websocket
// client; call on a ticker from the event loop's caller, not from the
// event loop itself.
func (s *Server) Broadcast() {
	snap := s.snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		if err := c.WriteJSON(snap); err != nil {
			c.Close()
			delete(s.clients, c)
		}
	}
}

// Run starts broadcasting snapshots on interval until stop is closed.
func (s *Server) Run(interval time.Duration, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.Broadcast()
		}
	}
}
