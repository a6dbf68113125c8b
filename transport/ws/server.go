// Package ws streams lithosphere frames to browser viewers over websockets
// and accepts their playback controls.
package ws

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"tectonics/core"
	"tectonics/simulation"
)

// MeshData is sent once per connection so clients can lay frames over the grid
type MeshData struct {
	Type      string       `json:"type"`
	Vertices  [][3]float64 `json:"vertices"`
	Neighbors [][]int      `json:"neighbors"`
}

// FrameData wraps a frame for the wire
type FrameData struct {
	Type string `json:"type"`
	simulation.Frame
}

// Control is a message from a client. Unset fields leave the setting alone.
type Control struct {
	TimestepMy *float64 `json:"timestepMy"`
	Paused     *bool    `json:"paused"`
}

// Controls are the playback settings clients can change
type Controls struct {
	mu         sync.RWMutex
	timestepMy float64
	paused     bool
}

func NewControls(timestepMy float64) *Controls {
	return &Controls{timestepMy: timestepMy}
}

// Get returns the current step length in megayears and whether playback is paused
func (c *Controls) Get() (timestepMy float64, paused bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timestepMy, c.paused
}

func (c *Controls) apply(msg Control) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.TimestepMy != nil && *msg.TimestepMy >= 0 && !math.IsInf(*msg.TimestepMy, 0) {
		c.timestepMy = *msg.TimestepMy
	}
	if msg.Paused != nil {
		c.paused = *msg.Paused
	}
}

type Server struct {
	mesh     MeshData
	controls *Controls
	log      *slog.Logger
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	latestMu sync.RWMutex
	latest   []byte
}

func NewServer(grid *core.Grid, controls *Controls, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	vertices := make([][3]float64, len(grid.Positions))
	for i, p := range grid.Positions {
		vertices[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return &Server{
		mesh:     MeshData{Type: "mesh", Vertices: vertices, Neighbors: grid.Neighbors},
		controls: controls,
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Handler serves the websocket at /ws and the latest frame as JSON at /frame
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/frame", s.handleFrame)
	return mux
}

func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	s.latestMu.RLock()
	latest := s.latest
	s.latestMu.RUnlock()
	if latest == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(latest)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	connMutex.Lock()
	err = conn.WriteJSON(s.mesh)
	if err == nil {
		s.latestMu.RLock()
		if s.latest != nil {
			err = conn.WriteMessage(websocket.TextMessage, s.latest)
		}
		s.latestMu.RUnlock()
	}
	connMutex.Unlock()
	if err != nil {
		s.log.Warn("websocket initial write failed", "err", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = connMutex
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	for {
		var msg Control
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read ended", "err", err)
			}
			return
		}
		s.controls.apply(msg)
		step, paused := s.controls.Get()
		s.log.Info("controls changed", "timestep_my", step, "paused", paused)
	}
}

// Broadcast sends a frame to every client and keeps it for /frame and
// late joiners. Clients that fail to receive it are dropped.
func (s *Server) Broadcast(frame simulation.Frame) error {
	payload, err := json.Marshal(FrameData{Type: "frame", Frame: frame})
	if err != nil {
		return err
	}
	s.latestMu.Lock()
	s.latest = payload
	s.latestMu.Unlock()

	var failed []*websocket.Conn
	s.clientsMu.RLock()
	for client, mutex := range s.clients {
		mutex.Lock()
		err := client.WriteMessage(websocket.TextMessage, payload)
		mutex.Unlock()
		if err != nil {
			s.log.Warn("websocket write failed", "err", err)
			failed = append(failed, client)
		}
	}
	s.clientsMu.RUnlock()

	if len(failed) > 0 {
		s.clientsMu.Lock()
		for _, client := range failed {
			client.Close()
			delete(s.clients, client)
		}
		s.clientsMu.Unlock()
	}
	return nil
}
