// Package overlay serves scanner output to overlay clients over HTTP
// and WebSocket.
package overlay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/arclens/arclens/internal/scanner"
	"github.com/arclens/arclens/internal/trace"
)

// actionColors maps recommendation actions to overlay accent colors.
var actionColors = map[string]string{
	"SELL":    "#FFD700",
	"RECYCLE": "#00CED1",
	"KEEP":    "#32CD32",
	"USE":     "#FF69B4",
	"TRASH":   "#FF4444",
	"UNKNOWN": "#888888",
}

// ColorFor returns the accent color for an action, gray for anything
// unrecognized.
func ColorFor(action string) string {
	key := strings.ToUpper(strings.TrimSpace(action))
	if idx := strings.IndexAny(key, " ,;"); idx > 0 {
		key = key[:idx]
	}
	if c, ok := actionColors[key]; ok {
		return c
	}
	return actionColors["UNKNOWN"]
}

// Message types sent to clients.
type StatusMessage struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

type RecommendationMessage struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	Found      bool   `json:"found"`
	Action     string `json:"action,omitempty"`
	RecycleFor string `json:"recycle_for,omitempty"`
	KeepFor    string `json:"keep_for,omitempty"`
	Color      string `json:"color"`
}

// command is what clients may send over the socket.
type command struct {
	Type string `json:"type"`
}

// Controller is the scanner surface the server needs.
type Controller interface {
	Events() <-chan scanner.Event
	Snapshot() scanner.Stats
	State() scanner.State
	Pause()
	Resume()
}

// Server broadcasts scanner events to connected overlay clients.
type Server struct {
	ctrl  Controller
	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
}

// New creates the server and starts the broadcaster.
func New(ctrl Controller) *Server {
	s := &Server{
		ctrl:  ctrl,
		conns: make(map[*websocket.Conn]struct{}),
	}
	go s.broadcast()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/pause", s.handlePause)
	mux.HandleFunc("POST /api/resume", s.handleResume)

	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	ctx := r.Context()
	log := trace.Logger(ctx)
	log.Info("overlay client connected", "remote", r.RemoteAddr)

	// Greet the new client with the current state so the overlay does
	// not sit blank until the next transition. Written before the
	// connection joins the broadcast set so nothing else writes to it
	// concurrently.
	_ = wsjson.Write(ctx, conn, StatusMessage{Type: "status", Status: s.ctrl.State().String()})

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	for {
		var cmd command
		if err := wsjson.Read(ctx, conn, &cmd); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		switch cmd.Type {
		case "pause":
			s.ctrl.Pause()
		case "resume":
			s.ctrl.Resume()
		default:
			log.Debug("unknown client command", "type", cmd.Type)
		}
	}
}

func (s *Server) broadcast() {
	for ev := range s.ctrl.Events() {
		var msg any
		switch ev := ev.(type) {
		case scanner.StatusEvent:
			msg = StatusMessage{Type: "status", Status: ev.Status}
		case scanner.RecommendationEvent:
			msg = toRecommendation(ev)
		default:
			continue
		}

		s.mu.RLock()
		for conn := range s.conns {
			go func(c *websocket.Conn, m any) {
				_ = wsjson.Write(context.Background(), c, m)
			}(conn, msg)
		}
		s.mu.RUnlock()
	}
}

func toRecommendation(ev scanner.RecommendationEvent) RecommendationMessage {
	msg := RecommendationMessage{
		Type:  "recommendation",
		Name:  ev.Name,
		Found: ev.Found,
		Color: actionColors["UNKNOWN"],
	}
	if ev.Item != nil {
		msg.Action = ev.Item.Action
		msg.RecycleFor = ev.Item.RecycleFor
		msg.KeepFor = ev.Item.KeepFor
		msg.Color = ColorFor(ev.Item.Action)
	}
	return msg
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.ctrl.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"state":          s.ctrl.State().String(),
		"trigger_scans":  stats.TriggerScans,
		"tooltip_scans":  stats.TooltipScans,
		"items_detected": stats.ItemsDetected,
		"items_found":    stats.ItemsFound,
		"last_item":      stats.LastItem,
		"last_item_time": stats.LastItemTime,
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Pause()
	trace.Logger(r.Context()).Info("scanner paused via api")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "paused"})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Resume()
	trace.Logger(r.Context()).Info("scanner resumed via api")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "resumed"})
}
