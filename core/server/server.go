// Package server exposes a running orchestration session over HTTP: a
// message endpoint that plays a round, a history endpoint, and a
// websocket stream of every applied event.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	orchestration "github.com/TitzMcgie/Metavern/core"
	"github.com/TitzMcgie/Metavern/core/timeline"
)

type Server struct {
	orchestrator *orchestration.Orchestrator
	hub          *hub
	upgrader     websocket.Upgrader

	// rounds run one at a time; concurrent message posts queue here.
	mu sync.Mutex
}

// New wraps the orchestrator in an HTTP surface. Wire Broadcast in as
// the orchestrator's event callback so websocket clients see every
// applied event, not just the ones a message request produced.
func New(orchestrator *orchestration.Orchestrator) *Server {
	return &Server{
		orchestrator: orchestrator,
		hub:          newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Broadcast pushes an applied event to every connected websocket
// client. It satisfies the orchestrator's event callback signature.
func (s *Server) Broadcast(event timeline.Event) {
	s.hub.broadcast(event)
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/message", s.handleMessage)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/ws", s.handleWebsocket)
	return mux
}

// Close disconnects every websocket client.
func (s *Server) Close() {
	s.hub.closeAll()
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Events []timeline.Record `json:"events"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, span := tracer.Start(r.Context(), "handle player message")
	defer span.End()

	req := messageRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	playerEvent, err := s.orchestrator.SubmitPlayerMessage(ctx, req.Message)
	if err != nil {
		span.RecordError(err)
		logger.WarnContext(ctx, "rejected player message", "error", err)
		http.Error(w, "Failed to record message", http.StatusUnprocessableEntity)
		return
	}

	applied := []timeline.Record{timeline.EncodeRecord(playerEvent)}
	for _, event := range s.orchestrator.ProcessRound(ctx) {
		applied = append(applied, timeline.EncodeRecord(event))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messageResponse{Events: applied})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.orchestrator.Timeline().Snapshot())
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	s.hub.add(conn)

	// Drain control frames; the stream is one-way.
	go func() {
		defer s.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
