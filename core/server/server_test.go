package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	orchestration "github.com/TitzMcgie/Metavern/core"
	"github.com/TitzMcgie/Metavern/core/characters"
	"github.com/TitzMcgie/Metavern/core/oracles"
	"github.com/TitzMcgie/Metavern/core/timeline"
)

type scriptedDecisionOracle struct {
	script map[string]oracles.Decision
}

func (s *scriptedDecisionOracle) Decide(_ context.Context, request oracles.DecisionRequest) (*oracles.Decision, error) {
	decision, ok := s.script[request.Persona.Name]
	if !ok {
		return &oracles.Decision{Type: oracles.DecisionSilent}, nil
	}
	return &decision, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	mira, err := characters.New(characters.Persona{Name: "Mira"})
	if err != nil {
		t.Fatalf("creating character: %v", err)
	}

	o := orchestration.NewOrchestrator(
		orchestration.WithConfig(&orchestration.Config{MaxConsecutiveTurns: 1, PriorityJitter: 0}),
		orchestration.WithCharacters(mira),
		orchestration.WithPlayerName("Player"),
		orchestration.WithDecisionOracle(&scriptedDecisionOracle{script: map[string]oracles.Decision{
			"Mira": {Type: oracles.DecisionSpeak, Dialogue: "Welcome back.", Priority: 0.9},
		}}),
	)
	if err := o.OpenScene(context.Background(), "tavern", "a slow evening", "Mira"); err != nil {
		t.Fatalf("opening scene: %v", err)
	}
	return New(o)
}

func TestMessageEndpointPlaysARound(t *testing.T) {
	server := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/message", "application/json",
		strings.NewReader(`{"message":"hello there [waves]"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := struct {
		Events []timeline.Record `json:"events"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body.Events) < 2 {
		t.Fatalf("expected the player message and a round event, got %d events", len(body.Events))
	}

	player := body.Events[0]
	if player.Type != timeline.KindMessage || player.Character != "Player" {
		t.Fatalf("expected the player message first, got %+v", player)
	}
	if player.Dialogue != "hello there" || player.ActionDescription != "waves" {
		t.Fatalf("expected the bracketed action to be split out, got %+v", player)
	}

	reply := body.Events[len(body.Events)-1]
	if reply.Character != "Mira" || reply.Dialogue != "Welcome back." {
		t.Fatalf("expected Mira's reply to close the round, got %+v", reply)
	}
}

func TestMessageEndpointRejectsBadRequests(t *testing.T) {
	server := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/message")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", resp.StatusCode)
	}

	for _, payload := range []string{`not json`, `{"message":""}`} {
		resp, err := http.Post(ts.URL+"/api/message", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", payload, resp.StatusCode)
		}
	}
}

func TestHistoryEndpointReturnsTheSnapshot(t *testing.T) {
	server := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/history")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	history := timeline.History{}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decoding history: %v", err)
	}
	if len(history.Events) != 2 {
		t.Fatalf("expected the scene and the entry, got %d events", len(history.Events))
	}
	if len(history.CurrentParticipants) != 1 || history.CurrentParticipants[0] != "Mira" {
		t.Fatalf("expected Mira on scene, got %v", history.CurrentParticipants)
	}
}

func TestWebsocketClientsReceiveBroadcasts(t *testing.T) {
	server := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()
	defer server.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	event := timeline.NewMessageEvent("Mira", "Did you hear that?", "")
	server.Broadcast(event)

	record := timeline.Record{}
	if err := conn.ReadJSON(&record); err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}
	if record.Type != timeline.KindMessage || record.Character != "Mira" {
		t.Fatalf("expected the broadcast message, got %+v", record)
	}
	if record.Dialogue != "Did you hear that?" {
		t.Fatalf("expected the dialogue to survive the wire, got %q", record.Dialogue)
	}
}
