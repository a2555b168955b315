package openrouter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TitzMcgie/Metavern/core/characters"
	"github.com/TitzMcgie/Metavern/core/oracles"
)

func completionResponse(content string) string {
	return `{"choices": [{"message": {"role": "assistant", "content": ` + content + `}}]}`
}

func TestDecideParsesStructuredDecision(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth header, got %q", got)
		}
		w.Write([]byte(completionResponse(`"{\"decision\": \"speak\", \"dialogue\": \"Who goes there?\", \"priority\": 0.8, \"reasoning\": \"heard a noise\"}"`)))
	}))
	defer server.Close()

	client := NewClient("test-key", WithURL(server.URL))

	decision, err := client.Decide(context.Background(), oracles.DecisionRequest{
		Persona: characters.Persona{Name: "Mira"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Type != oracles.DecisionSpeak {
		t.Fatalf("expected a speak decision, got %q", decision.Type)
	}
	if decision.Dialogue != "Who goes there?" {
		t.Fatalf("expected dialogue to parse, got %q", decision.Dialogue)
	}
	if decision.Priority != 0.8 {
		t.Fatalf("expected priority 0.8, got %v", decision.Priority)
	}
}

func TestDecideStripsMarkdownFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse(`"` + "```json\\n{\\\"decision\\\": \\\"silent\\\", \\\"priority\\\": 0.1}\\n```" + `"`)))
	}))
	defer server.Close()

	client := NewClient("test-key", WithURL(server.URL))

	decision, err := client.Decide(context.Background(), oracles.DecisionRequest{
		Persona: characters.Persona{Name: "Mira"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Type != oracles.DecisionSilent {
		t.Fatalf("expected a silent decision, got %q", decision.Type)
	}
}

func TestDecideClassifiesRateLimitAsQuota(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", WithURL(server.URL))

	_, err := client.Decide(context.Background(), oracles.DecisionRequest{
		Persona: characters.Persona{Name: "Mira"},
	})
	if !errors.Is(err, oracles.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestDecideClassifiesQuotaBodyAsQuota(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "ResourceExhausted: daily quota reached"}`, http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient("test-key", WithURL(server.URL))

	_, err := client.Decide(context.Background(), oracles.DecisionRequest{
		Persona: characters.Persona{Name: "Mira"},
	})
	if !errors.Is(err, oracles.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestDecideClassifiesDeadlineAsTimeout(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background read and
		// notices the client disconnect; otherwise r.Context() is never
		// canceled and server.Close deadlocks.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient("test-key", WithURL(server.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Decide(ctx, oracles.DecisionRequest{
		Persona: characters.Persona{Name: "Mira"},
	})
	if !errors.Is(err, oracles.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatalf("request never reached the server")
	}
}

func TestDecideClassifiesBadJSONAsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse(`"this is not json"`)))
	}))
	defer server.Close()

	client := NewClient("test-key", WithURL(server.URL))

	_, err := client.Decide(context.Background(), oracles.DecisionRequest{
		Persona: characters.Persona{Name: "Mira"},
	})
	if !errors.Is(err, oracles.ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
}

func TestEvaluateParsesBatchedVerdicts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse(`"{\"verdicts\": [{\"name\": \"Mira\", \"objective\": \"find the ledger\", \"status\": \"assigned\"}], \"story_objective_status\": \"continuing\"}"`)))
	}))
	defer server.Close()

	client := NewClient("test-key", WithURL(server.URL))

	result, err := client.Evaluate(context.Background(), oracles.JudgeRequest{
		Characters: []oracles.CharacterProgress{{Name: "Mira"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Verdicts) != 1 || result.Verdicts[0].Status != oracles.ObjectiveAssigned {
		t.Fatalf("expected one assigned verdict, got %+v", result.Verdicts)
	}
	if result.StoryObjective != oracles.ObjectiveContinuing {
		t.Fatalf("expected story objective continuing, got %q", result.StoryObjective)
	}
}
