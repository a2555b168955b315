package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	orchestration "github.com/TitzMcgie/Metavern/core"
	"github.com/TitzMcgie/Metavern/core/server"
	"github.com/TitzMcgie/Metavern/core/timeline"
	"github.com/TitzMcgie/Metavern/internal/setup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := setup.ParseEnv()
	if err != nil {
		return err
	}
	session, err := setup.LoadSession(cfg.SessionFile)
	if err != nil {
		return err
	}

	// The websocket hub does not exist until the server does, and the
	// server needs the orchestrator, so the callback indirects through
	// this variable.
	var srv *server.Server
	orchestrator, err := setup.BuildOrchestrator(cfg, session,
		orchestration.WithEventCallback(func(event timeline.Event) {
			if srv != nil {
				srv.Broadcast(event)
			}
		}))
	if err != nil {
		return err
	}

	ctx := context.Background()
	if session.Resume != "" {
		if err := orchestrator.Resume(ctx, session.Resume); err != nil {
			return fmt.Errorf("resuming session %q: %w", session.Resume, err)
		}
	} else {
		if err := orchestrator.OpenScene(ctx,
			session.Scene.Location, session.Scene.Description,
			session.Scene.Cast...); err != nil {
			return fmt.Errorf("opening scene: %w", err)
		}
	}

	srv = server.New(orchestrator)
	defer srv.Close()

	log.Println("Serving on", cfg.Addr)
	return http.ListenAndServe(cfg.Addr, srv.Handler())
}
