package main

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

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

	orchestrator, err := setup.BuildOrchestrator(cfg, session)
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

	program := tea.NewProgram(newModel(orchestrator, session.Player), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}
