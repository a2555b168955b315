// Package setup wires a playable session from environment variables and
// a session file, shared by the terminal and server binaries.
package setup

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	orchestration "github.com/TitzMcgie/Metavern/core"
	"github.com/TitzMcgie/Metavern/core/characters"
	"github.com/TitzMcgie/Metavern/core/oracles"
	"github.com/TitzMcgie/Metavern/core/oracles/googleai"
	"github.com/TitzMcgie/Metavern/core/oracles/openrouter"
	"github.com/TitzMcgie/Metavern/core/storage/jsonfile"
	"github.com/TitzMcgie/Metavern/core/storage/mongo"
	"github.com/TitzMcgie/Metavern/core/storage/sqlite"
	"github.com/TitzMcgie/Metavern/core/story"
)

// EnvConfig is the process-level configuration: which oracle backend to
// talk to, which store to persist into, and where the session file
// lives.
type EnvConfig struct {
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	Oracle           string `env:"METAVERN_ORACLE" envDefault:"openrouter"`
	Model            string `env:"METAVERN_MODEL"`
	Storage          string `env:"METAVERN_STORAGE" envDefault:"jsonfile"`
	MongoURI         string `env:"MONGODB_URI"`
	SessionFile      string `env:"METAVERN_SESSION" envDefault:"session.yaml"`
	Addr             string `env:"METAVERN_ADDR" envDefault:":8080"`
}

func ParseEnv() (EnvConfig, error) {
	cfg := EnvConfig{}
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SessionConfig describes one playable session: who the player is,
// where the cast and story definitions live, and the opening scene.
type SessionConfig struct {
	Player        string `yaml:"player"`
	CharactersDir string `yaml:"characters_dir"`
	StoryFile     string `yaml:"story_file,omitempty"`
	StoragePath   string `yaml:"storage_path,omitempty"`
	Resume        string `yaml:"resume,omitempty"`

	Scene struct {
		Location    string   `yaml:"location"`
		Description string   `yaml:"description"`
		Cast        []string `yaml:"cast"`
	} `yaml:"scene"`
}

func LoadSession(path string) (SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SessionConfig{}, fmt.Errorf("reading session file: %w", err)
	}

	session := SessionConfig{}
	if err := yaml.Unmarshal(data, &session); err != nil {
		return SessionConfig{}, fmt.Errorf("parsing session file: %w", err)
	}
	if session.Player == "" {
		session.Player = "Player"
	}
	if session.CharactersDir == "" {
		return SessionConfig{}, fmt.Errorf("session file: characters_dir is required")
	}
	if session.Resume == "" && session.Scene.Location == "" {
		return SessionConfig{}, fmt.Errorf("session file: an opening scene location is required")
	}
	return session, nil
}

// BuildOrchestrator assembles a fully wired orchestrator: loaded cast,
// oracle clients, optional story arc, and a persistence store.
func BuildOrchestrator(cfg EnvConfig, session SessionConfig, extra ...orchestration.OrchestratorOption) (*orchestration.Orchestrator, error) {
	personas, err := characters.LoadPersonas(session.CharactersDir)
	if err != nil {
		return nil, err
	}
	cast := make([]*characters.Character, 0, len(personas))
	for _, persona := range personas {
		character, err := characters.New(persona)
		if err != nil {
			return nil, err
		}
		cast = append(cast, character)
	}

	decision, narrator, judge, err := BuildOracles(cfg)
	if err != nil {
		return nil, err
	}

	opts := []orchestration.OrchestratorOption{
		orchestration.WithCharacters(cast...),
		orchestration.WithPlayerName(session.Player),
		orchestration.WithDecisionOracle(decision),
		orchestration.WithNarratorOracle(narrator),
		orchestration.WithJudgeOracle(judge),
	}

	if session.StoryFile != "" {
		arc, err := story.Load(session.StoryFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, orchestration.WithStory(arc))
	}

	store, err := BuildStore(cfg, session)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, orchestration.WithStore(store))
	}

	opts = append(opts, extra...)
	return orchestration.NewOrchestrator(opts...), nil
}

// BuildOracles returns one backend client serving all three oracle
// roles.
func BuildOracles(cfg EnvConfig) (oracles.DecisionOracle, oracles.NarratorOracle, oracles.JudgeOracle, error) {
	switch strings.ToLower(cfg.Oracle) {
	case "openrouter":
		if cfg.OpenRouterAPIKey == "" {
			return nil, nil, nil, fmt.Errorf("OPENROUTER_API_KEY is required for the openrouter oracle")
		}
		opts := []openrouter.ClientOption{}
		if cfg.Model != "" {
			opts = append(opts, openrouter.WithModel(cfg.Model))
		}
		client := openrouter.NewClient(cfg.OpenRouterAPIKey, opts...)
		return client, client, client, nil
	case "googleai":
		if cfg.GeminiAPIKey == "" {
			return nil, nil, nil, fmt.Errorf("GEMINI_API_KEY is required for the googleai oracle")
		}
		opts := []googleai.ClientOption{}
		if cfg.Model != "" {
			opts = append(opts, googleai.WithModel(cfg.Model))
		}
		client, err := googleai.NewClient(context.Background(), cfg.GeminiAPIKey, opts...)
		if err != nil {
			return nil, nil, nil, err
		}
		return client, client, client, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown oracle backend %q", cfg.Oracle)
}

func BuildStore(cfg EnvConfig, session SessionConfig) (orchestration.Store, error) {
	switch strings.ToLower(cfg.Storage) {
	case "none":
		return nil, nil
	case "jsonfile":
		dir := session.StoragePath
		if dir == "" {
			dir = "sessions"
		}
		return jsonfile.New(dir)
	case "sqlite":
		path := session.StoragePath
		if path == "" {
			path = "metavern.db"
		}
		return sqlite.Open(path)
	case "mongo":
		return mongo.Connect(context.Background(), cfg.MongoURI)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
}
