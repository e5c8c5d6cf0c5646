package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/praxos/cortex/internal/config"
	"github.com/praxos/cortex/internal/coordinator"
	"github.com/praxos/cortex/internal/knowledge"
	"github.com/praxos/cortex/internal/llm"
	"github.com/praxos/cortex/internal/llm/providers"
	"github.com/praxos/cortex/internal/similarity"
	"github.com/praxos/cortex/internal/specialist"
	"github.com/praxos/cortex/internal/types"
	"github.com/praxos/cortex/internal/workspace"
)

// runtime assembles the configured stores, providers, and coordinator.
type runtime struct {
	cfg        *config.Config
	provider   llm.Provider
	embedder   similarity.Embedder
	workspaces *workspace.FileStore
	entries    knowledge.Store
	index      similarity.Index
	coord      *coordinator.Coordinator
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	root, err := expandHome(cfg.Storage.RootDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}

	provider, err := providers.New(cfg.LLM)
	if err != nil {
		return nil, err
	}
	embedder, err := similarity.NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}

	workspaces, err := workspace.NewFileStore(filepath.Join(root, "workspaces"))
	if err != nil {
		return nil, err
	}

	tracer := otel.Tracer("cortex")

	sqliteStore, err := knowledge.NewSqliteStore(resolvePath(root, cfg.Storage.KnowledgeDB))
	if err != nil {
		return nil, err
	}
	var entries knowledge.Store = knowledge.NewTracedStore(sqliteStore, tracer)

	index, err := similarity.NewSqliteIndex(resolvePath(root, cfg.Storage.IndexDB), embedder)
	if err != nil {
		entries.Close()
		return nil, err
	}

	taskOpts := []specialist.Option{
		specialist.WithMaxRetries(cfg.Specialist.MaxRetries),
		specialist.WithBackoff(time.Duration(cfg.Specialist.BackoffMillis) * time.Millisecond),
		specialist.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds) * time.Second),
		specialist.WithLogger(slog.Default()),
	}

	stages := map[types.Stage]coordinator.Runner{
		types.StageAnalyze:   specialist.NewStorageSpecialist(provider, taskOpts...),
		types.StageRetrieve:  specialist.NewRetrievalSpecialist(provider, taskOpts...),
		types.StageIntegrate: specialist.NewIntegrationSpecialist(provider, taskOpts...),
	}
	stageNames := make([]string, 0, len(stages))
	for stage := range stages {
		stageNames = append(stageNames, stage.String())
	}

	coord, err := coordinator.New(
		workspaces,
		entries,
		index,
		stages,
		specialist.NewDecisionStep(provider, stageNames, taskOpts...),
		coordinator.WithBoundaryDetector(specialist.NewBoundaryDetector(provider, taskOpts...)),
		coordinator.WithMaxTurns(cfg.Coordinator.MaxTurns),
		coordinator.WithRetrievalLimit(cfg.Coordinator.RetrievalLimit),
		coordinator.WithLogger(slog.Default()),
		coordinator.WithTracer(tracer),
	)
	if err != nil {
		entries.Close()
		index.Close()
		return nil, err
	}

	return &runtime{
		cfg:        cfg,
		provider:   provider,
		embedder:   embedder,
		workspaces: workspaces,
		entries:    entries,
		index:      index,
		coord:      coord,
	}, nil
}

func (r *runtime) Close() {
	r.index.Close()
	r.entries.Close()
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
