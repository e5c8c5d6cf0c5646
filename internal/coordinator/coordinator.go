package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/praxos/cortex/internal/knowledge"
	"github.com/praxos/cortex/internal/similarity"
	"github.com/praxos/cortex/internal/specialist"
	"github.com/praxos/cortex/internal/types"
	"github.com/praxos/cortex/internal/workspace"
)

// Runner is the slice of a specialist task the coordinator depends on.
type Runner interface {
	Name() string
	Run(ctx context.Context, input specialist.Input) (specialist.Result, error)
}

// Coordinator owns one workspace scope at a time and sequences specialist
// tasks over it. It is re-entrant: the next stage is chosen per turn by a
// decision step, not by fixed sequencing, so a cycle may revisit earlier
// stages when new information warrants it.
//
// All mutations to a scope are serialized through a per-scope lock around
// the load, mutate, save cycle. The workspace is saved exactly once per
// Advance call, after the terminal decision, so a cancelled or failed
// turn never leaves a partially merged document.
type Coordinator struct {
	workspaces workspace.Store
	entries    knowledge.Store
	index      similarity.Index

	stages   map[types.Stage]Runner
	boundary Runner
	decider  Runner

	initialStage   types.Stage
	maxTurns       int
	retrievalLimit int

	logger *slog.Logger
	tracer trace.Tracer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxTurns bounds the number of stage executions per Advance call.
func WithMaxTurns(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxTurns = n
		}
	}
}

// WithRetrievalLimit bounds similarity results per retrieval.
func WithRetrievalLimit(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.retrievalLimit = n
		}
	}
}

// WithInitialStage sets the stage a fresh cycle starts from.
func WithInitialStage(stage types.Stage) Option {
	return func(c *Coordinator) { c.initialStage = stage }
}

// WithBoundaryDetector sets the episode-boundary detector run before the
// stage loop. Without one, every message continues the current episode.
func WithBoundaryDetector(detector Runner) Option {
	return func(c *Coordinator) { c.boundary = detector }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets the tracer for turn spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Coordinator) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// New creates a Coordinator over its stores and an explicit stage
// registry. The registry is a construction parameter, not global state,
// so instances stay independently testable.
func New(
	workspaces workspace.Store,
	entries knowledge.Store,
	index similarity.Index,
	stages map[types.Stage]Runner,
	decider Runner,
	opts ...Option,
) (*Coordinator, error) {
	if len(stages) == 0 {
		return nil, types.NewError(ErrCodeStageDecisionInvalid, "coordinator requires at least one registered stage")
	}
	if decider == nil {
		return nil, types.NewError(ErrCodeStageDecisionInvalid, "coordinator requires a decision step")
	}
	for stage := range stages {
		if stage.IsTerminal() {
			return nil, types.NewError(ErrCodeStageDecisionInvalid,
				fmt.Sprintf("terminal sentinel %s cannot be a registered stage", stage))
		}
	}

	c := &Coordinator{
		workspaces:     workspaces,
		entries:        entries,
		index:          index,
		stages:         stages,
		decider:        decider,
		initialStage:   types.StageAnalyze,
		maxTurns:       8,
		retrievalLimit: similarity.DefaultLimit,
		logger:         slog.Default(),
		tracer:         noop.NewTracerProvider().Tracer("cortex.coordinator"),
		locks:          make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, ok := c.stages[c.initialStage]; !ok {
		return nil, NewStageDecisionError(c.initialStage)
	}
	return c, nil
}

// Stages returns the registered stage names, for rendering into the
// decision step's instructions.
func (c *Coordinator) Stages() []string {
	names := make([]string, 0, len(c.stages))
	for stage := range c.stages {
		names = append(names, stage.String())
	}
	return names
}

// Advance runs one full coordination cycle for a scope and returns the
// terminal decision. It is the sole entry point for callers.
func (c *Coordinator) Advance(ctx context.Context, scope, message string) (*types.StageDecision, error) {
	lock := c.scopeLock(scope)
	lock.Lock()
	defer lock.Unlock()

	ctx, span := c.tracer.Start(ctx, "cortex.coordinator.advance",
		trace.WithAttributes(attribute.String("coordinator.scope", scope)))
	defer span.End()

	decision, err := c.advanceLocked(ctx, scope, message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("coordinator.terminal", decision.NextStage.String()))
	return decision, nil
}

func (c *Coordinator) advanceLocked(ctx context.Context, scope, message string) (*types.StageDecision, error) {
	ws, err := c.workspaces.Load(ctx, scope)
	if err != nil {
		return nil, err
	}

	if c.boundary != nil {
		ws, err = c.applyBoundary(ctx, ws, message)
		if err != nil {
			return nil, err
		}
	}

	var retrieved []specialist.Retrieved
	var decision *types.StageDecision
	current := c.initialStage

	for turn := 0; turn < c.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, NewTurnCancelledError(err)
		}

		task, ok := c.stages[current]
		if !ok {
			return nil, NewStageDecisionError(current)
		}

		c.logger.Debug("running stage",
			"scope", scope,
			"stage", current,
			"turn", turn)

		result, err := task.Run(ctx, specialist.Input{
			Workspace: ws.Clone(),
			Retrieved: retrieved,
			Message:   message,
		})
		if err != nil {
			// A specialist failure ends the cycle but not the process.
			if types.HasCode(err, specialist.ErrCodeSpecialistFailed) {
				c.logger.Warn("stage specialist failed",
					"scope", scope,
					"stage", current,
					"error", err)
				decision = types.TerminalBlocked(
					fmt.Sprintf("stage %s failed: %v", current, err))
				break
			}
			return nil, err
		}

		retrieved, err = c.merge(ctx, ws, result, retrieved)
		if err != nil {
			return nil, err
		}

		decision, err = c.decide(ctx, ws, retrieved, message, current)
		if err != nil {
			return nil, err
		}
		if decision.IsTerminal() {
			break
		}
		if _, ok := c.stages[decision.NextStage]; !ok {
			return nil, NewStageDecisionError(decision.NextStage)
		}
		if decision.Reset {
			ws = c.resetWorkspace(ws, nil)
		}
		current = decision.NextStage
	}

	// The decider never reached a terminal stage within the turn budget.
	if decision == nil || !decision.IsTerminal() {
		decision = types.TerminalBlocked(fmt.Sprintf(
			"stage budget of %d turns exhausted without a terminal decision", c.maxTurns))
	}

	// The single externally visible mutation of the turn.
	if err := c.workspaces.Save(ctx, ws); err != nil {
		return nil, err
	}

	c.logger.Info("cycle complete",
		"scope", scope,
		"terminal", decision.NextStage,
		"explanation", decision.Explanation)
	return decision, nil
}

// applyBoundary runs the episode detector and resets the workspace when a
// new episode starts, re-seeding only the sections the detector marked
// preserve.
func (c *Coordinator) applyBoundary(ctx context.Context, ws *workspace.Workspace, message string) (*workspace.Workspace, error) {
	result, err := c.boundary.Run(ctx, specialist.Input{Workspace: ws.Clone(), Message: message})
	if err != nil {
		// An undecidable boundary defaults to continuing the episode.
		c.logger.Warn("boundary detection failed, continuing episode", "error", err)
		return ws, nil
	}

	verdict, ok := result.(*specialist.BoundaryResult)
	if !ok {
		return nil, types.NewError(specialist.ErrCodeSchemaViolation,
			fmt.Sprintf("boundary detector returned %T", result))
	}
	if !verdict.NewEpisode {
		return ws, nil
	}

	c.logger.Info("new episode detected",
		"scope", ws.Scope,
		"preserve", verdict.PreserveSections,
		"reasoning", verdict.Reasoning)
	return c.resetWorkspace(ws, verdict.PreserveSections), nil
}

// resetWorkspace reinitializes a scope from its template, carrying over
// only the named sections.
func (c *Coordinator) resetWorkspace(old *workspace.Workspace, preserve []string) *workspace.Workspace {
	fresh := c.workspaces.Template(old.Scope)
	for _, name := range preserve {
		if content, ok := old.Section(name); ok && content != "" {
			fresh.SetSection(name, content)
		}
	}
	return fresh
}

// merge folds a validated specialist result into the in-memory workspace
// and, for storage results, the knowledge store. Knowledge writes go to
// the store before the index so a match id always resolves.
func (c *Coordinator) merge(ctx context.Context, ws *workspace.Workspace, result specialist.Result, retrieved []specialist.Retrieved) ([]specialist.Retrieved, error) {
	switch r := result.(type) {
	case *specialist.RetrievalResult:
		return c.mergeRetrieval(ctx, ws, r)
	case *specialist.StorageResult:
		return retrieved, c.mergeStorage(ctx, ws, r)
	case *specialist.IntegrationResult:
		for _, u := range r.Updates {
			ws.SetSection(u.Section, u.Content)
		}
		// Referenced entry ids live in the workspace informally, as a
		// readable list rather than structured metadata.
		refs, _ := ws.Section(workspace.SectionReferences)
		for _, ref := range r.KnowledgeRefs {
			if !strings.Contains(refs, ref) {
				ws.AppendToSection(workspace.SectionReferences, "- "+ref)
				refs += "\n- " + ref
			}
		}
		return retrieved, nil
	default:
		return nil, types.NewError(specialist.ErrCodeSchemaViolation,
			fmt.Sprintf("no merge rule for specialist result %T", result))
	}
}

func (c *Coordinator) mergeRetrieval(ctx context.Context, ws *workspace.Workspace, r *specialist.RetrievalResult) ([]specialist.Retrieved, error) {
	matches, err := c.index.FindSimilar(ctx, r.Query, c.retrievalLimit, nil)
	if err != nil {
		return nil, err
	}

	retrieved := make([]specialist.Retrieved, 0, len(matches))
	var lines []string
	for _, m := range matches {
		entry, err := c.entries.Load(ctx, m.ID)
		if err != nil {
			// An index row whose entry vanished is skipped, not fatal.
			if types.HasCode(err, types.NOT_FOUND) {
				c.logger.Warn("dangling index entry skipped", "id", m.ID)
				continue
			}
			return nil, err
		}
		retrieved = append(retrieved, specialist.FromMatch(m, entry.Content))
		lines = append(lines, fmt.Sprintf("- [%s] (score %.2f) %s", m.ID, m.Score, entry.Content))
	}

	if len(lines) > 0 {
		ws.SetSection(workspace.SectionRetrieved, strings.Join(lines, "\n"))
	}
	return retrieved, nil
}

// mergeStorage executes the storage specialist's classified operations.
// Any store failure aborts the turn unmodified.
func (c *Coordinator) mergeStorage(ctx context.Context, ws *workspace.Workspace, r *specialist.StorageResult) error {
	for _, op := range r.Operations {
		if op.Action == specialist.ActionNone {
			continue
		}

		entry, err := c.applyStorageOp(ctx, op)
		if err != nil {
			return err
		}

		ws.AppendToSection(workspace.SectionNotes,
			fmt.Sprintf("%s knowledge [%s]: %s", op.Action, entry.ID, op.Justification))
		c.logger.Info("knowledge mutated",
			"action", op.Action,
			"entry_id", entry.ID,
			"justification", op.Justification)
	}
	return nil
}

func (c *Coordinator) applyStorageOp(ctx context.Context, op specialist.StorageOperation) (*knowledge.Entry, error) {
	switch op.Action {
	case specialist.ActionCreate:
		entry, err := c.entries.Store(ctx, op.Content, op.Context)
		if err != nil {
			return nil, err
		}
		if err := c.index.Add(ctx, *entry); err != nil {
			return nil, err
		}
		return entry, nil

	case specialist.ActionUpdate, specialist.ActionReconcile:
		content := op.Content
		entry, err := c.entries.Update(ctx, types.ID(op.EntryID), knowledge.UpdateRequest{
			Content:         &content,
			Context:         op.Context,
			PreserveHistory: op.PreserveHistory,
		})
		if err != nil {
			return nil, err
		}
		if err := c.index.Update(ctx, *entry); err != nil {
			return nil, err
		}
		return entry, nil

	case specialist.ActionSupersede, specialist.ActionCorrect:
		entry, err := c.entries.Supersede(ctx, types.ID(op.EntryID), op.Content, op.Context, true)
		if err != nil {
			return nil, err
		}
		if err := c.index.Update(ctx, *entry); err != nil {
			return nil, err
		}
		return entry, nil

	default:
		return nil, types.NewError(specialist.ErrCodeSchemaViolation,
			fmt.Sprintf("unsupported storage action: %s", op.Action))
	}
}

// decide runs the decision step over the merged workspace. A decision
// failure blocks the cycle rather than guessing a stage.
func (c *Coordinator) decide(ctx context.Context, ws *workspace.Workspace, retrieved []specialist.Retrieved, message string, ran types.Stage) (*types.StageDecision, error) {
	input := specialist.Input{
		Workspace: ws.Clone(),
		Retrieved: retrieved,
		Message:   fmt.Sprintf("Stage %q just completed. Original message: %s", ran, message),
	}

	result, err := c.decider.Run(ctx, input)
	if err != nil {
		if types.HasCode(err, specialist.ErrCodeSpecialistFailed) {
			return types.TerminalBlocked(fmt.Sprintf("decision step failed: %v", err)), nil
		}
		return nil, err
	}

	verdict, ok := result.(*specialist.DecisionResult)
	if !ok {
		return nil, types.NewError(specialist.ErrCodeSchemaViolation,
			fmt.Sprintf("decision step returned %T", result))
	}

	decision := verdict.Decision()
	if err := decision.Validate(); err != nil {
		return nil, types.WrapError(ErrCodeStageDecisionInvalid, "decision step produced an invalid decision", err)
	}
	return decision, nil
}

// Health aggregates the health of the coordinator's stores.
func (c *Coordinator) Health(ctx context.Context) types.HealthStatus {
	var degraded []string
	for name, status := range map[string]types.HealthStatus{
		"workspace": c.workspaces.Health(ctx),
		"knowledge": c.entries.Health(ctx),
		"index":     c.index.Health(ctx),
	} {
		if status.IsUnhealthy() {
			return types.Unhealthy(fmt.Sprintf("%s store unhealthy: %s", name, status.Message))
		}
		if status.IsDegraded() {
			degraded = append(degraded, name)
		}
	}
	if len(degraded) > 0 {
		return types.Degraded(fmt.Sprintf("degraded stores: %s", strings.Join(degraded, ", ")))
	}
	return types.Healthy("coordinator operational")
}

func (c *Coordinator) scopeLock(scope string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[scope]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[scope] = lock
	}
	return lock
}
