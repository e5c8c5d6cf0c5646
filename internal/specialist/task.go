package specialist

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/praxos/cortex/internal/llm"
	"github.com/praxos/cortex/internal/similarity"
	"github.com/praxos/cortex/internal/types"
	"github.com/praxos/cortex/internal/workspace"
)

// Retrieved is one knowledge match resolved to its stored content, ready
// to be rendered into a specialist prompt.
type Retrieved struct {
	ID       types.ID       `json:"id"`
	Score    float64        `json:"score"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FromMatch pairs a similarity match with its loaded content.
func FromMatch(m similarity.Match, content string) Retrieved {
	return Retrieved{ID: m.ID, Score: m.Score, Content: content, Metadata: m.Metadata}
}

// Input is the full context handed to one specialist invocation: a
// workspace snapshot, resolved knowledge matches, and the triggering
// message. The task never mutates any of it.
type Input struct {
	Workspace *workspace.Workspace
	Retrieved []Retrieved
	Message   string
}

// Result is a validated structured result returned by a specialist. Each
// task variant declares its own concrete type.
type Result interface {
	Validate() error
}

// Task wraps one completion call: it assembles input context, invokes the
// provider with a fixed instruction and declared output schema, and
// validates the returned structure. All decision logic lives in the
// instruction; the task's own code holds none.
type Task struct {
	name         string
	instructions string
	schema       map[string]any
	newResult    func() Result
	provider     llm.Provider

	maxRetries  int
	backoff     time.Duration
	timeout     time.Duration
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// Option configures a Task.
type Option func(*Task)

// WithMaxRetries sets the attempt budget for schema violations and
// retryable provider failures.
func WithMaxRetries(n int) Option {
	return func(t *Task) {
		if n > 0 {
			t.maxRetries = n
		}
	}
}

// WithBackoff sets the base backoff between attempts; attempt n waits
// n times this duration.
func WithBackoff(d time.Duration) Option {
	return func(t *Task) {
		if d > 0 {
			t.backoff = d
		}
	}
}

// WithTimeout bounds each completion attempt with a deadline. Zero
// leaves attempts unbounded. A timed-out attempt is retryable.
func WithTimeout(d time.Duration) Option {
	return func(t *Task) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) Option {
	return func(t *Task) { t.temperature = temp }
}

// WithMaxTokens bounds the completion length.
func WithMaxTokens(n int) Option {
	return func(t *Task) { t.maxTokens = n }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Task) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTask creates a specialist task from its instruction, result schema,
// and result allocator.
func NewTask(name, instructions string, schema map[string]any, newResult func() Result, provider llm.Provider, opts ...Option) *Task {
	t := &Task{
		name:         name,
		instructions: instructions,
		schema:       schema,
		newResult:    newResult,
		provider:     provider,
		maxRetries:   3,
		backoff:      250 * time.Millisecond,
		temperature:  0.2,
		maxTokens:    2048,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the task's stage-facing name.
func (t *Task) Name() string {
	return t.name
}

// Run invokes the completion service and returns a validated result.
// Schema violations and timed-out completions are retried with linear
// backoff up to the attempt budget; exhaustion surfaces a specialist
// failure carrying the last cause.
func (t *Task) Run(ctx context.Context, input Input) (Result, error) {
	req, err := t.buildRequest(input)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, time.Duration(attempt-1)*t.backoff); err != nil {
				return nil, NewSpecialistFailedError(t.name, attempt-1, lastErr)
			}
			t.logger.Debug("retrying specialist",
				"task", t.name,
				"attempt", attempt,
				"last_error", lastErr)
		}

		result, err := t.attempt(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		// A timed-out completion is treated like a schema violation:
		// retry within the budget. Non-retryable provider failures
		// (bad credentials, unknown model) end the task immediately.
		if !types.IsRetryable(err) {
			return nil, NewSpecialistFailedError(t.name, attempt, err)
		}
		t.logger.Warn("specialist attempt failed",
			"task", t.name,
			"attempt", attempt,
			"error", err)
	}

	return nil, NewSpecialistFailedError(t.name, t.maxRetries, lastErr)
}

func (t *Task) attempt(ctx context.Context, req llm.CompletionRequest) (Result, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	resp, err := t.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	payload, err := llm.ExtractJSON(resp.Content)
	if err != nil {
		return nil, NewSchemaViolationError(t.name, err)
	}

	result := t.newResult()
	if err := json.Unmarshal([]byte(payload), result); err != nil {
		return nil, NewSchemaViolationError(t.name, err)
	}
	if err := result.Validate(); err != nil {
		return nil, NewSchemaViolationError(t.name, err)
	}
	return result, nil
}

func (t *Task) buildRequest(input Input) (llm.CompletionRequest, error) {
	rendered, err := renderInput(input)
	if err != nil {
		return llm.CompletionRequest{}, err
	}

	req := llm.CompletionRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage(t.instructions),
			llm.NewUserMessage(rendered),
		},
		Temperature:    t.temperature,
		MaxTokens:      t.maxTokens,
		ResponseSchema: t.schema,
	}
	if err := req.Validate(); err != nil {
		return llm.CompletionRequest{}, types.WrapError(ErrCodeSpecialistFailed,
			"specialist built an invalid completion request", err)
	}
	return req, nil
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
