package specialist

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxos/cortex/internal/llm"
	"github.com/praxos/cortex/internal/llm/providers"
	"github.com/praxos/cortex/internal/types"
	"github.com/praxos/cortex/internal/workspace"
)

func fastOpts() []Option {
	return []Option{WithBackoff(time.Millisecond)}
}

func testInput() Input {
	w := workspace.Template("private/test")
	w.SetSection(workspace.SectionUnderstanding, "user is planning a trip")
	return Input{
		Workspace: w,
		Retrieved: []Retrieved{
			{ID: "k-1", Score: 0.9, Content: "user prefers window seats", Metadata: map[string]any{"kind": "preference"}},
		},
		Message: "book me a flight to Lisbon",
	}
}

func TestTaskRunHappyPath(t *testing.T) {
	provider := providers.NewMockWithResponses(
		`{"new_episode": true, "preserve_sections": ["Current Understanding"], "reasoning": "topic changed"}`,
	)
	task := NewBoundaryDetector(provider, fastOpts()...)

	result, err := task.Run(context.Background(), testInput())
	require.NoError(t, err)

	boundary, ok := result.(*BoundaryResult)
	require.True(t, ok)
	assert.True(t, boundary.NewEpisode)
	assert.Equal(t, []string{"Current Understanding"}, boundary.PreserveSections)
	assert.Equal(t, 1, provider.CallCount())
}

func TestTaskRunAcceptsFencedJSON(t *testing.T) {
	provider := providers.NewMockWithResponses(
		"Here is my verdict:\n```json\n{\"new_episode\": false, \"reasoning\": \"same topic\"}\n```",
	)
	task := NewBoundaryDetector(provider, fastOpts()...)

	result, err := task.Run(context.Background(), testInput())
	require.NoError(t, err)
	assert.False(t, result.(*BoundaryResult).NewEpisode)
}

func TestTaskRunRetriesSchemaViolation(t *testing.T) {
	provider := providers.NewMockWithResponses(
		"not json at all",
		`{"new_episode": true}`,
		`{"new_episode": false, "reasoning": "recovered on third try"}`,
	)
	task := NewBoundaryDetector(provider, fastOpts()...)

	result, err := task.Run(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, 3, provider.CallCount())
	assert.Equal(t, "recovered on third try", result.(*BoundaryResult).Reasoning)
}

func TestTaskRunExhaustsRetries(t *testing.T) {
	provider := providers.NewMockWithResponses("still not json")
	task := NewBoundaryDetector(provider, fastOpts()...)

	_, err := task.Run(context.Background(), testInput())
	require.Error(t, err)
	assert.True(t, types.HasCode(err, ErrCodeSpecialistFailed))
	assert.True(t, types.HasCode(err, ErrCodeSchemaViolation))
	assert.Equal(t, 3, provider.CallCount())
}

func TestTaskRunRetryBudgetConfigurable(t *testing.T) {
	provider := providers.NewMockWithResponses("nope")
	task := NewBoundaryDetector(provider, WithMaxRetries(2), WithBackoff(time.Millisecond))

	_, err := task.Run(context.Background(), testInput())
	require.Error(t, err)
	assert.Equal(t, 2, provider.CallCount())
}

func TestTaskRunTimeoutRetriedLikeSchemaViolation(t *testing.T) {
	calls := 0
	provider := providers.NewMock()
	provider.RespondFunc = func(req llm.CompletionRequest) (string, error) {
		calls++
		if calls == 1 {
			return "", llm.NewTimeoutError("mock", context.DeadlineExceeded)
		}
		return `{"new_episode": false, "reasoning": "recovered after timeout"}`, nil
	}
	task := NewBoundaryDetector(provider, fastOpts()...)

	result, err := task.Run(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "recovered after timeout", result.(*BoundaryResult).Reasoning)
}

// stalledProvider blocks every completion until the caller's context
// expires, like a hung backend.
type stalledProvider struct {
	calls int
}

func (p *stalledProvider) Name() string { return "stalled" }

func (p *stalledProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	<-ctx.Done()
	return nil, llm.TranslateError(p.Name(), ctx.Err())
}

func (p *stalledProvider) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	return nil, llm.NewCompletionError(p.Name(), fmt.Errorf("streaming not supported"))
}

func (p *stalledProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("stalled provider")
}

func TestTaskRunDeadlineBoundsHungCompletion(t *testing.T) {
	provider := &stalledProvider{}
	task := NewBoundaryDetector(provider,
		WithTimeout(5*time.Millisecond), WithMaxRetries(2), WithBackoff(time.Millisecond))

	_, err := task.Run(context.Background(), testInput())
	require.Error(t, err)
	assert.True(t, types.HasCode(err, ErrCodeSpecialistFailed))
	assert.True(t, types.HasCode(err, llm.ErrCodeTimeout))
	assert.Equal(t, 2, provider.calls)
}

func TestTaskRunFailsFastOnNonRetryableError(t *testing.T) {
	provider := providers.NewMock()
	provider.RespondFunc = func(req llm.CompletionRequest) (string, error) {
		return "", llm.NewAuthError("mock")
	}
	task := NewBoundaryDetector(provider, fastOpts()...)

	_, err := task.Run(context.Background(), testInput())
	require.Error(t, err)
	assert.True(t, types.HasCode(err, ErrCodeSpecialistFailed))
	assert.True(t, types.HasCode(err, llm.ErrCodeAuthFailed))
	assert.Equal(t, 1, provider.CallCount())
}

func TestTaskRunCancelledDuringBackoff(t *testing.T) {
	provider := providers.NewMockWithResponses("junk")
	task := NewBoundaryDetector(provider, WithBackoff(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := task.Run(ctx, testInput())
	require.Error(t, err)
	assert.True(t, types.HasCode(err, ErrCodeSpecialistFailed))
	assert.Equal(t, 1, provider.CallCount())
}

func TestTaskRequestCarriesContextAndSchema(t *testing.T) {
	provider := providers.NewMockWithResponses(
		`{"new_episode": false, "reasoning": "same topic"}`,
	)
	task := NewBoundaryDetector(provider, fastOpts()...)

	_, err := task.Run(context.Background(), testInput())
	require.NoError(t, err)

	calls := provider.Calls()
	require.Len(t, calls, 1)
	req := calls[0].Request
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, llm.RoleUser, req.Messages[1].Role)
	assert.Contains(t, req.Messages[1].Content, "user is planning a trip")
	assert.Contains(t, req.Messages[1].Content, "user prefers window seats")
	assert.Contains(t, req.Messages[1].Content, "book me a flight to Lisbon")
	assert.NotNil(t, req.ResponseSchema)
}

func TestBoundaryResultValidate(t *testing.T) {
	tests := []struct {
		name    string
		result  BoundaryResult
		wantErr bool
	}{
		{"valid continuation", BoundaryResult{Reasoning: "same topic"}, false},
		{"valid new episode", BoundaryResult{NewEpisode: true, PreserveSections: []string{"Notes"}, Reasoning: "shift"}, false},
		{"missing reasoning", BoundaryResult{NewEpisode: true}, true},
		{"empty preserve name", BoundaryResult{NewEpisode: true, PreserveSections: []string{" "}, Reasoning: "x"}, true},
		{"preserve without new episode", BoundaryResult{PreserveSections: []string{"Notes"}, Reasoning: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetrievalResultValidate(t *testing.T) {
	tests := []struct {
		name    string
		result  RetrievalResult
		wantErr bool
	}{
		{"valid", RetrievalResult{Query: "user travel preferences", Reasoning: "needed"}, false},
		{"valid with ranking", RetrievalResult{Query: "q", Primary: []string{"a"}, Secondary: []string{"b"}, Reasoning: "r"}, false},
		{"missing query", RetrievalResult{Reasoning: "r"}, true},
		{"missing reasoning", RetrievalResult{Query: "q"}, true},
		{"id in both ranks", RetrievalResult{Query: "q", Primary: []string{"a"}, Secondary: []string{"a"}, Reasoning: "r"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStorageResultValidate(t *testing.T) {
	tests := []struct {
		name    string
		result  StorageResult
		wantErr bool
	}{
		{
			"valid create",
			StorageResult{
				Operations: []StorageOperation{{Action: ActionCreate, Content: "user drinks tea", Justification: "new preference"}},
				Reasoning:  "storable",
			},
			false,
		},
		{
			"valid no-op",
			StorageResult{
				Operations: []StorageOperation{{Action: ActionNone, Justification: "nothing durable"}},
				Reasoning:  "chit-chat",
			},
			false,
		},
		{
			"supersede without target",
			StorageResult{
				Operations: []StorageOperation{{Action: ActionSupersede, Content: "x", Justification: "j"}},
				Reasoning:  "r",
			},
			true,
		},
		{
			"create without content",
			StorageResult{
				Operations: []StorageOperation{{Action: ActionCreate, Justification: "j"}},
				Reasoning:  "r",
			},
			true,
		},
		{
			"missing justification",
			StorageResult{
				Operations: []StorageOperation{{Action: ActionCreate, Content: "x"}},
				Reasoning:  "r",
			},
			true,
		},
		{
			"unknown action",
			StorageResult{
				Operations: []StorageOperation{{Action: "archive", Content: "x", Justification: "j"}},
				Reasoning:  "r",
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIntegrationResultValidate(t *testing.T) {
	valid := IntegrationResult{
		Updates:   []SectionUpdate{{Section: "Working Notes", Content: "merged"}},
		Reasoning: "merged new info",
	}
	assert.NoError(t, valid.Validate())

	dup := IntegrationResult{
		Updates: []SectionUpdate{
			{Section: "Working Notes", Content: "a"},
			{Section: "Working Notes", Content: "b"},
		},
		Reasoning: "r",
	}
	assert.Error(t, dup.Validate())

	assert.Error(t, (&IntegrationResult{Updates: valid.Updates}).Validate())
}

func TestDecisionResultValidateAndConvert(t *testing.T) {
	result := DecisionResult{NextStage: "solved", Explanation: "all sections current"}
	require.NoError(t, result.Validate())

	decision := result.Decision()
	require.NoError(t, decision.Validate())
	assert.True(t, decision.IsTerminal())
	assert.Equal(t, types.StageSolved, decision.NextStage)

	assert.Error(t, (&DecisionResult{Explanation: "x"}).Validate())
	assert.Error(t, (&DecisionResult{NextStage: "analyze"}).Validate())
}

func TestStorageSpecialistEndToEnd(t *testing.T) {
	provider := providers.NewMockWithResponses(fmt.Sprintf(
		`{"operations": [{"action": "supersede", "entry_id": %q, "content": "user switched to tea", "preserve_history": true, "justification": "beverage preference changed"}], "reasoning": "observation contradicts stored fact"}`,
		"k-1",
	))
	task := NewStorageSpecialist(provider, fastOpts()...)

	result, err := task.Run(context.Background(), testInput())
	require.NoError(t, err)

	storage, ok := result.(*StorageResult)
	require.True(t, ok)
	require.Len(t, storage.Operations, 1)
	op := storage.Operations[0]
	assert.Equal(t, ActionSupersede, op.Action)
	assert.Equal(t, "k-1", op.EntryID)
	assert.True(t, op.PreserveHistory)
}
