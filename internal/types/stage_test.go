package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStage_IsTerminal(t *testing.T) {
	tests := []struct {
		stage    Stage
		terminal bool
	}{
		{StageAnalyze, false},
		{StageRetrieve, false},
		{StageIntegrate, false},
		{StageSolved, true},
		{StageBlocked, true},
		{StageNeedsInput, true},
		{Stage("hypothesis"), false},
	}

	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.stage.IsTerminal())
		})
	}
}

func TestStageDecision_Validate(t *testing.T) {
	tests := []struct {
		name     string
		decision *StageDecision
		wantErr  bool
	}{
		{
			name:     "valid non-terminal",
			decision: &StageDecision{NextStage: StageRetrieve},
			wantErr:  false,
		},
		{
			name:     "terminal with explanation",
			decision: TerminalSolved("all goals satisfied"),
			wantErr:  false,
		},
		{
			name:     "terminal without explanation",
			decision: &StageDecision{NextStage: StageBlocked},
			wantErr:  true,
		},
		{
			name:     "missing stage",
			decision: &StageDecision{},
			wantErr:  true,
		},
		{
			name:     "nil decision",
			decision: nil,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decision.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTerminalBlocked(t *testing.T) {
	d := TerminalBlocked("specialist failed after retries")
	assert.True(t, d.IsTerminal())
	assert.Equal(t, StageBlocked, d.NextStage)
	assert.NoError(t, d.Validate())
}
