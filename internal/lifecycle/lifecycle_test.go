package lifecycle

import (
	"testing"
	"time"

	"github.com/settlewise/case-service/internal/errs"
	"github.com/settlewise/case-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStage(t *testing.T) {
	tests := []struct {
		raw     string
		want    model.Stage
		wantErr bool
	}{
		{"ASSESSMENT", model.StageAssessment, false},
		{"REVIEW", model.StageReview, false},
		{"STRATEGY", model.StageStrategy, false},
		{"NEGOTIATION", model.StageNegotiation, false},
		{"SETTLEMENT", model.StageSettlement, false},
		{"CLOSED", model.StageClosed, false},
		{"REJECTED", model.StageRejected, false},
		{"assessment", "", true},
		{"ARCHIVED", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStage(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"OPEN", "ON_HOLD", "COMPLETED", "CANCELLED"} {
		_, err := ParseStatus(raw)
		assert.NoError(t, err, raw)
	}
	_, err := ParseStatus("PAUSED")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal(model.StageClosed))
	assert.True(t, Terminal(model.StageRejected))
	assert.False(t, Terminal(model.StageAssessment))
	assert.False(t, Terminal(model.StageSettlement))
}

func ticketAt(stage model.Stage) *model.Ticket {
	return &model.Ticket{Stage: stage, Status: model.StatusOpen}
}

func TestApplyChangeStage(t *testing.T) {
	now := time.Now()

	change, err := Apply(ticketAt(model.StageAssessment), ChangeStage{Stage: model.StageReview}, now)
	require.NoError(t, err)
	assert.Equal(t, model.StageReview, change.Fields["stage"])
	assert.Equal(t, 0, change.Fields["stage_percent"])
	assert.Equal(t, 20, change.Fields["overall_percent"])
	assert.Equal(t, EventStageChanged, change.EventType)
	assert.Equal(t, "Stage changed to Review", change.EventMessage)

	// Arbitrary jumps between non-terminal stages are allowed.
	_, err = Apply(ticketAt(model.StageAssessment), ChangeStage{Stage: model.StageSettlement}, now)
	assert.NoError(t, err)

	// Terminal stages admit no further transition.
	_, err = Apply(ticketAt(model.StageClosed), ChangeStage{Stage: model.StageNegotiation}, now)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	_, err = Apply(ticketAt(model.StageRejected), ChangeStage{Stage: model.StageAssessment}, now)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	_, err = Apply(ticketAt(model.StageAssessment), ChangeStage{Stage: "BOGUS"}, now)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestApplyChangeStatus(t *testing.T) {
	now := time.Now()

	change, err := Apply(ticketAt(model.StageReview), ChangeStatus{Status: model.StatusOnHold}, now)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnHold, change.Fields["status"])
	assert.Equal(t, "Status changed to On Hold", change.EventMessage)

	// COMPLETED/CANCELLED only arrive through the compound commands.
	_, err = Apply(ticketAt(model.StageReview), ChangeStatus{Status: model.StatusCompleted}, now)
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = Apply(ticketAt(model.StageReview), ChangeStatus{Status: model.StatusCancelled}, now)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = Apply(ticketAt(model.StageClosed), ChangeStatus{Status: model.StatusOnHold}, now)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestApplySetProgress(t *testing.T) {
	now := time.Now()
	tests := []struct {
		in   int
		want int
	}{
		{0, 0}, {55, 55}, {100, 100}, {-10, 0}, {140, 100},
	}
	for _, tt := range tests {
		change, err := Apply(ticketAt(model.StageStrategy), SetProgress{Percent: tt.in}, now)
		require.NoError(t, err)
		assert.Equal(t, tt.want, change.Fields["overall_percent"])
		assert.Equal(t, EventProgressUpdated, change.EventType)
	}
}

func TestApplySetSettlement(t *testing.T) {
	now := time.Now()

	change, err := Apply(ticketAt(model.StageSettlement), SetSettlement{Amount: 12500.50}, now)
	require.NoError(t, err)
	assert.Equal(t, 12500.50, change.Fields["settled_amount"])
	assert.Equal(t, now, change.Fields["settled_at"])
	assert.Equal(t, EventSettlementRecorded, change.EventType)

	_, err = Apply(ticketAt(model.StageSettlement), SetSettlement{Amount: 0}, now)
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = Apply(ticketAt(model.StageSettlement), SetSettlement{Amount: -5}, now)
	assert.ErrorIs(t, err, errs.ErrValidation)

	// Settlement needs the case to have reached the settlement stage.
	_, err = Apply(ticketAt(model.StageNegotiation), SetSettlement{Amount: 100}, now)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestApplyResolveAndReject(t *testing.T) {
	now := time.Now()

	change, err := Apply(ticketAt(model.StageNegotiation), ResolveCase{}, now)
	require.NoError(t, err)
	assert.Equal(t, model.StageClosed, change.Fields["stage"])
	assert.Equal(t, model.StatusCompleted, change.Fields["status"])
	assert.Equal(t, 100, change.Fields["overall_percent"])

	change, err = Apply(ticketAt(model.StageAssessment), RejectCase{}, now)
	require.NoError(t, err)
	assert.Equal(t, model.StageRejected, change.Fields["stage"])
	assert.Equal(t, model.StatusCancelled, change.Fields["status"])
	assert.Equal(t, 100, change.Fields["overall_percent"], "rejection ends the pipeline")

	_, err = Apply(ticketAt(model.StageClosed), ResolveCase{}, now)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	_, err = Apply(ticketAt(model.StageRejected), RejectCase{}, now)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}
