// Package lifecycle holds the HTTP-agnostic rules for moving a case
// through its pipeline: which stage and status values exist, which
// transitions are legal, and what audit event each mutation produces.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/settlewise/case-service/internal/errs"
	"github.com/settlewise/case-service/internal/model"
)

// Event types recorded in the audit trail.
const (
	EventTicketCreated      = "TICKET_CREATED"
	EventStageChanged       = "STAGE_CHANGED"
	EventStatusChanged      = "STATUS_CHANGED"
	EventProgressUpdated    = "PROGRESS_UPDATED"
	EventSettlementRecorded = "SETTLEMENT_RECORDED"
	EventCaseResolved       = "CASE_RESOLVED"
	EventCaseRejected       = "CASE_REJECTED"
	EventDocumentUploaded   = "DOCUMENT_UPLOADED"
	EventDocumentApproved   = "DOCUMENT_APPROVED"
	EventDocumentRejected   = "DOCUMENT_REJECTED"
)

var stageNames = map[model.Stage]string{
	model.StageAssessment:  "Assessment",
	model.StageReview:      "Review",
	model.StageStrategy:    "Strategy",
	model.StageNegotiation: "Negotiation",
	model.StageSettlement:  "Settlement",
	model.StageClosed:      "Closed",
	model.StageRejected:    "Rejected",
}

var statusNames = map[model.Status]string{
	model.StatusOpen:      "Open",
	model.StatusOnHold:    "On Hold",
	model.StatusCompleted: "Completed",
	model.StatusCancelled: "Cancelled",
}

// stageRank orders the forward pipeline. REJECTED sits outside the
// ordering; it is reachable from any non-terminal stage.
var stageRank = map[model.Stage]int{
	model.StageAssessment:  0,
	model.StageReview:      1,
	model.StageStrategy:    2,
	model.StageNegotiation: 3,
	model.StageSettlement:  4,
	model.StageClosed:      5,
}

// defaultOverallPercent is the pipeline progress implied by entering a
// stage. Admins can still adjust it afterwards with SetProgress.
var defaultOverallPercent = map[model.Stage]int{
	model.StageAssessment:  0,
	model.StageReview:      20,
	model.StageStrategy:    40,
	model.StageNegotiation: 60,
	model.StageSettlement:  80,
	model.StageClosed:      100,
	model.StageRejected:    100,
}

// ParseStage validates a raw stage value.
func ParseStage(raw string) (model.Stage, error) {
	s := model.Stage(raw)
	if _, ok := stageNames[s]; !ok {
		return "", errs.Validation("unknown stage %q", raw)
	}
	return s, nil
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (model.Status, error) {
	s := model.Status(raw)
	if _, ok := statusNames[s]; !ok {
		return "", errs.Validation("unknown status %q", raw)
	}
	return s, nil
}

// Terminal reports whether no further stage or status transition is
// permitted from the given stage.
func Terminal(s model.Stage) bool {
	return s == model.StageClosed || s == model.StageRejected
}

// StageName returns the human-readable label used in event messages.
func StageName(s model.Stage) string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return string(s)
}

// StatusName returns the human-readable label used in event messages.
func StatusName(s model.Status) string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return string(s)
}

// StageRank returns the forward-pipeline position of a stage, or -1 for
// REJECTED and unknown values.
func StageRank(s model.Stage) int {
	if r, ok := stageRank[s]; ok {
		return r
	}
	return -1
}

// Command is one requested mutation of a ticket's lifecycle state. The
// set of commands is closed: PATCH payloads decode into exactly one of
// the variants below, never an open bag of fields.
type Command interface {
	isCommand()
}

// ChangeStage moves the ticket to another pipeline stage.
type ChangeStage struct {
	Stage model.Stage
}

// ChangeStatus sets the operational flag without touching the stage.
// COMPLETED and CANCELLED are not reachable this way; they belong to
// the compound ResolveCase and RejectCase commands.
type ChangeStatus struct {
	Status model.Status
}

// SetProgress sets overall pipeline progress, clamped to [0,100].
type SetProgress struct {
	Percent int
}

// SetSettlement records the negotiated settlement amount.
type SetSettlement struct {
	Amount float64
}

// ResolveCase closes the case: stage CLOSED, status COMPLETED, in one
// atomic update.
type ResolveCase struct{}

// RejectCase declines the case: stage REJECTED, status CANCELLED, in
// one atomic update.
type RejectCase struct{}

func (ChangeStage) isCommand()   {}
func (ChangeStatus) isCommand()  {}
func (SetProgress) isCommand()   {}
func (SetSettlement) isCommand() {}
func (ResolveCase) isCommand()   {}
func (RejectCase) isCommand()    {}

// Change is the outcome of applying a command: the column updates to
// persist and the audit event to append, expected to be written in one
// transaction.
type Change struct {
	Fields       map[string]interface{}
	EventType    string
	EventMessage string
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Apply validates cmd against the ticket's current state and returns
// the resulting change. It never mutates the ticket; persistence is the
// caller's job.
func Apply(t *model.Ticket, cmd Command, now time.Time) (Change, error) {
	switch c := cmd.(type) {
	case ChangeStage:
		if _, err := ParseStage(string(c.Stage)); err != nil {
			return Change{}, err
		}
		if Terminal(t.Stage) {
			return Change{}, fmt.Errorf("%w: stage is %s", errs.ErrInvalidTransition, t.Stage)
		}
		return Change{
			Fields: map[string]interface{}{
				"stage":           c.Stage,
				"stage_percent":   0,
				"overall_percent": defaultOverallPercent[c.Stage],
			},
			EventType:    EventStageChanged,
			EventMessage: "Stage changed to " + StageName(c.Stage),
		}, nil

	case ChangeStatus:
		if _, err := ParseStatus(string(c.Status)); err != nil {
			return Change{}, err
		}
		if Terminal(t.Stage) {
			return Change{}, fmt.Errorf("%w: stage is %s", errs.ErrInvalidTransition, t.Stage)
		}
		if c.Status == model.StatusCompleted || c.Status == model.StatusCancelled {
			return Change{}, errs.Validation("status %s is set by resolving or rejecting the case", c.Status)
		}
		return Change{
			Fields:       map[string]interface{}{"status": c.Status},
			EventType:    EventStatusChanged,
			EventMessage: "Status changed to " + StatusName(c.Status),
		}, nil

	case SetProgress:
		pct := clampPercent(c.Percent)
		return Change{
			Fields:       map[string]interface{}{"overall_percent": pct},
			EventType:    EventProgressUpdated,
			EventMessage: fmt.Sprintf("Overall progress updated to %d%%", pct),
		}, nil

	case SetSettlement:
		if c.Amount <= 0 {
			return Change{}, errs.Validation("settlement amount must be positive")
		}
		// A settlement only makes sense once the case has reached the
		// settlement stage.
		if StageRank(t.Stage) < StageRank(model.StageSettlement) {
			return Change{}, fmt.Errorf("%w: settlement before %s stage", errs.ErrInvalidTransition, StageName(model.StageSettlement))
		}
		return Change{
			Fields: map[string]interface{}{
				"settled_amount": c.Amount,
				"settled_at":     now,
			},
			EventType:    EventSettlementRecorded,
			EventMessage: fmt.Sprintf("Settlement recorded: %.2f", c.Amount),
		}, nil

	case ResolveCase:
		if Terminal(t.Stage) {
			return Change{}, fmt.Errorf("%w: stage is %s", errs.ErrInvalidTransition, t.Stage)
		}
		return Change{
			Fields: map[string]interface{}{
				"stage":           model.StageClosed,
				"status":          model.StatusCompleted,
				"stage_percent":   100,
				"overall_percent": 100,
			},
			EventType:    EventCaseResolved,
			EventMessage: "Case resolved",
		}, nil

	case RejectCase:
		if Terminal(t.Stage) {
			return Change{}, fmt.Errorf("%w: stage is %s", errs.ErrInvalidTransition, t.Stage)
		}
		return Change{
			Fields: map[string]interface{}{
				"stage":           model.StageRejected,
				"status":          model.StatusCancelled,
				"overall_percent": defaultOverallPercent[model.StageRejected],
			},
			EventType:    EventCaseRejected,
			EventMessage: "Case rejected",
		}, nil

	default:
		return Change{}, errs.Validation("unknown command %T", cmd)
	}
}
