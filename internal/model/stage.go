package model

// Stage is the pipeline phase of a ticket. ASSESSMENT is the initial
// stage; CLOSED and REJECTED are terminal.
type Stage string

const (
	StageAssessment  Stage = "ASSESSMENT"
	StageReview      Stage = "REVIEW"
	StageStrategy    Stage = "STRATEGY"
	StageNegotiation Stage = "NEGOTIATION"
	StageSettlement  Stage = "SETTLEMENT"
	StageClosed      Stage = "CLOSED"
	StageRejected    Stage = "REJECTED"
)

// Status is the operational flag, orthogonal to Stage.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusOnHold    Status = "ON_HOLD"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)
