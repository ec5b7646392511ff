package models

import "time"

const LoanEventTable = "elt_loan_events"

type LoanAction string

const (
	ActionSubmitted LoanAction = "submitted"
	ActionApproved  LoanAction = "approved"
	ActionRejected  LoanAction = "rejected"
	ActionCancelled LoanAction = "cancelled"
	ActionReturned  LoanAction = "returned"
)

// LoanEvent is the audit trail of a loan request. Each row is written in the
// same transaction as the change it records.
type LoanEvent struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	LoanRequestID string     `gorm:"size:36;index;not null" json:"loanRequestId"`
	Action        LoanAction `gorm:"size:20;not null" json:"action"`
	ActorUID      string     `gorm:"size:128;not null" json:"actorUid"`
	ActorEmail    string     `gorm:"size:255" json:"actorEmail"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func (LoanEvent) TableName() string { return LoanEventTable }
