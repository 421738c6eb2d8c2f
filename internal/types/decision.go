package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DecisionType string

const (
	DecisionApproved            DecisionType = "approved"
	DecisionApprovedConditional DecisionType = "approved_conditional"
	DecisionRejected            DecisionType = "rejected"
)

func (d DecisionType) Valid() bool {
	switch d {
	case DecisionApproved, DecisionApprovedConditional, DecisionRejected:
		return true
	default:
		return false
	}
}

// TargetStatus maps a decision to the terminal claim status it drives.
func (d DecisionType) TargetStatus() ClaimStatus {
	switch d {
	case DecisionApproved:
		return StatusApproved
	case DecisionApprovedConditional:
		return StatusApprovedConditional
	case DecisionRejected:
		return StatusRejected
	default:
		return ""
	}
}

// Decision is recorded once per claim and is immutable. ChairOverride marks a
// manual chair decision taken without automatic consensus.
type Decision struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"claim_id"`
	DecisionType  DecisionType   `gorm:"column:decision_type;not null" json:"decision_type"`
	Justification string         `gorm:"column:justification;not null" json:"justification"`
	Conditions    datatypes.JSON `gorm:"type:jsonb;column:conditions" json:"conditions,omitempty"`
	DecidedBy     string         `gorm:"column:decided_by;not null" json:"decided_by"`
	ChairOverride bool           `gorm:"column:chair_override;not null;default:false" json:"chair_override"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
}

func (Decision) TableName() string { return "decision" }
