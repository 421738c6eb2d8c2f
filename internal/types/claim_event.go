package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ClaimEvent is an append-only history entry. Rows are never updated or
// deleted; the event list is the audit trail for a claim.
type ClaimEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"claim_id"`
	ActorID    string         `gorm:"column:actor_id;not null" json:"actor_id"`
	ActorRole  Role           `gorm:"column:actor_role;not null" json:"actor_role"`
	FromStatus ClaimStatus    `gorm:"column:from_status" json:"from_status"`
	ToStatus   ClaimStatus    `gorm:"column:to_status" json:"to_status"`
	Reason     string         `gorm:"column:reason" json:"reason"`
	Payload    datatypes.JSON `gorm:"type:jsonb;column:payload" json:"payload,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

func (ClaimEvent) TableName() string { return "claim_event" }
