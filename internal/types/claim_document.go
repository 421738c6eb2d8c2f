package types

import (
	"time"

	"github.com/google/uuid"
)

// ClaimDocument is a reference to a document held by the external document
// store. The engine never touches file bytes.
type ClaimDocument struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID   uuid.UUID `gorm:"type:uuid;not null;index" json:"claim_id"`
	DocType   string    `gorm:"column:doc_type;not null" json:"doc_type"`
	Name      string    `gorm:"column:name" json:"name"`
	SizeBytes int64     `gorm:"column:size_bytes" json:"size_bytes"`
	Verified  bool      `gorm:"column:verified;not null;default:false" json:"verified"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ClaimDocument) TableName() string { return "claim_document" }
