package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChecklistCategory string

const (
	CategoryDocument ChecklistCategory = "document"
	CategoryField    ChecklistCategory = "field"
	CategoryLegal    ChecklistCategory = "legal"
)

func (c ChecklistCategory) Valid() bool {
	switch c {
	case CategoryDocument, CategoryField, CategoryLegal:
		return true
	default:
		return false
	}
}

type ChecklistItem struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID     uuid.UUID         `gorm:"type:uuid;not null;index:idx_claim_category_item,unique" json:"claim_id"`
	Category    ChecklistCategory `gorm:"column:category;not null;index:idx_claim_category_item,unique" json:"category"`
	ItemKey     string            `gorm:"column:item_key;not null;index:idx_claim_category_item,unique" json:"item_key"`
	Label       string            `gorm:"column:label;not null" json:"label"`
	Description string            `gorm:"column:description" json:"description"`
	Required    bool              `gorm:"column:required;not null;default:false" json:"required"`
	Checked     bool              `gorm:"column:checked;not null;default:false" json:"checked"`
	Comments    string            `gorm:"column:comments" json:"comments"`
	CreatedAt   time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null" json:"updated_at"`
}

func (ChecklistItem) TableName() string { return "checklist_item" }

type Recommendation string

const (
	RecommendApprove       Recommendation = "approve"
	RecommendReject        Recommendation = "reject"
	RecommendClarification Recommendation = "clarification"
	RecommendFieldVisit    Recommendation = "field_visit"
)

func (r Recommendation) Valid() bool {
	switch r {
	case RecommendApprove, RecommendReject, RecommendClarification, RecommendFieldVisit:
		return true
	default:
		return false
	}
}

// VerificationReport snapshots the checklist at submission. Once a report
// exists the checklist for that claim is read-only.
type VerificationReport struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"claim_id"`
	OfficerID         string         `gorm:"column:officer_id;not null" json:"officer_id"`
	OverallComments   string         `gorm:"column:overall_comments" json:"overall_comments"`
	Recommendation    Recommendation `gorm:"column:recommendation;not null" json:"recommendation"`
	TotalItems        int            `gorm:"column:total_items;not null" json:"total_items"`
	CompletedItems    int            `gorm:"column:completed_items;not null" json:"completed_items"`
	RequiredItems     int            `gorm:"column:required_items;not null" json:"required_items"`
	CompletedRequired int            `gorm:"column:completed_required;not null" json:"completed_required"`
	Snapshot          datatypes.JSON `gorm:"type:jsonb;column:snapshot" json:"snapshot,omitempty"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
}

func (VerificationReport) TableName() string { return "verification_report" }
