package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ClaimStatus string

const (
	StatusDraft                    ClaimStatus = "draft"
	StatusSubmitted                ClaimStatus = "submitted"
	StatusFieldVerificationPending ClaimStatus = "field_verification_pending"
	StatusUnderVerification        ClaimStatus = "under_verification"
	StatusVerified                 ClaimStatus = "verified"
	StatusCommitteeReview          ClaimStatus = "committee_review"
	StatusApproved                 ClaimStatus = "approved"
	StatusApprovedConditional      ClaimStatus = "approved_conditional"
	StatusRejected                 ClaimStatus = "rejected"
	StatusReturnedForInfo          ClaimStatus = "returned_for_info"
)

// Terminal statuses have no outgoing transitions.
func (s ClaimStatus) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusApprovedConditional, StatusRejected:
		return true
	default:
		return false
	}
}

type ClaimType string

const (
	ClaimTypeIndividual        ClaimType = "individual"
	ClaimTypeCommunity         ClaimType = "community"
	ClaimTypeCommunityResource ClaimType = "community_resource"
	ClaimTypeHabitat           ClaimType = "habitat"
	ClaimTypeDevelopment       ClaimType = "development"
)

func (t ClaimType) Valid() bool {
	switch t {
	case ClaimTypeIndividual, ClaimTypeCommunity, ClaimTypeCommunityResource, ClaimTypeHabitat, ClaimTypeDevelopment:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank orders priorities for queue sorting (high=3, medium=2, low=1).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type Role string

const (
	RoleClaimant        Role = "claimant"
	RoleFieldOfficer    Role = "field_officer"
	RoleCommitteeMember Role = "committee_member"
	RoleCommitteeChair  Role = "committee_chair"
	RoleAdmin           Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClaimant, RoleFieldOfficer, RoleCommitteeMember, RoleCommitteeChair, RoleAdmin:
		return true
	default:
		return false
	}
}

// National bounding box for submitted claim coordinates (India).
const (
	MinLatitude  = 6.0
	MaxLatitude  = 37.0
	MinLongitude = 68.0
	MaxLongitude = 97.0
)

type Claim struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimNumber     string          `gorm:"uniqueIndex;not null;column:claim_number" json:"claim_number"`
	ApplicantName   string          `gorm:"not null;column:applicant_name" json:"applicant_name"`
	GuardianName    string          `gorm:"column:guardian_name" json:"guardian_name"`
	MobileNumber    string          `gorm:"column:mobile_number" json:"mobile_number"`
	Email           string          `gorm:"column:email" json:"email"`
	Village         string          `gorm:"column:village;index" json:"village"`
	District        string          `gorm:"column:district;index" json:"district"`
	State           string          `gorm:"column:state" json:"state"`
	ClaimType       ClaimType       `gorm:"column:claim_type;not null" json:"claim_type"`
	LandType        string          `gorm:"column:land_type" json:"land_type"`
	Description     string          `gorm:"column:description" json:"description"`
	AreaHectares    float64         `gorm:"column:area_hectares;not null" json:"area_hectares"`
	CenterLat       *float64        `gorm:"column:center_lat" json:"center_lat,omitempty"`
	CenterLng       *float64        `gorm:"column:center_lng" json:"center_lng,omitempty"`
	BoundaryPoints  datatypes.JSON  `gorm:"type:jsonb;column:boundary_points" json:"boundary_points,omitempty"`
	Declaration1    bool            `gorm:"column:declaration1;not null;default:false" json:"declaration1"`
	Declaration2    bool            `gorm:"column:declaration2;not null;default:false" json:"declaration2"`
	DataConsent     bool            `gorm:"column:data_consent;not null;default:false" json:"data_consent"`
	Status          ClaimStatus     `gorm:"column:status;not null;default:'draft';index" json:"status"`
	Priority        Priority        `gorm:"column:priority;not null;default:'low'" json:"priority"`
	AssignedOfficer string          `gorm:"column:assigned_officer;index" json:"assigned_officer"`
	Version         int64           `gorm:"column:version;not null;default:1" json:"version"`
	Documents       []ClaimDocument `gorm:"foreignKey:ClaimID;references:ID" json:"documents,omitempty"`
	SubmittedAt     *time.Time      `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

func (Claim) TableName() string { return "claim" }

// DaysInQueue is measured from submission; drafts have not entered the queue.
func (c *Claim) DaysInQueue(now time.Time) int {
	if c.SubmittedAt == nil {
		return 0
	}
	d := now.Sub(*c.SubmittedAt)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}
