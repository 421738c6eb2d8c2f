package types

import (
	"time"

	"github.com/google/uuid"
)

type VoteValue string

const (
	VoteApprove     VoteValue = "approve"
	VoteConditional VoteValue = "conditional"
	VoteReject      VoteValue = "reject"
	VoteAbstain     VoteValue = "abstain"
)

func (v VoteValue) Valid() bool {
	switch v {
	case VoteApprove, VoteConditional, VoteReject, VoteAbstain:
		return true
	default:
		return false
	}
}

// CommitteeVote is append-only: one vote per member per claim, no edits.
type CommitteeVote struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID    uuid.UUID `gorm:"type:uuid;not null;index:idx_claim_member,unique" json:"claim_id"`
	MemberID   string    `gorm:"column:member_id;not null;index:idx_claim_member,unique" json:"member_id"`
	MemberRole Role      `gorm:"column:member_role;not null" json:"member_role"`
	Vote       VoteValue `gorm:"column:vote;not null" json:"vote"`
	Weight     int       `gorm:"column:weight;not null;default:1" json:"weight"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (CommitteeVote) TableName() string { return "committee_vote" }
