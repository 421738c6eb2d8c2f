package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

// CommitteeVoteRepo is append-only; cast votes are immutable.
type CommitteeVoteRepo interface {
	Append(ctx context.Context, tx *gorm.DB, vote *types.CommitteeVote) (*types.CommitteeVote, error)
	GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) ([]*types.CommitteeVote, error)
	MemberHasVoted(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, memberID string) (bool, error)
}

type committeeVoteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommitteeVoteRepo(db *gorm.DB, baseLog *logger.Logger) CommitteeVoteRepo {
	return &committeeVoteRepo{db: db, log: baseLog.With("repo", "CommitteeVoteRepo")}
}

func (vr *committeeVoteRepo) Append(ctx context.Context, tx *gorm.DB, vote *types.CommitteeVote) (*types.CommitteeVote, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	if err := transaction.WithContext(ctx).Create(vote).Error; err != nil {
		return nil, err
	}
	return vote, nil
}

func (vr *committeeVoteRepo) GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) ([]*types.CommitteeVote, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	var results []*types.CommitteeVote
	if err := transaction.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (vr *committeeVoteRepo) MemberHasVoted(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, memberID string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.CommitteeVote{}).
		Where("claim_id = ? AND member_id = ?", claimID, memberID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
