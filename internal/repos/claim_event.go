package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

// ClaimEventRepo is append-only; history rows are never mutated.
type ClaimEventRepo interface {
	Append(ctx context.Context, tx *gorm.DB, events []*types.ClaimEvent) ([]*types.ClaimEvent, error)
	GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) ([]*types.ClaimEvent, error)
}

type claimEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClaimEventRepo(db *gorm.DB, baseLog *logger.Logger) ClaimEventRepo {
	return &claimEventRepo{db: db, log: baseLog.With("repo", "ClaimEventRepo")}
}

func (er *claimEventRepo) Append(ctx context.Context, tx *gorm.DB, events []*types.ClaimEvent) ([]*types.ClaimEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	if len(events) == 0 {
		return []*types.ClaimEvent{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (er *claimEventRepo) GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) ([]*types.ClaimEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var results []*types.ClaimEvent
	if err := transaction.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
