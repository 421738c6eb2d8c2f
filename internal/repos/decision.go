package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

type DecisionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, decision *types.Decision) (*types.Decision, error)
	GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*types.Decision, error)
	ExistsForClaim(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (bool, error)
}

type decisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDecisionRepo(db *gorm.DB, baseLog *logger.Logger) DecisionRepo {
	return &decisionRepo{db: db, log: baseLog.With("repo", "DecisionRepo")}
}

func (dr *decisionRepo) Create(ctx context.Context, tx *gorm.DB, decision *types.Decision) (*types.Decision, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	if err := transaction.WithContext(ctx).Create(decision).Error; err != nil {
		return nil, err
	}
	return decision, nil
}

func (dr *decisionRepo) GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*types.Decision, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	var decision types.Decision
	if err := transaction.WithContext(ctx).
		Where("claim_id = ?", claimID).
		First(&decision).Error; err != nil {
		return nil, err
	}
	return &decision, nil
}

func (dr *decisionRepo) ExistsForClaim(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (bool, error) {
	_, err := dr.GetByClaimID(ctx, tx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
