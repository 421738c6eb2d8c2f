package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

type ClaimDocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, docs []*types.ClaimDocument) ([]*types.ClaimDocument, error)
	GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) ([]*types.ClaimDocument, error)
}

type claimDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClaimDocumentRepo(db *gorm.DB, baseLog *logger.Logger) ClaimDocumentRepo {
	return &claimDocumentRepo{db: db, log: baseLog.With("repo", "ClaimDocumentRepo")}
}

func (dr *claimDocumentRepo) Create(ctx context.Context, tx *gorm.DB, docs []*types.ClaimDocument) ([]*types.ClaimDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	if len(docs) == 0 {
		return []*types.ClaimDocument{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (dr *claimDocumentRepo) GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) ([]*types.ClaimDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	var results []*types.ClaimDocument
	if err := transaction.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
