package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

type ChecklistItemRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, items []*types.ChecklistItem) ([]*types.ChecklistItem, error)
	GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) ([]*types.ChecklistItem, error)
	GetItem(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, category types.ChecklistCategory, itemKey string) (*types.ChecklistItem, error)
	UpdateItem(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, updates map[string]interface{}) error
}

type checklistItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChecklistItemRepo(db *gorm.DB, baseLog *logger.Logger) ChecklistItemRepo {
	return &checklistItemRepo{db: db, log: baseLog.With("repo", "ChecklistItemRepo")}
}

func (cr *checklistItemRepo) CreateBatch(ctx context.Context, tx *gorm.DB, items []*types.ChecklistItem) ([]*types.ChecklistItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(items) == 0 {
		return []*types.ChecklistItem{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (cr *checklistItemRepo) GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) ([]*types.ChecklistItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.ChecklistItem
	if err := transaction.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("category ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *checklistItemRepo) GetItem(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, category types.ChecklistCategory, itemKey string) (*types.ChecklistItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var item types.ChecklistItem
	if err := transaction.WithContext(ctx).
		Where("claim_id = ? AND category = ? AND item_key = ?", claimID, category, itemKey).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (cr *checklistItemRepo) UpdateItem(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ChecklistItem{}).
		Where("id = ?", itemID).
		Updates(updates).Error
}
