package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

type ClaimRepo interface {
	Create(ctx context.Context, tx *gorm.DB, claims []*types.Claim) ([]*types.Claim, error)
	GetByID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*types.Claim, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Claim, error)
	CountForYear(ctx context.Context, tx *gorm.DB, year int) (int64, error)
	CountByStatus(ctx context.Context, tx *gorm.DB) (map[types.ClaimStatus]int64, error)
	// UpdateVersioned applies updates only if the stored version matches
	// expectedVersion, bumping version by one. Returns gorm.ErrRecordNotFound
	// style miss as (false, nil) when another writer got there first.
	UpdateVersioned(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, expectedVersion int64, updates map[string]interface{}) (bool, error)
}

type claimRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClaimRepo(db *gorm.DB, baseLog *logger.Logger) ClaimRepo {
	return &claimRepo{db: db, log: baseLog.With("repo", "ClaimRepo")}
}

func (cr *claimRepo) Create(ctx context.Context, tx *gorm.DB, claims []*types.Claim) ([]*types.Claim, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(claims) == 0 {
		return []*types.Claim{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&claims).Error; err != nil {
		return nil, err
	}
	return claims, nil
}

func (cr *claimRepo) GetByID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*types.Claim, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var claim types.Claim
	if err := transaction.WithContext(ctx).
		Preload("Documents").
		Where("id = ?", claimID).
		First(&claim).Error; err != nil {
		return nil, err
	}
	return &claim, nil
}

func (cr *claimRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Claim, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Claim
	if err := transaction.WithContext(ctx).
		Preload("Documents").
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *claimRepo) CountForYear(ctx context.Context, tx *gorm.DB, year int) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Claim{}).
		Where("claim_number LIKE ?", claimNumberPrefix(year)+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func claimNumberPrefix(year int) string {
	return fmt.Sprintf("FR%d", year)
}

func (cr *claimRepo) CountByStatus(ctx context.Context, tx *gorm.DB) (map[types.ClaimStatus]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var rows []struct {
		Status types.ClaimStatus
		Count  int64
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Claim{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[types.ClaimStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (cr *claimRepo) UpdateVersioned(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, expectedVersion int64, updates map[string]interface{}) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	updates["version"] = expectedVersion + 1
	res := transaction.WithContext(ctx).
		Model(&types.Claim{}).
		Where("id = ? AND version = ?", claimID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
