package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

type VerificationReportRepo interface {
	Create(ctx context.Context, tx *gorm.DB, report *types.VerificationReport) (*types.VerificationReport, error)
	GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*types.VerificationReport, error)
	ExistsForClaim(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (bool, error)
}

type verificationReportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVerificationReportRepo(db *gorm.DB, baseLog *logger.Logger) VerificationReportRepo {
	return &verificationReportRepo{db: db, log: baseLog.With("repo", "VerificationReportRepo")}
}

func (vr *verificationReportRepo) Create(ctx context.Context, tx *gorm.DB, report *types.VerificationReport) (*types.VerificationReport, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	if err := transaction.WithContext(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

func (vr *verificationReportRepo) GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*types.VerificationReport, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	var report types.VerificationReport
	if err := transaction.WithContext(ctx).
		Where("claim_id = ?", claimID).
		First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (vr *verificationReportRepo) ExistsForClaim(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (bool, error) {
	_, err := vr.GetByClaimID(ctx, tx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
