package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

// newTestDB opens an isolated in-memory database with the production gorm
// configuration, including unique violation translation.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&types.Claim{},
		&types.ClaimDocument{},
		&types.ClaimEvent{},
		&types.ChecklistItem{},
		&types.VerificationReport{},
		&types.CommitteeVote{},
		&types.Decision{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("build test logger: %v", err)
	}
	return log
}

var seededClaims int64

// seedClaim inserts a complete claim already at the given lifecycle status.
func seedClaim(t *testing.T, db *gorm.DB, status types.ClaimStatus) *types.Claim {
	t.Helper()
	now := time.Now()
	claim := completeClaim()
	claim.ID = uuid.New()
	claim.ClaimNumber = fmt.Sprintf("FR%d9%02d", now.Year(), atomic.AddInt64(&seededClaims, 1))
	claim.Status = status
	claim.Priority = types.PriorityMedium
	claim.Version = 1
	claim.Documents = nil
	if status != types.StatusDraft {
		claim.SubmittedAt = &now
	}
	claim.CreatedAt = now
	claim.UpdatedAt = now
	if err := db.Create(claim).Error; err != nil {
		t.Fatalf("seed claim: %v", err)
	}
	return claim
}
