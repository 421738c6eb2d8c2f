package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/Atharrvac/vanadhikar-backend/internal/apierr"
	"github.com/Atharrvac/vanadhikar-backend/internal/locking"
	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/repos"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

//go:embed checklist_catalog.yaml
var checklistCatalogYAML []byte

type catalogItem struct {
	Key         string `yaml:"key"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

type catalogCategory struct {
	Category types.ChecklistCategory `yaml:"category"`
	Items    []catalogItem           `yaml:"items"`
}

type checklistCatalog struct {
	Categories []catalogCategory `yaml:"categories"`
}

var (
	catalogOnce   sync.Once
	loadedCatalog checklistCatalog
	catalogErr    error
)

func loadCatalog() (checklistCatalog, error) {
	catalogOnce.Do(func() {
		catalogErr = yaml.Unmarshal(checklistCatalogYAML, &loadedCatalog)
	})
	return loadedCatalog, catalogErr
}

type ChecklistStats struct {
	TotalItems        int  `json:"totalItems"`
	CompletedItems    int  `json:"completedItems"`
	RequiredItems     int  `json:"requiredItems"`
	CompletedRequired int  `json:"completedRequired"`
	GatePassed        bool `json:"gatePassed"`
}

func computeStats(items []*types.ChecklistItem) ChecklistStats {
	var stats ChecklistStats
	for _, item := range items {
		stats.TotalItems++
		if item.Checked {
			stats.CompletedItems++
		}
		if item.Required {
			stats.RequiredItems++
			if item.Checked {
				stats.CompletedRequired++
			}
		}
	}
	stats.GatePassed = stats.CompletedRequired == stats.RequiredItems
	return stats
}

type ChecklistService interface {
	GetChecklist(ctx context.Context, claimID uuid.UUID) ([]*types.ChecklistItem, ChecklistStats, error)
	ToggleItem(ctx context.Context, claimID uuid.UUID, category types.ChecklistCategory, itemKey string, checked bool, comments *string) (*types.ChecklistItem, error)
	ComputeStats(ctx context.Context, claimID uuid.UUID) (ChecklistStats, error)
	GatePassed(ctx context.Context, claimID uuid.UUID) (bool, error)
	SubmitVerification(ctx context.Context, claimID uuid.UUID, actor types.Actor, overallComments string, recommendation types.Recommendation) (*types.VerificationReport, error)
	GetReport(ctx context.Context, claimID uuid.UUID) (*types.VerificationReport, error)
}

type checklistService struct {
	db           *gorm.DB
	log          *logger.Logger
	claimRepo    repos.ClaimRepo
	itemRepo     repos.ChecklistItemRepo
	reportRepo   repos.VerificationReportRepo
	stateMachine StateMachineService
	locker       *locking.PerKeyLocker
	storeTimeout time.Duration
}

func NewChecklistService(
	db *gorm.DB,
	baseLog *logger.Logger,
	claimRepo repos.ClaimRepo,
	itemRepo repos.ChecklistItemRepo,
	reportRepo repos.VerificationReportRepo,
	locker *locking.PerKeyLocker,
	storeTimeout time.Duration,
) *checklistService {
	return &checklistService{
		db:           db,
		log:          baseLog.With("service", "ChecklistService"),
		claimRepo:    claimRepo,
		itemRepo:     itemRepo,
		reportRepo:   reportRepo,
		locker:       locker,
		storeTimeout: storeTimeout,
	}
}

// SetStateMachine breaks the construction cycle: the state machine needs the
// checklist gate, the checklist submit drives the state machine.
func (cs *checklistService) SetStateMachine(sm StateMachineService) {
	cs.stateMachine = sm
}

// ensureSeeded creates the claim's checklist from the catalog on first touch.
func (cs *checklistService) ensureSeeded(ctx context.Context, claimID uuid.UUID) ([]*types.ChecklistItem, error) {
	items, err := cs.itemRepo.GetByClaimID(ctx, nil, claimID)
	if err != nil {
		return nil, storeErr(err)
	}
	if len(items) > 0 {
		return items, nil
	}

	catalog, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	seeded := make([]*types.ChecklistItem, 0, 15)
	for _, cat := range catalog.Categories {
		for _, item := range cat.Items {
			seeded = append(seeded, &types.ChecklistItem{
				ID:          uuid.New(),
				ClaimID:     claimID,
				Category:    cat.Category,
				ItemKey:     item.Key,
				Label:       item.Label,
				Description: item.Description,
				Required:    item.Required,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
	}
	if _, err := cs.itemRepo.CreateBatch(ctx, nil, seeded); err != nil {
		return nil, storeErr(err)
	}
	return seeded, nil
}

func (cs *checklistService) GetChecklist(ctx context.Context, claimID uuid.UUID) ([]*types.ChecklistItem, ChecklistStats, error) {
	storeCtx, cancel := withStoreTimeout(ctx, cs.storeTimeout)
	defer cancel()

	if _, err := cs.claimRepo.GetByID(storeCtx, nil, claimID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ChecklistStats{}, apierr.NotFound("claim")
		}
		return nil, ChecklistStats{}, storeErr(err)
	}
	items, err := cs.ensureSeeded(storeCtx, claimID)
	if err != nil {
		return nil, ChecklistStats{}, err
	}
	return items, computeStats(items), nil
}

func (cs *checklistService) ToggleItem(ctx context.Context, claimID uuid.UUID, category types.ChecklistCategory, itemKey string, checked bool, comments *string) (*types.ChecklistItem, error) {
	if !category.Valid() {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "unknown checklist category %q", category)
	}

	cs.locker.Lock(claimID.String())
	defer cs.locker.Unlock(claimID.String())

	storeCtx, cancel := withStoreTimeout(ctx, cs.storeTimeout)
	defer cancel()

	claim, err := cs.claimRepo.GetByID(storeCtx, nil, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("claim")
		}
		return nil, storeErr(err)
	}
	switch claim.Status {
	case types.StatusFieldVerificationPending, types.StatusUnderVerification:
	default:
		return nil, apierr.Newf(http.StatusConflict, apierr.CodeInvalidState,
			"checklist can only be edited during field verification, claim is %s", claim.Status)
	}
	submitted, err := cs.reportRepo.ExistsForClaim(storeCtx, nil, claimID)
	if err != nil {
		return nil, storeErr(err)
	}
	if submitted {
		return nil, apierr.Newf(http.StatusConflict, apierr.CodeInvalidState,
			"verification report already submitted, checklist is read-only")
	}

	if _, err := cs.ensureSeeded(storeCtx, claimID); err != nil {
		return nil, err
	}
	item, err := cs.itemRepo.GetItem(storeCtx, nil, claimID, category, itemKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("checklist item")
		}
		return nil, storeErr(err)
	}

	updates := map[string]interface{}{"checked": checked, "updated_at": time.Now()}
	if comments != nil {
		updates["comments"] = *comments
	}
	if err := cs.itemRepo.UpdateItem(storeCtx, nil, item.ID, updates); err != nil {
		return nil, storeErr(err)
	}
	item.Checked = checked
	if comments != nil {
		item.Comments = *comments
	}
	return item, nil
}

func (cs *checklistService) ComputeStats(ctx context.Context, claimID uuid.UUID) (ChecklistStats, error) {
	storeCtx, cancel := withStoreTimeout(ctx, cs.storeTimeout)
	defer cancel()

	items, err := cs.itemRepo.GetByClaimID(storeCtx, nil, claimID)
	if err != nil {
		return ChecklistStats{}, storeErr(err)
	}
	return computeStats(items), nil
}

// GatePassed reports the checklist gate for the state machine. Seeding on
// first touch means a never-opened checklist still has its required items
// unchecked and the gate holds the transition back.
func (cs *checklistService) GatePassed(ctx context.Context, claimID uuid.UUID) (bool, error) {
	items, err := cs.ensureSeeded(ctx, claimID)
	if err != nil {
		return false, err
	}
	return computeStats(items).GatePassed, nil
}

func (cs *checklistService) SubmitVerification(ctx context.Context, claimID uuid.UUID, actor types.Actor, overallComments string, recommendation types.Recommendation) (*types.VerificationReport, error) {
	if !recommendation.Valid() {
		return nil, apierr.Newf(http.StatusUnprocessableEntity, apierr.CodeMissingRecommendation,
			"a recommendation (approve, reject, clarification, field_visit) is required")
	}

	storeCtx, cancel := withStoreTimeout(ctx, cs.storeTimeout)
	defer cancel()

	claim, err := cs.claimRepo.GetByID(storeCtx, nil, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("claim")
		}
		return nil, storeErr(err)
	}
	if claim.Status != types.StatusUnderVerification {
		return nil, apierr.Newf(http.StatusConflict, apierr.CodeInvalidState,
			"verification can only be submitted while under verification, claim is %s", claim.Status)
	}
	submitted, err := cs.reportRepo.ExistsForClaim(storeCtx, nil, claimID)
	if err != nil {
		return nil, storeErr(err)
	}
	if submitted {
		return nil, apierr.Newf(http.StatusConflict, apierr.CodeInvalidState,
			"verification report already submitted for this claim")
	}

	items, err := cs.ensureSeeded(storeCtx, claimID)
	if err != nil {
		return nil, err
	}
	stats := computeStats(items)
	if !stats.GatePassed {
		return nil, apierr.Newf(http.StatusUnprocessableEntity, apierr.CodeIncompleteRequired,
			"%d of %d required checklist items completed", stats.CompletedRequired, stats.RequiredItems)
	}

	snapshot, _ := json.Marshal(items)
	report := &types.VerificationReport{
		ID:                uuid.New(),
		ClaimID:           claimID,
		OfficerID:         actor.ID,
		OverallComments:   strings.TrimSpace(overallComments),
		Recommendation:    recommendation,
		TotalItems:        stats.TotalItems,
		CompletedItems:    stats.CompletedItems,
		RequiredItems:     stats.RequiredItems,
		CompletedRequired: stats.CompletedRequired,
		Snapshot:          snapshot,
		CreatedAt:         time.Now(),
	}

	// The transition writes the report row in the same transaction as the
	// status change, so a claim never ends up verified without one.
	if _, err := cs.stateMachine.Transition(ctx, claimID, types.StatusVerified, actor, TransitionPayload{
		Reason: "field verification submitted",
		Report: report,
	}); err != nil {
		return nil, err
	}

	cs.log.Info("Verification submitted",
		"claim_id", claimID,
		"recommendation", recommendation,
		"completed_required", stats.CompletedRequired,
	)
	return report, nil
}

func (cs *checklistService) GetReport(ctx context.Context, claimID uuid.UUID) (*types.VerificationReport, error) {
	storeCtx, cancel := withStoreTimeout(ctx, cs.storeTimeout)
	defer cancel()

	report, err := cs.reportRepo.GetByClaimID(storeCtx, nil, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("verification report")
		}
		return nil, storeErr(err)
	}
	return report, nil
}
