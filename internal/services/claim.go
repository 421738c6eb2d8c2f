package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Atharrvac/vanadhikar-backend/internal/apierr"
	"github.com/Atharrvac/vanadhikar-backend/internal/locking"
	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/observability"
	"github.com/Atharrvac/vanadhikar-backend/internal/repos"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

// ValidationFailedError carries the full field-level results so the caller
// can render errors grouped by stage and field.
type ValidationFailedError struct {
	Stages map[Stage]StageResult `json:"stages"`
}

func (e *ValidationFailedError) Error() string {
	total := 0
	for _, result := range e.Stages {
		total += len(result.Errors)
	}
	return fmt.Sprintf("claim validation failed with %d field errors", total)
}

type DocumentRef struct {
	DocType   string `json:"doc_type"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Verified  bool   `json:"verified"`
}

type SubmitClaimInput struct {
	ApplicantName  string          `json:"applicant_name"`
	GuardianName   string          `json:"guardian_name"`
	MobileNumber   string          `json:"mobile_number"`
	Email          string          `json:"email"`
	Village        string          `json:"village"`
	District       string          `json:"district"`
	State          string          `json:"state"`
	ClaimType      types.ClaimType `json:"claim_type"`
	LandType       string          `json:"land_type"`
	Description    string          `json:"description"`
	AreaHectares   float64         `json:"area_hectares"`
	CenterLat      *float64        `json:"center_lat"`
	CenterLng      *float64        `json:"center_lng"`
	BoundaryPoints json.RawMessage `json:"boundary_points"`
	Declaration1   bool            `json:"declaration1"`
	Declaration2   bool            `json:"declaration2"`
	DataConsent    bool            `json:"data_consent"`
	Priority       types.Priority  `json:"priority"`
	Documents      []DocumentRef   `json:"documents"`
	Draft          bool            `json:"draft"`
}

type ClaimService interface {
	SubmitClaim(ctx context.Context, actor types.Actor, input SubmitClaimInput) (*types.Claim, error)
	GetClaim(ctx context.Context, claimID uuid.UUID) (*types.Claim, error)
	GetHistory(ctx context.Context, claimID uuid.UUID) ([]*types.ClaimEvent, error)
	ValidateStage(ctx context.Context, claimID uuid.UUID, stage Stage) (StageResult, error)
	SetPriority(ctx context.Context, claimID uuid.UUID, actor types.Actor, priority types.Priority) (*types.Claim, error)
	AssignOfficer(ctx context.Context, claimID uuid.UUID, actor types.Actor, officerID string) (*types.Claim, error)
}

type claimService struct {
	db           *gorm.DB
	log          *logger.Logger
	claimRepo    repos.ClaimRepo
	documentRepo repos.ClaimDocumentRepo
	eventRepo    repos.ClaimEventRepo
	locker       *locking.PerKeyLocker
	notifier     Notifier
	metrics      *observability.Metrics
	storeTimeout time.Duration
}

func NewClaimService(
	db *gorm.DB,
	baseLog *logger.Logger,
	claimRepo repos.ClaimRepo,
	documentRepo repos.ClaimDocumentRepo,
	eventRepo repos.ClaimEventRepo,
	locker *locking.PerKeyLocker,
	notifier Notifier,
	metrics *observability.Metrics,
	storeTimeout time.Duration,
) ClaimService {
	return &claimService{
		db:           db,
		log:          baseLog.With("service", "ClaimService"),
		claimRepo:    claimRepo,
		documentRepo: documentRepo,
		eventRepo:    eventRepo,
		locker:       locker,
		notifier:     notifier,
		metrics:      metrics,
		storeTimeout: storeTimeout,
	}
}

// SubmitClaim creates a claim at intake. Non-draft submissions must pass the
// full review validation; drafts are stored as-is and validated later.
func (cs *claimService) SubmitClaim(ctx context.Context, actor types.Actor, input SubmitClaimInput) (*types.Claim, error) {
	now := time.Now()
	claim := &types.Claim{
		ID:            uuid.New(),
		ApplicantName: strings.TrimSpace(input.ApplicantName),
		GuardianName:  strings.TrimSpace(input.GuardianName),
		MobileNumber:  strings.TrimSpace(input.MobileNumber),
		Email:         strings.TrimSpace(input.Email),
		Village:       strings.TrimSpace(input.Village),
		District:      strings.TrimSpace(input.District),
		State:         strings.TrimSpace(input.State),
		ClaimType:     input.ClaimType,
		LandType:      strings.TrimSpace(input.LandType),
		Description:   strings.TrimSpace(input.Description),
		AreaHectares:  input.AreaHectares,
		CenterLat:     input.CenterLat,
		CenterLng:     input.CenterLng,
		Declaration1:  input.Declaration1,
		Declaration2:  input.Declaration2,
		DataConsent:   input.DataConsent,
		Status:        types.StatusDraft,
		Priority:      input.Priority,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if len(input.BoundaryPoints) > 0 {
		claim.BoundaryPoints = []byte(input.BoundaryPoints)
	}
	var docs []*types.ClaimDocument
	for _, ref := range input.Documents {
		docs = append(docs, &types.ClaimDocument{
			ID:        uuid.New(),
			ClaimID:   claim.ID,
			DocType:   ref.DocType,
			Name:      ref.Name,
			SizeBytes: ref.SizeBytes,
			Verified:  ref.Verified,
			CreatedAt: now,
		})
	}
	// Review-stage validation counts attached document references.
	for _, doc := range docs {
		claim.Documents = append(claim.Documents, *doc)
	}
	if claim.Priority == "" {
		claim.Priority = defaultPriority(claim)
	} else if !claim.Priority.Valid() {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "unknown priority %q", claim.Priority)
	}

	if !input.Draft {
		stages := map[Stage]StageResult{}
		for _, stage := range []Stage{StageDocuments, StageMetadata, StageLocation} {
			result := ValidateStage(stage, claim)
			if !result.OK() {
				stages[stage] = result
				cs.metrics.ObserveValidationFailure(string(stage))
			}
		}
		if len(stages) > 0 {
			return nil, &ValidationFailedError{Stages: stages}
		}
		claim.Status = types.StatusSubmitted
		claim.SubmittedAt = &now
	}

	storeCtx, cancel := withStoreTimeout(ctx, cs.storeTimeout)
	defer cancel()

	event := &types.ClaimEvent{
		ID:        uuid.New(),
		ClaimID:   claim.ID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		ToStatus:  claim.Status,
		Reason:    "claim created",
		CreatedAt: now,
	}

	// Documents are inserted through their own repo; the slice on the claim
	// is only for validation and the response body.
	attached := claim.Documents
	claim.Documents = nil

	// Claim numbers come from a count of this year's claims, so two intakes
	// can race to the same number. The unique index rejects the collision
	// and the insert is retried with the next candidate.
	var txErr error
	for attempt := 0; attempt < claimNumberRetries; attempt++ {
		number, err := cs.nextClaimNumber(storeCtx, now, attempt)
		if err != nil {
			return nil, err
		}
		claim.ClaimNumber = number

		txErr = cs.db.Transaction(func(tx *gorm.DB) error {
			if _, err := cs.claimRepo.Create(storeCtx, tx, []*types.Claim{claim}); err != nil {
				return storeErr(err)
			}
			if len(docs) > 0 {
				if _, err := cs.documentRepo.Create(storeCtx, tx, docs); err != nil {
					return storeErr(err)
				}
			}
			if _, err := cs.eventRepo.Append(storeCtx, tx, []*types.ClaimEvent{event}); err != nil {
				return storeErr(err)
			}
			return nil
		})
		if txErr == nil || !errors.Is(txErr, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if txErr != nil {
		return nil, txErr
	}
	claim.Documents = attached

	cs.log.Info("Claim created",
		"claim_number", claim.ClaimNumber,
		"status", claim.Status,
		"claim_type", claim.ClaimType,
		"priority", claim.Priority,
	)
	if claim.Status == types.StatusSubmitted {
		cs.notifier.Publish(ctx, DomainEvent{
			EventType: EventClaimSubmitted,
			ClaimID:   claim.ID.String(),
			Timestamp: now,
			Actor:     actor,
		})
	}
	return claim, nil
}

// defaultPriority is the intake heuristic only; priority is an explicit
// attribute afterwards and is never re-derived.
func defaultPriority(claim *types.Claim) types.Priority {
	switch claim.ClaimType {
	case types.ClaimTypeCommunity, types.ClaimTypeCommunityResource, types.ClaimTypeHabitat:
		return types.PriorityHigh
	}
	if claim.AreaHectares >= 10 {
		return types.PriorityHigh
	}
	if claim.AreaHectares >= 4 {
		return types.PriorityMedium
	}
	return types.PriorityLow
}

const claimNumberRetries = 3

// nextClaimNumber derives a candidate from this year's claim count. The
// offset skips past numbers that already lost a race.
func (cs *claimService) nextClaimNumber(ctx context.Context, now time.Time, offset int) (string, error) {
	count, err := cs.claimRepo.CountForYear(ctx, nil, now.Year())
	if err != nil {
		return "", storeErr(err)
	}
	return fmt.Sprintf("FR%d%03d", now.Year(), count+1+int64(offset)), nil
}

func (cs *claimService) GetClaim(ctx context.Context, claimID uuid.UUID) (*types.Claim, error) {
	storeCtx, cancel := withStoreTimeout(ctx, cs.storeTimeout)
	defer cancel()

	claim, err := cs.claimRepo.GetByID(storeCtx, nil, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("claim")
		}
		return nil, storeErr(err)
	}
	return claim, nil
}

func (cs *claimService) GetHistory(ctx context.Context, claimID uuid.UUID) ([]*types.ClaimEvent, error) {
	storeCtx, cancel := withStoreTimeout(ctx, cs.storeTimeout)
	defer cancel()

	events, err := cs.eventRepo.GetByClaimID(storeCtx, nil, claimID)
	if err != nil {
		return nil, storeErr(err)
	}
	return events, nil
}

func (cs *claimService) ValidateStage(ctx context.Context, claimID uuid.UUID, stage Stage) (StageResult, error) {
	if !stage.Valid() {
		return StageResult{}, apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "unknown validation stage %q", stage)
	}
	claim, err := cs.GetClaim(ctx, claimID)
	if err != nil {
		return StageResult{}, err
	}
	result := ValidateStage(stage, claim)
	if !result.OK() {
		cs.metrics.ObserveValidationFailure(string(stage))
	}
	return result, nil
}

func (cs *claimService) SetPriority(ctx context.Context, claimID uuid.UUID, actor types.Actor, priority types.Priority) (*types.Claim, error) {
	if !priority.Valid() {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "unknown priority %q", priority)
	}
	return cs.updateClaimField(ctx, claimID, actor,
		map[string]interface{}{"priority": priority},
		fmt.Sprintf("priority set to %s", priority))
}

func (cs *claimService) AssignOfficer(ctx context.Context, claimID uuid.UUID, actor types.Actor, officerID string) (*types.Claim, error) {
	if strings.TrimSpace(officerID) == "" {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "officer id is required")
	}
	return cs.updateClaimField(ctx, claimID, actor,
		map[string]interface{}{"assigned_officer": officerID},
		fmt.Sprintf("assigned to officer %s", officerID))
}

func (cs *claimService) updateClaimField(ctx context.Context, claimID uuid.UUID, actor types.Actor, updates map[string]interface{}, reason string) (*types.Claim, error) {
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
	if claim.Status.IsTerminal() {
		return nil, apierr.Newf(http.StatusConflict, apierr.CodeInvalidState,
			"claim is %s and can no longer be modified", claim.Status)
	}

	event := &types.ClaimEvent{
		ID:         uuid.New(),
		ClaimID:    claim.ID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		FromStatus: claim.Status,
		ToStatus:   claim.Status,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}
	txErr := cs.db.Transaction(func(tx *gorm.DB) error {
		ok, err := cs.claimRepo.UpdateVersioned(storeCtx, tx, claim.ID, claim.Version, updates)
		if err != nil {
			return storeErr(err)
		}
		if !ok {
			return apierr.Newf(http.StatusConflict, apierr.CodeConflict,
				"claim %s was modified concurrently, retry", claim.ClaimNumber)
		}
		if _, err := cs.eventRepo.Append(storeCtx, tx, []*types.ClaimEvent{event}); err != nil {
			return storeErr(err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return cs.claimRepo.GetByID(storeCtx, nil, claimID)
}
