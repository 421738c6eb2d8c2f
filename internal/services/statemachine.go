package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
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

type transitionEdge struct {
	From types.ClaimStatus
	To   types.ClaimStatus
}

// Legal lifecycle edges. Terminal statuses have no outgoing entries.
var transitionAdjacency = map[types.ClaimStatus][]types.ClaimStatus{
	types.StatusDraft:                    {types.StatusSubmitted},
	types.StatusSubmitted:                {types.StatusFieldVerificationPending},
	types.StatusFieldVerificationPending: {types.StatusUnderVerification},
	types.StatusUnderVerification:        {types.StatusVerified},
	types.StatusVerified:                 {types.StatusCommitteeReview},
	types.StatusCommitteeReview: {
		types.StatusApproved,
		types.StatusApprovedConditional,
		types.StatusRejected,
		types.StatusReturnedForInfo,
	},
	types.StatusReturnedForInfo: {types.StatusSubmitted},
}

// Authorization table: which roles may drive each edge. Admin is the
// operational escape hatch on claimant-side edges only.
var edgeRoles = map[transitionEdge][]types.Role{
	{types.StatusDraft, types.StatusSubmitted}:                            {types.RoleClaimant, types.RoleAdmin},
	{types.StatusSubmitted, types.StatusFieldVerificationPending}:         {types.RoleFieldOfficer, types.RoleAdmin},
	{types.StatusFieldVerificationPending, types.StatusUnderVerification}: {types.RoleFieldOfficer, types.RoleAdmin},
	{types.StatusUnderVerification, types.StatusVerified}:                 {types.RoleFieldOfficer},
	{types.StatusVerified, types.StatusCommitteeReview}:                   {types.RoleFieldOfficer, types.RoleAdmin},
	{types.StatusCommitteeReview, types.StatusApproved}:                   {types.RoleCommitteeMember, types.RoleCommitteeChair},
	{types.StatusCommitteeReview, types.StatusApprovedConditional}:        {types.RoleCommitteeMember, types.RoleCommitteeChair},
	{types.StatusCommitteeReview, types.StatusRejected}:                   {types.RoleCommitteeMember, types.RoleCommitteeChair},
	{types.StatusCommitteeReview, types.StatusReturnedForInfo}:            {types.RoleCommitteeMember, types.RoleCommitteeChair},
	{types.StatusReturnedForInfo, types.StatusSubmitted}:                  {types.RoleClaimant, types.RoleAdmin},
}

// CanTransition reports whether an edge exists in the lifecycle graph.
func CanTransition(from, to types.ClaimStatus) bool {
	for _, next := range transitionAdjacency[from] {
		if next == to {
			return true
		}
	}
	return false
}

func roleAllowed(edge transitionEdge, role types.Role) bool {
	for _, allowed := range edgeRoles[edge] {
		if allowed == role {
			return true
		}
	}
	return false
}

// ChecklistGate is implemented by the verification checklist engine; the
// state machine consults it before allowing the verified edge.
type ChecklistGate interface {
	GatePassed(ctx context.Context, claimID uuid.UUID) (bool, error)
}

type TransitionPayload struct {
	Reason   string                    `json:"reason,omitempty"`
	Report   *types.VerificationReport `json:"report,omitempty"`
	Decision *types.Decision           `json:"decision,omitempty"`
}

type StateMachineService interface {
	Transition(ctx context.Context, claimID uuid.UUID, target types.ClaimStatus, actor types.Actor, payload TransitionPayload) (*types.Claim, error)
}

type stateMachineService struct {
	db           *gorm.DB
	log          *logger.Logger
	claimRepo    repos.ClaimRepo
	eventRepo    repos.ClaimEventRepo
	reportRepo   repos.VerificationReportRepo
	decisionRepo repos.DecisionRepo
	gate         ChecklistGate
	locker       *locking.PerKeyLocker
	notifier     Notifier
	metrics      *observability.Metrics
	storeTimeout time.Duration
}

func NewStateMachineService(
	db *gorm.DB,
	baseLog *logger.Logger,
	claimRepo repos.ClaimRepo,
	eventRepo repos.ClaimEventRepo,
	reportRepo repos.VerificationReportRepo,
	decisionRepo repos.DecisionRepo,
	gate ChecklistGate,
	locker *locking.PerKeyLocker,
	notifier Notifier,
	metrics *observability.Metrics,
	storeTimeout time.Duration,
) StateMachineService {
	return &stateMachineService{
		db:           db,
		log:          baseLog.With("service", "StateMachineService"),
		claimRepo:    claimRepo,
		eventRepo:    eventRepo,
		reportRepo:   reportRepo,
		decisionRepo: decisionRepo,
		gate:         gate,
		locker:       locker,
		notifier:     notifier,
		metrics:      metrics,
		storeTimeout: storeTimeout,
	}
}

// Transition moves a claim along one lifecycle edge. Atomic: the status
// change and its history entry commit together or not at all.
func (sm *stateMachineService) Transition(
	ctx context.Context,
	claimID uuid.UUID,
	target types.ClaimStatus,
	actor types.Actor,
	payload TransitionPayload,
) (*types.Claim, error) {
	sm.locker.Lock(claimID.String())
	defer sm.locker.Unlock(claimID.String())

	storeCtx, cancel := withStoreTimeout(ctx, sm.storeTimeout)
	defer cancel()

	claim, err := sm.claimRepo.GetByID(storeCtx, nil, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("claim")
		}
		return nil, storeErr(err)
	}

	from := claim.Status
	edge := transitionEdge{From: from, To: target}

	if !CanTransition(from, target) {
		sm.metrics.ObserveTransition(string(from), string(target), "illegal")
		return nil, apierr.Newf(http.StatusConflict, apierr.CodeIllegalTransition,
			"no transition from %s to %s", from, target)
	}
	if !roleAllowed(edge, actor.Role) {
		sm.metrics.ObserveTransition(string(from), string(target), "unauthorized")
		return nil, apierr.Newf(http.StatusForbidden, apierr.CodeUnauthorized,
			"role %s may not move a claim from %s to %s", actor.Role, from, target)
	}
	if err := sm.checkGuard(storeCtx, claim, edge, payload); err != nil {
		sm.metrics.ObserveTransition(string(from), string(target), "guard_failed")
		return nil, err
	}

	updates := map[string]interface{}{"status": target}
	now := time.Now()
	if target == types.StatusSubmitted && claim.SubmittedAt == nil {
		updates["submitted_at"] = now
	}

	event := &types.ClaimEvent{
		ID:         uuid.New(),
		ClaimID:    claim.ID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		FromStatus: from,
		ToStatus:   target,
		Reason:     payload.Reason,
		CreatedAt:  now,
	}
	if raw, err := json.Marshal(payload); err == nil && string(raw) != "{}" {
		event.Payload = raw
	}

	txErr := sm.db.Transaction(func(tx *gorm.DB) error {
		ok, err := sm.claimRepo.UpdateVersioned(storeCtx, tx, claim.ID, claim.Version, updates)
		if err != nil {
			return storeErr(err)
		}
		if !ok {
			return apierr.Newf(http.StatusConflict, apierr.CodeConflict,
				"claim %s was modified concurrently, retry", claim.ClaimNumber)
		}
		if _, err := sm.eventRepo.Append(storeCtx, tx, []*types.ClaimEvent{event}); err != nil {
			return storeErr(err)
		}
		if payload.Report != nil {
			if _, err := sm.reportRepo.Create(storeCtx, tx, payload.Report); err != nil {
				return storeErr(err)
			}
		}
		if payload.Decision != nil {
			if _, err := sm.decisionRepo.Create(storeCtx, tx, payload.Decision); err != nil {
				return storeErr(err)
			}
		}
		return nil
	})
	if txErr != nil {
		sm.metrics.ObserveTransition(string(from), string(target), "error")
		return nil, txErr
	}

	claim.Status = target
	claim.Version++
	if target == types.StatusSubmitted && claim.SubmittedAt == nil {
		claim.SubmittedAt = &now
	}

	sm.metrics.ObserveTransition(string(from), string(target), "ok")
	sm.log.Info("Claim transitioned",
		"claim_number", claim.ClaimNumber,
		"from", from,
		"to", target,
		"actor_role", actor.Role,
	)
	sm.emit(ctx, claim, target, actor, payload)

	return claim, nil
}

func (sm *stateMachineService) checkGuard(ctx context.Context, claim *types.Claim, edge transitionEdge, payload TransitionPayload) error {
	switch {
	case edge.To == types.StatusSubmitted:
		// Intake resubmission gate: the whole record must validate.
		result := ValidateStage(StageReview, claim)
		if !result.OK() {
			sm.metrics.ObserveValidationFailure(string(StageReview))
			return apierr.Newf(http.StatusUnprocessableEntity, apierr.CodeGuardFailed,
				"review validation failed for fields: %s", strings.Join(fieldNames(result.Errors), ", "))
		}
	case edge.To == types.StatusVerified:
		passed, err := sm.gate.GatePassed(ctx, claim.ID)
		if err != nil {
			return storeErr(err)
		}
		if !passed {
			return apierr.Newf(http.StatusUnprocessableEntity, apierr.CodeGuardFailed,
				"verification checklist has unchecked required items")
		}
	case edge.To == types.StatusCommitteeReview:
		result := ValidateStage(StageReview, claim)
		if !result.OK() {
			sm.metrics.ObserveValidationFailure(string(StageReview))
			return apierr.Newf(http.StatusUnprocessableEntity, apierr.CodeGuardFailed,
				"review validation failed for fields: %s", strings.Join(fieldNames(result.Errors), ", "))
		}
	case edge.To.IsTerminal():
		if payload.Decision == nil {
			return apierr.Newf(http.StatusUnprocessableEntity, apierr.CodeGuardFailed,
				"terminal transition requires a recorded decision")
		}
		if strings.TrimSpace(payload.Decision.Justification) == "" {
			return apierr.Newf(http.StatusUnprocessableEntity, apierr.CodeGuardFailed,
				"terminal transition requires a non-empty justification")
		}
		if payload.Decision.DecisionType.TargetStatus() != edge.To {
			return apierr.Newf(http.StatusUnprocessableEntity, apierr.CodeGuardFailed,
				"decision %s does not match target state %s", payload.Decision.DecisionType, edge.To)
		}
	}
	return nil
}

func (sm *stateMachineService) emit(ctx context.Context, claim *types.Claim, target types.ClaimStatus, actor types.Actor, payload TransitionPayload) {
	var eventType string
	var eventPayload interface{}
	switch {
	case target == types.StatusSubmitted:
		eventType = EventClaimSubmitted
	case target == types.StatusVerified:
		eventType = EventClaimVerified
		eventPayload = payload.Report
	case target.IsTerminal():
		eventType = EventClaimDecided
		eventPayload = payload.Decision
	default:
		return
	}
	sm.notifier.Publish(ctx, DomainEvent{
		EventType: eventType,
		ClaimID:   claim.ID.String(),
		Timestamp: time.Now(),
		Actor:     actor,
		Payload:   eventPayload,
	})
}

func fieldNames(errs map[string]string) []string {
	names := make([]string, 0, len(errs))
	for field := range errs {
		names = append(names, field)
	}
	sort.Strings(names)
	return names
}
