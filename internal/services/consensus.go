package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
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
	"github.com/Atharrvac/vanadhikar-backend/internal/utils"
)

// ConsensusPolicy holds the committee voting thresholds. These are policy
// knobs, not business law; operators tune them per deployment.
type ConsensusPolicy struct {
	QuorumFraction       float64
	MajorityFraction     float64
	CommitteeTotalWeight int
	DefaultMemberWeight  int
	ChairWeight          int
}

func LoadConsensusPolicy(log *logger.Logger) ConsensusPolicy {
	return ConsensusPolicy{
		QuorumFraction:       utils.GetEnvAsFloat("CONSENSUS_QUORUM_FRACTION", 0.6, log),
		MajorityFraction:     utils.GetEnvAsFloat("CONSENSUS_MAJORITY_FRACTION", 0.5, log),
		CommitteeTotalWeight: utils.GetEnvAsInt("COMMITTEE_TOTAL_WEIGHT", 7, log),
		DefaultMemberWeight:  utils.GetEnvAsInt("COMMITTEE_MEMBER_WEIGHT", 1, log),
		ChairWeight:          utils.GetEnvAsInt("COMMITTEE_CHAIR_WEIGHT", 2, log),
	}
}

type VoteBreakdown struct {
	Count  int `json:"count"`
	Weight int `json:"weight"`
}

type ConsensusResult struct {
	TotalWeight      int                               `json:"totalWeight"`
	VotedWeight      int                               `json:"votedWeight"`
	QuorumMet        bool                              `json:"quorumMet"`
	Breakdown        map[types.VoteValue]VoteBreakdown `json:"breakdown"`
	ConsensusReached bool                              `json:"consensusReached"`
	Tied             bool                              `json:"tied"`
}

// computeConsensus is pure: same vote set and policy, same result.
func computeConsensus(votes []*types.CommitteeVote, policy ConsensusPolicy) ConsensusResult {
	result := ConsensusResult{
		TotalWeight: policy.CommitteeTotalWeight,
		Breakdown: map[types.VoteValue]VoteBreakdown{
			types.VoteApprove:     {},
			types.VoteConditional: {},
			types.VoteReject:      {},
			types.VoteAbstain:     {},
		},
	}
	for _, vote := range votes {
		result.VotedWeight += vote.Weight
		b := result.Breakdown[vote.Vote]
		b.Count++
		b.Weight += vote.Weight
		result.Breakdown[vote.Vote] = b
	}
	result.QuorumMet = result.VotedWeight >= int(math.Ceil(float64(result.TotalWeight)*policy.QuorumFraction))
	approveWeight := result.Breakdown[types.VoteApprove].Weight
	rejectWeight := result.Breakdown[types.VoteReject].Weight
	result.ConsensusReached = float64(approveWeight) > float64(result.TotalWeight)*policy.MajorityFraction
	result.Tied = approveWeight == rejectWeight && approveWeight > 0 && !result.ConsensusReached
	return result
}

type ConsensusService interface {
	CastVote(ctx context.Context, claimID uuid.UUID, actor types.Actor, vote types.VoteValue, weight int) (*types.CommitteeVote, error)
	ComputeConsensus(ctx context.Context, claimID uuid.UUID) (ConsensusResult, error)
	ListVotes(ctx context.Context, claimID uuid.UUID) ([]*types.CommitteeVote, error)
	FinalizeDecision(ctx context.Context, claimID uuid.UUID, actor types.Actor, decisionType types.DecisionType, justification string, conditions []string) (*types.Decision, error)
	GetDecision(ctx context.Context, claimID uuid.UUID) (*types.Decision, error)
}

type consensusService struct {
	db           *gorm.DB
	log          *logger.Logger
	claimRepo    repos.ClaimRepo
	voteRepo     repos.CommitteeVoteRepo
	decisionRepo repos.DecisionRepo
	stateMachine StateMachineService
	locker       *locking.PerKeyLocker
	policy       ConsensusPolicy
	metrics      *observability.Metrics
	storeTimeout time.Duration
}

func NewConsensusService(
	db *gorm.DB,
	baseLog *logger.Logger,
	claimRepo repos.ClaimRepo,
	voteRepo repos.CommitteeVoteRepo,
	decisionRepo repos.DecisionRepo,
	stateMachine StateMachineService,
	locker *locking.PerKeyLocker,
	policy ConsensusPolicy,
	metrics *observability.Metrics,
	storeTimeout time.Duration,
) ConsensusService {
	return &consensusService{
		db:           db,
		log:          baseLog.With("service", "ConsensusService"),
		claimRepo:    claimRepo,
		voteRepo:     voteRepo,
		decisionRepo: decisionRepo,
		stateMachine: stateMachine,
		locker:       locker,
		policy:       policy,
		metrics:      metrics,
		storeTimeout: storeTimeout,
	}
}

// CastVote appends one immutable vote. The duplicate check and the append run
// in one transaction under the per-claim lock, so two concurrent requests
// from the same member cannot both land.
func (cs *consensusService) CastVote(ctx context.Context, claimID uuid.UUID, actor types.Actor, vote types.VoteValue, weight int) (*types.CommitteeVote, error) {
	if !vote.Valid() {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "unknown vote value %q", vote)
	}
	if actor.Role != types.RoleCommitteeMember && actor.Role != types.RoleCommitteeChair {
		return nil, apierr.Newf(http.StatusForbidden, apierr.CodeUnauthorized, "only committee members may vote")
	}
	if weight < 0 {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "vote weight must be positive")
	}
	if weight == 0 {
		weight = cs.policy.DefaultMemberWeight
		if actor.Role == types.RoleCommitteeChair {
			weight = cs.policy.ChairWeight
		}
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
	if claim.Status != types.StatusCommitteeReview {
		return nil, apierr.Newf(http.StatusConflict, apierr.CodeInvalidState,
			"votes can only be cast during committee review, claim is %s", claim.Status)
	}

	record := &types.CommitteeVote{
		ID:         uuid.New(),
		ClaimID:    claimID,
		MemberID:   actor.ID,
		MemberRole: actor.Role,
		Vote:       vote,
		Weight:     weight,
		CreatedAt:  time.Now(),
	}

	txErr := cs.db.Transaction(func(tx *gorm.DB) error {
		voted, err := cs.voteRepo.MemberHasVoted(storeCtx, tx, claimID, actor.ID)
		if err != nil {
			return storeErr(err)
		}
		if voted {
			return apierr.Newf(http.StatusConflict, apierr.CodeDuplicateVote,
				"member %s has already voted on this claim", actor.ID)
		}
		if _, err := cs.voteRepo.Append(storeCtx, tx, record); err != nil {
			// Another process can slip a vote in between the check and the
			// append; the unique index on (claim_id, member_id) is the
			// backstop either way.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierr.Newf(http.StatusConflict, apierr.CodeDuplicateVote,
					"member %s has already voted on this claim", actor.ID)
			}
			return storeErr(err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	cs.metrics.ObserveVote(string(vote))
	cs.log.Info("Committee vote cast", "claim_id", claimID, "vote", vote, "weight", weight)
	return record, nil
}

func (cs *consensusService) ComputeConsensus(ctx context.Context, claimID uuid.UUID) (ConsensusResult, error) {
	storeCtx, cancel := withStoreTimeout(ctx, cs.storeTimeout)
	defer cancel()

	votes, err := cs.voteRepo.GetByClaimID(storeCtx, nil, claimID)
	if err != nil {
		return ConsensusResult{}, storeErr(err)
	}
	return computeConsensus(votes, cs.policy), nil
}

func (cs *consensusService) ListVotes(ctx context.Context, claimID uuid.UUID) ([]*types.CommitteeVote, error) {
	storeCtx, cancel := withStoreTimeout(ctx, cs.storeTimeout)
	defer cancel()

	votes, err := cs.voteRepo.GetByClaimID(storeCtx, nil, claimID)
	if err != nil {
		return nil, storeErr(err)
	}
	return votes, nil
}

// FinalizeDecision records the committee decision and drives the claim to its
// terminal state. Without automatic consensus only the chair may finalize,
// and the decision is logged as a chair override.
func (cs *consensusService) FinalizeDecision(ctx context.Context, claimID uuid.UUID, actor types.Actor, decisionType types.DecisionType, justification string, conditions []string) (*types.Decision, error) {
	if !decisionType.Valid() {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "unknown decision type %q", decisionType)
	}
	if strings.TrimSpace(justification) == "" {
		return nil, apierr.Newf(http.StatusUnprocessableEntity, apierr.CodeEmptyJustification,
			"a decision requires a written justification")
	}
	if len(conditions) > 0 && decisionType != types.DecisionApprovedConditional {
		return nil, apierr.Newf(http.StatusUnprocessableEntity, apierr.CodeInvalidConditions,
			"conditions are only valid for conditional approval")
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
	if claim.Status != types.StatusCommitteeReview {
		return nil, apierr.Newf(http.StatusConflict, apierr.CodeInvalidState,
			"decisions can only be finalized during committee review, claim is %s", claim.Status)
	}
	exists, err := cs.decisionRepo.ExistsForClaim(storeCtx, nil, claimID)
	if err != nil {
		return nil, storeErr(err)
	}
	if exists {
		return nil, apierr.Newf(http.StatusConflict, apierr.CodeInvalidState,
			"a decision has already been recorded for this claim")
	}

	consensus, err := cs.ComputeConsensus(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !consensus.QuorumMet {
		return nil, apierr.Newf(http.StatusUnprocessableEntity, apierr.CodeQuorumNotMet,
			"quorum not met: voted weight %d of %d", consensus.VotedWeight, consensus.TotalWeight)
	}

	override := !consensus.ConsensusReached
	if override && actor.Role != types.RoleCommitteeChair {
		return nil, apierr.Newf(http.StatusForbidden, apierr.CodeUnauthorized,
			"no automatic consensus; only the chair may finalize this decision")
	}

	var conditionsJSON []byte
	if len(conditions) > 0 {
		conditionsJSON, _ = json.Marshal(conditions)
	}
	decision := &types.Decision{
		ID:            uuid.New(),
		ClaimID:       claimID,
		DecisionType:  decisionType,
		Justification: strings.TrimSpace(justification),
		Conditions:    conditionsJSON,
		DecidedBy:     actor.ID,
		ChairOverride: override,
		CreatedAt:     time.Now(),
	}

	if _, err := cs.stateMachine.Transition(ctx, claimID, decisionType.TargetStatus(), actor, TransitionPayload{
		Reason:   "committee decision",
		Decision: decision,
	}); err != nil {
		return nil, err
	}

	mode := "consensus"
	if override {
		mode = "chair_override"
		cs.log.Warn("Decision finalized by chair override without automatic consensus",
			"claim_id", claimID,
			"decision", decisionType,
			"voted_weight", consensus.VotedWeight,
			"approve_weight", consensus.Breakdown[types.VoteApprove].Weight,
			"tied", consensus.Tied,
		)
	} else {
		cs.log.Info("Decision finalized by committee consensus", "claim_id", claimID, "decision", decisionType)
	}
	cs.metrics.ObserveDecision(string(decisionType), mode)

	return decision, nil
}

func (cs *consensusService) GetDecision(ctx context.Context, claimID uuid.UUID) (*types.Decision, error) {
	storeCtx, cancel := withStoreTimeout(ctx, cs.storeTimeout)
	defer cancel()

	decision, err := cs.decisionRepo.GetByClaimID(storeCtx, nil, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("decision")
		}
		return nil, storeErr(err)
	}
	return decision, nil
}
