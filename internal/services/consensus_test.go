package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Atharrvac/vanadhikar-backend/internal/apierr"
	"github.com/Atharrvac/vanadhikar-backend/internal/locking"
	"github.com/Atharrvac/vanadhikar-backend/internal/repos"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

func defaultPolicy() ConsensusPolicy {
	return ConsensusPolicy{
		QuorumFraction:       0.6,
		MajorityFraction:     0.5,
		CommitteeTotalWeight: 7,
		DefaultMemberWeight:  1,
		ChairWeight:          2,
	}
}

func votes(ballots ...*types.CommitteeVote) []*types.CommitteeVote { return ballots }

func vw(v types.VoteValue, w int) *types.CommitteeVote {
	return &types.CommitteeVote{Vote: v, Weight: w}
}

func TestComputeConsensus_ChairAndMembersReachConsensus(t *testing.T) {
	// Chair (weight 2) and two members approve, one rejects, one abstains.
	result := computeConsensus(votes(
		vw(types.VoteApprove, 2),
		vw(types.VoteApprove, 1),
		vw(types.VoteApprove, 1),
		vw(types.VoteReject, 1),
		vw(types.VoteAbstain, 1),
	), defaultPolicy())

	if result.VotedWeight != 6 {
		t.Fatalf("voted weight = %d, want 6", result.VotedWeight)
	}
	if !result.QuorumMet {
		t.Fatalf("quorum should be met at weight 6 of 7")
	}
	if got := result.Breakdown[types.VoteApprove]; got.Weight != 4 || got.Count != 3 {
		t.Fatalf("approve breakdown = %+v, want weight 4 count 3", got)
	}
	if !result.ConsensusReached {
		t.Fatalf("approve weight 4 > 3.5 should reach consensus")
	}
}

func TestComputeConsensus_FiveMemberCommittee(t *testing.T) {
	// Weights [2,1,1,1,1], total 6: three approvals carry weight 4 which
	// clears both quorum (ceil(3.6)=4) and majority (>3).
	policy := defaultPolicy()
	policy.CommitteeTotalWeight = 6
	result := computeConsensus(votes(
		vw(types.VoteApprove, 2),
		vw(types.VoteApprove, 1),
		vw(types.VoteApprove, 1),
		vw(types.VoteReject, 1),
		vw(types.VoteAbstain, 1),
	), policy)

	if result.VotedWeight != 6 || !result.QuorumMet {
		t.Fatalf("full turnout should meet quorum: %+v", result)
	}
	if !result.ConsensusReached {
		t.Fatalf("approve weight 4 of total 6 should reach consensus: %+v", result)
	}
	sum := 0
	for _, b := range result.Breakdown {
		sum += b.Weight
	}
	if sum != result.VotedWeight {
		t.Fatalf("breakdown weights sum to %d, want %d", sum, result.VotedWeight)
	}
}

func TestComputeConsensus_QuorumNotMet(t *testing.T) {
	// ceil(7 * 0.6) = 5, only 4 weight voted.
	result := computeConsensus(votes(
		vw(types.VoteApprove, 2),
		vw(types.VoteApprove, 1),
		vw(types.VoteReject, 1),
	), defaultPolicy())

	if result.QuorumMet {
		t.Fatalf("quorum must not be met at weight 4 of 7")
	}
}

func TestComputeConsensus_QuorumBoundary(t *testing.T) {
	result := computeConsensus(votes(
		vw(types.VoteApprove, 2),
		vw(types.VoteApprove, 1),
		vw(types.VoteReject, 1),
		vw(types.VoteAbstain, 1),
	), defaultPolicy())

	if !result.QuorumMet {
		t.Fatalf("voted weight 5 meets ceil(7*0.6)=5")
	}
}

func TestComputeConsensus_ExactMajorityIsNotConsensus(t *testing.T) {
	// Approve weight equal to half the total weight must not carry; the
	// threshold is strictly greater than.
	policy := defaultPolicy()
	policy.CommitteeTotalWeight = 8
	result := computeConsensus(votes(
		vw(types.VoteApprove, 4),
		vw(types.VoteReject, 1),
	), policy)

	if result.ConsensusReached {
		t.Fatalf("approve weight 4 of total 8 must not reach consensus")
	}
}

func TestComputeConsensus_TieDetected(t *testing.T) {
	result := computeConsensus(votes(
		vw(types.VoteApprove, 3),
		vw(types.VoteReject, 3),
		vw(types.VoteAbstain, 1),
	), defaultPolicy())

	if result.ConsensusReached {
		t.Fatalf("3 vs 3 of total 7 must not reach consensus")
	}
	if !result.Tied {
		t.Fatalf("equal approve and reject weight should report a tie")
	}
}

func TestComputeConsensus_NoVotes(t *testing.T) {
	result := computeConsensus(nil, defaultPolicy())
	if result.QuorumMet || result.ConsensusReached || result.Tied {
		t.Fatalf("empty vote set must not report quorum, consensus or tie: %+v", result)
	}
	if result.VotedWeight != 0 {
		t.Fatalf("voted weight = %d, want 0", result.VotedWeight)
	}
}

func TestComputeConsensus_AbstainNeverCountsTowardApproval(t *testing.T) {
	result := computeConsensus(votes(
		vw(types.VoteAbstain, 2),
		vw(types.VoteAbstain, 2),
		vw(types.VoteApprove, 1),
	), defaultPolicy())

	if !result.QuorumMet {
		t.Fatalf("abstain weight still counts toward quorum")
	}
	if result.ConsensusReached {
		t.Fatalf("approve weight 1 must not reach consensus")
	}
}

func TestCastVote_RejectsBadInputBeforeTouchingStore(t *testing.T) {
	cs := &consensusService{policy: defaultPolicy()}
	member := types.Actor{ID: "m1", Role: types.RoleCommitteeMember}

	if _, err := cs.CastVote(context.Background(), uuid.New(), member, "maybe", 1); apierr.CodeOf(err) != apierr.CodeValidation {
		t.Fatalf("unknown vote value: got %v", err)
	}
	officer := types.Actor{ID: "f1", Role: types.RoleFieldOfficer}
	if _, err := cs.CastVote(context.Background(), uuid.New(), officer, types.VoteApprove, 1); apierr.CodeOf(err) != apierr.CodeUnauthorized {
		t.Fatalf("non-committee voter: got %v", err)
	}
	if _, err := cs.CastVote(context.Background(), uuid.New(), member, types.VoteApprove, -2); apierr.CodeOf(err) != apierr.CodeValidation {
		t.Fatalf("negative weight: got %v", err)
	}
}

// staleCheckVoteRepo misses existing votes on the pre-insert check, the way
// a second process does when the first vote lands between its check and its
// append. The unique index is then the only defense.
type staleCheckVoteRepo struct {
	repos.CommitteeVoteRepo
}

func (staleCheckVoteRepo) MemberHasVoted(context.Context, *gorm.DB, uuid.UUID, string) (bool, error) {
	return false, nil
}

func TestCastVote_UniqueIndexCollisionIsDuplicateVote(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	voteRepo := repos.NewCommitteeVoteRepo(db, log)
	svc := NewConsensusService(db, log,
		repos.NewClaimRepo(db, log),
		staleCheckVoteRepo{voteRepo},
		repos.NewDecisionRepo(db, log),
		nil, locking.NewPerKeyLocker(), defaultPolicy(), nil, 0)

	claim := seedClaim(t, db, types.StatusCommitteeReview)
	member := types.Actor{ID: "member-1", Role: types.RoleCommitteeMember}
	if _, err := voteRepo.Append(context.Background(), nil, &types.CommitteeVote{
		ID:         uuid.New(),
		ClaimID:    claim.ID,
		MemberID:   member.ID,
		MemberRole: member.Role,
		Vote:       types.VoteApprove,
		Weight:     1,
		CreatedAt:  time.Now(),
	}); err != nil {
		t.Fatalf("seed vote: %v", err)
	}

	_, err := svc.CastVote(context.Background(), claim.ID, member, types.VoteReject, 1)
	if apierr.CodeOf(err) != apierr.CodeDuplicateVote {
		t.Fatalf("expected %s from the index collision, got %v", apierr.CodeDuplicateVote, err)
	}
}

func TestFinalizeDecision_InputPreconditions(t *testing.T) {
	cs := &consensusService{policy: defaultPolicy()}
	chair := types.Actor{ID: "c1", Role: types.RoleCommitteeChair}
	ctx := context.Background()

	if _, err := cs.FinalizeDecision(ctx, uuid.New(), chair, "remand", "justified", nil); apierr.CodeOf(err) != apierr.CodeValidation {
		t.Fatalf("unknown decision type: got %v", err)
	}
	if _, err := cs.FinalizeDecision(ctx, uuid.New(), chair, types.DecisionApproved, "   ", nil); apierr.CodeOf(err) != apierr.CodeEmptyJustification {
		t.Fatalf("blank justification: got %v", err)
	}
	conditions := []string{"plant 50 trees"}
	if _, err := cs.FinalizeDecision(ctx, uuid.New(), chair, types.DecisionApproved, "justified", conditions); apierr.CodeOf(err) != apierr.CodeInvalidConditions {
		t.Fatalf("conditions on plain approval: got %v", err)
	}
}

func TestComputeConsensus_Deterministic(t *testing.T) {
	ballots := votes(
		vw(types.VoteApprove, 2),
		vw(types.VoteReject, 1),
		vw(types.VoteConditional, 1),
	)
	first := computeConsensus(ballots, defaultPolicy())
	second := computeConsensus(ballots, defaultPolicy())
	if first.VotedWeight != second.VotedWeight ||
		first.QuorumMet != second.QuorumMet ||
		first.ConsensusReached != second.ConsensusReached ||
		first.Tied != second.Tied {
		t.Fatalf("same ballots produced different results: %+v vs %+v", first, second)
	}
}
