package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Atharrvac/vanadhikar-backend/internal/locking"
	"github.com/Atharrvac/vanadhikar-backend/internal/repos"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

func TestCanTransition_ForwardPath(t *testing.T) {
	path := []types.ClaimStatus{
		types.StatusDraft,
		types.StatusSubmitted,
		types.StatusFieldVerificationPending,
		types.StatusUnderVerification,
		types.StatusVerified,
		types.StatusCommitteeReview,
		types.StatusApproved,
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be legal", path[i], path[i+1])
		}
	}
}

func TestCanTransition_CommitteeOutcomes(t *testing.T) {
	for _, target := range []types.ClaimStatus{
		types.StatusApproved,
		types.StatusApprovedConditional,
		types.StatusRejected,
		types.StatusReturnedForInfo,
	} {
		if !CanTransition(types.StatusCommitteeReview, target) {
			t.Fatalf("expected committee_review -> %s to be legal", target)
		}
	}
}

func TestCanTransition_ResubmissionLoop(t *testing.T) {
	if !CanTransition(types.StatusReturnedForInfo, types.StatusSubmitted) {
		t.Fatalf("returned_for_info must allow resubmission")
	}
}

func TestCanTransition_IllegalEdges(t *testing.T) {
	cases := []struct {
		from types.ClaimStatus
		to   types.ClaimStatus
	}{
		{types.StatusDraft, types.StatusVerified},
		{types.StatusDraft, types.StatusApproved},
		{types.StatusSubmitted, types.StatusCommitteeReview},
		{types.StatusVerified, types.StatusApproved},
		{types.StatusUnderVerification, types.StatusSubmitted},
		{types.StatusApproved, types.StatusRejected},
		{types.StatusRejected, types.StatusSubmitted},
		{types.StatusApprovedConditional, types.StatusCommitteeReview},
		{types.StatusSubmitted, types.StatusDraft},
	}
	for _, tc := range cases {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be illegal", tc.from, tc.to)
		}
	}
}

func TestCanTransition_TerminalStatesHaveNoExits(t *testing.T) {
	all := []types.ClaimStatus{
		types.StatusDraft, types.StatusSubmitted, types.StatusFieldVerificationPending,
		types.StatusUnderVerification, types.StatusVerified, types.StatusCommitteeReview,
		types.StatusApproved, types.StatusApprovedConditional, types.StatusRejected,
		types.StatusReturnedForInfo,
	}
	for _, terminal := range []types.ClaimStatus{
		types.StatusApproved, types.StatusApprovedConditional, types.StatusRejected,
	} {
		for _, target := range all {
			if CanTransition(terminal, target) {
				t.Fatalf("terminal state %s must not allow exit to %s", terminal, target)
			}
		}
	}
}

func TestRoleAllowed_PerEdge(t *testing.T) {
	cases := []struct {
		name    string
		from    types.ClaimStatus
		to      types.ClaimStatus
		role    types.Role
		allowed bool
	}{
		{"claimant submits own claim", types.StatusDraft, types.StatusSubmitted, types.RoleClaimant, true},
		{"committee member cannot submit", types.StatusDraft, types.StatusSubmitted, types.RoleCommitteeMember, false},
		{"field officer accepts for verification", types.StatusSubmitted, types.StatusFieldVerificationPending, types.RoleFieldOfficer, true},
		{"claimant cannot accept own claim", types.StatusSubmitted, types.StatusFieldVerificationPending, types.RoleClaimant, false},
		{"only field officer marks verified", types.StatusUnderVerification, types.StatusVerified, types.RoleFieldOfficer, true},
		{"admin cannot mark verified", types.StatusUnderVerification, types.StatusVerified, types.RoleAdmin, false},
		{"committee member decides", types.StatusCommitteeReview, types.StatusApproved, types.RoleCommitteeMember, true},
		{"committee chair decides", types.StatusCommitteeReview, types.StatusRejected, types.RoleCommitteeChair, true},
		{"field officer cannot decide", types.StatusCommitteeReview, types.StatusApproved, types.RoleFieldOfficer, false},
		{"chair returns for info", types.StatusCommitteeReview, types.StatusReturnedForInfo, types.RoleCommitteeChair, true},
		{"claimant resubmits", types.StatusReturnedForInfo, types.StatusSubmitted, types.RoleClaimant, true},
		{"admin can route on behalf", types.StatusVerified, types.StatusCommitteeReview, types.RoleAdmin, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			edge := transitionEdge{From: tc.from, To: tc.to}
			if got := roleAllowed(edge, tc.role); got != tc.allowed {
				t.Fatalf("roleAllowed(%s -> %s, %s) = %v, want %v", tc.from, tc.to, tc.role, got, tc.allowed)
			}
		})
	}
}

// openGate stands in for the checklist engine on edges that consult it.
type openGate struct{}

func (openGate) GatePassed(context.Context, uuid.UUID) (bool, error) { return true, nil }

func newTestStateMachine(t *testing.T) (StateMachineService, *gorm.DB, repos.VerificationReportRepo, repos.DecisionRepo) {
	t.Helper()
	db := newTestDB(t)
	log := testLogger(t)
	reportRepo := repos.NewVerificationReportRepo(db, log)
	decisionRepo := repos.NewDecisionRepo(db, log)
	sm := NewStateMachineService(
		db, log,
		repos.NewClaimRepo(db, log),
		repos.NewClaimEventRepo(db, log),
		reportRepo, decisionRepo,
		openGate{}, locking.NewPerKeyLocker(), NoopNotifier{}, nil, 0,
	)
	return sm, db, reportRepo, decisionRepo
}

func TestTransition_DecisionRowCommitsWithStatusChange(t *testing.T) {
	sm, db, _, decisionRepo := newTestStateMachine(t)
	ctx := context.Background()

	claim := seedClaim(t, db, types.StatusCommitteeReview)
	chair := types.Actor{ID: "chair-1", Role: types.RoleCommitteeChair}
	decision := &types.Decision{
		ID:            uuid.New(),
		ClaimID:       claim.ID,
		DecisionType:  types.DecisionApproved,
		Justification: "committee approved the claim",
		DecidedBy:     chair.ID,
		CreatedAt:     time.Now(),
	}
	payload := TransitionPayload{Reason: "committee decision", Decision: decision}

	// Dropping the table makes the decision write fail after the status
	// update already succeeded inside the transaction.
	if err := db.Migrator().DropTable(&types.Decision{}); err != nil {
		t.Fatalf("drop decision table: %v", err)
	}
	if _, err := sm.Transition(ctx, claim.ID, types.StatusApproved, chair, payload); err == nil {
		t.Fatal("expected transition to fail when the decision row cannot be written")
	}

	var reloaded types.Claim
	if err := db.First(&reloaded, "id = ?", claim.ID).Error; err != nil {
		t.Fatalf("reload claim: %v", err)
	}
	if reloaded.Status != types.StatusCommitteeReview {
		t.Fatalf("claim moved to %s although the decision write failed", reloaded.Status)
	}
	if reloaded.Version != claim.Version {
		t.Fatalf("version bumped to %d although the transaction rolled back", reloaded.Version)
	}
	var events int64
	if err := db.Model(&types.ClaimEvent{}).Where("claim_id = ?", claim.ID).Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 0 {
		t.Fatalf("history event survived the rollback")
	}

	if err := db.AutoMigrate(&types.Decision{}); err != nil {
		t.Fatalf("recreate decision table: %v", err)
	}
	if _, err := sm.Transition(ctx, claim.ID, types.StatusApproved, chair, payload); err != nil {
		t.Fatalf("transition after restoring the table: %v", err)
	}
	stored, err := decisionRepo.GetByClaimID(ctx, nil, claim.ID)
	if err != nil {
		t.Fatalf("load decision: %v", err)
	}
	if stored.DecisionType != types.DecisionApproved {
		t.Fatalf("stored decision %s, want %s", stored.DecisionType, types.DecisionApproved)
	}
	if err := db.First(&reloaded, "id = ?", claim.ID).Error; err != nil {
		t.Fatalf("reload claim: %v", err)
	}
	if reloaded.Status != types.StatusApproved {
		t.Fatalf("claim is %s, want %s", reloaded.Status, types.StatusApproved)
	}
}

func TestTransition_ReportRowCommitsWithStatusChange(t *testing.T) {
	sm, db, reportRepo, _ := newTestStateMachine(t)
	ctx := context.Background()

	claim := seedClaim(t, db, types.StatusUnderVerification)
	officer := types.Actor{ID: "officer-1", Role: types.RoleFieldOfficer}
	report := &types.VerificationReport{
		ID:             uuid.New(),
		ClaimID:        claim.ID,
		OfficerID:      officer.ID,
		Recommendation: types.RecommendApprove,
		CreatedAt:      time.Now(),
	}
	payload := TransitionPayload{Reason: "field verification submitted", Report: report}

	if err := db.Migrator().DropTable(&types.VerificationReport{}); err != nil {
		t.Fatalf("drop report table: %v", err)
	}
	if _, err := sm.Transition(ctx, claim.ID, types.StatusVerified, officer, payload); err == nil {
		t.Fatal("expected transition to fail when the report row cannot be written")
	}

	var reloaded types.Claim
	if err := db.First(&reloaded, "id = ?", claim.ID).Error; err != nil {
		t.Fatalf("reload claim: %v", err)
	}
	if reloaded.Status != types.StatusUnderVerification {
		t.Fatalf("claim moved to %s although the report write failed", reloaded.Status)
	}
	if reloaded.Version != claim.Version {
		t.Fatalf("version bumped to %d although the transaction rolled back", reloaded.Version)
	}

	if err := db.AutoMigrate(&types.VerificationReport{}); err != nil {
		t.Fatalf("recreate report table: %v", err)
	}
	if _, err := sm.Transition(ctx, claim.ID, types.StatusVerified, officer, payload); err != nil {
		t.Fatalf("transition after restoring the table: %v", err)
	}
	stored, err := reportRepo.GetByClaimID(ctx, nil, claim.ID)
	if err != nil {
		t.Fatalf("load report: %v", err)
	}
	if stored.Recommendation != types.RecommendApprove {
		t.Fatalf("stored recommendation %s, want %s", stored.Recommendation, types.RecommendApprove)
	}
}

func TestFieldNames_SortedForStableMessages(t *testing.T) {
	names := fieldNames(map[string]string{
		"village":       "required",
		"applicantName": "required",
		"mobileNumber":  "required",
	})
	want := []string{"applicantName", "mobileNumber", "village"}
	if len(names) != len(want) {
		t.Fatalf("got %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}
