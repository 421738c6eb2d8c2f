package services

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Atharrvac/vanadhikar-backend/internal/apierr"
	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/repos"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

type SortKey string

const (
	SortPriority    SortKey = "priority"
	SortDate        SortKey = "date"
	SortDaysInQueue SortKey = "days_in_queue"
	SortArea        SortKey = "area"
	SortDistrict    SortKey = "district"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortPriority, SortDate, SortDaysInQueue, SortArea, SortDistrict:
		return true
	default:
		return false
	}
}

type ClaimFilter struct {
	Status          types.ClaimStatus
	AssignedOfficer string
	Search          string
}

// QueryService is read-only; it never mutates claim state.
type QueryService interface {
	Query(ctx context.Context, filter ClaimFilter, sortKey SortKey) ([]*types.Claim, error)
	Stats(ctx context.Context) (map[types.ClaimStatus]int64, error)
}

type queryService struct {
	log          *logger.Logger
	claimRepo    repos.ClaimRepo
	storeTimeout time.Duration
	now          func() time.Time
}

func NewQueryService(baseLog *logger.Logger, claimRepo repos.ClaimRepo, storeTimeout time.Duration) QueryService {
	return &queryService{
		log:          baseLog.With("service", "QueryService"),
		claimRepo:    claimRepo,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

func (qs *queryService) Query(ctx context.Context, filter ClaimFilter, sortKey SortKey) ([]*types.Claim, error) {
	if sortKey != "" && !sortKey.Valid() {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "unknown sort key %q", sortKey)
	}

	storeCtx, cancel := withStoreTimeout(ctx, qs.storeTimeout)
	defer cancel()

	claims, err := qs.claimRepo.List(storeCtx, nil)
	if err != nil {
		return nil, storeErr(err)
	}

	filtered := filterClaims(claims, filter)
	sortClaims(filtered, sortKey, qs.now())
	return filtered, nil
}

func (qs *queryService) Stats(ctx context.Context) (map[types.ClaimStatus]int64, error) {
	storeCtx, cancel := withStoreTimeout(ctx, qs.storeTimeout)
	defer cancel()

	counts, err := qs.claimRepo.CountByStatus(storeCtx, nil)
	if err != nil {
		return nil, storeErr(err)
	}
	return counts, nil
}

func filterClaims(claims []*types.Claim, filter ClaimFilter) []*types.Claim {
	out := make([]*types.Claim, 0, len(claims))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, claim := range claims {
		if filter.Status != "" && claim.Status != filter.Status {
			continue
		}
		if filter.AssignedOfficer != "" && claim.AssignedOfficer != filter.AssignedOfficer {
			continue
		}
		if search != "" && !matchesSearch(claim, search) {
			continue
		}
		out = append(out, claim)
	}
	return out
}

func matchesSearch(claim *types.Claim, search string) bool {
	for _, field := range []string{claim.ClaimNumber, claim.ApplicantName, claim.Village, claim.District} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// sortClaims is stable: equal-key claims keep their original relative order
// so queue pages render deterministically across requests.
func sortClaims(claims []*types.Claim, sortKey SortKey, now time.Time) {
	switch sortKey {
	case SortPriority:
		sort.SliceStable(claims, func(i, j int) bool {
			return claims[i].Priority.Rank() > claims[j].Priority.Rank()
		})
	case SortDate:
		sort.SliceStable(claims, func(i, j int) bool {
			return submittedAt(claims[i]).After(submittedAt(claims[j]))
		})
	case SortDaysInQueue:
		sort.SliceStable(claims, func(i, j int) bool {
			return claims[i].DaysInQueue(now) > claims[j].DaysInQueue(now)
		})
	case SortArea:
		sort.SliceStable(claims, func(i, j int) bool {
			return claims[i].AreaHectares > claims[j].AreaHectares
		})
	case SortDistrict:
		sort.SliceStable(claims, func(i, j int) bool {
			return claims[i].District < claims[j].District
		})
	}
}

func submittedAt(claim *types.Claim) time.Time {
	if claim.SubmittedAt != nil {
		return *claim.SubmittedAt
	}
	return claim.CreatedAt
}
