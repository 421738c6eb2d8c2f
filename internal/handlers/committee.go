package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Atharrvac/vanadhikar-backend/internal/middleware"
	"github.com/Atharrvac/vanadhikar-backend/internal/services"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

type CommitteeHandler struct {
	svc services.ConsensusService
}

func NewCommitteeHandler(svc services.ConsensusService) *CommitteeHandler {
	return &CommitteeHandler{svc: svc}
}

// POST /api/claims/:id/votes
func (h *CommitteeHandler) CastVote(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor identity"})
		return
	}
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}
	var body struct {
		Vote   types.VoteValue `json:"vote"`
		Weight int             `json:"weight"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	vote, err := h.svc.CastVote(c.Request.Context(), claimID, actor, body.Vote, body.Weight)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"vote": vote})
}

// GET /api/claims/:id/votes
func (h *CommitteeHandler) ListVotes(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	votes, err := h.svc.ListVotes(c.Request.Context(), claimID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"votes": votes})
}

// GET /api/claims/:id/consensus
func (h *CommitteeHandler) GetConsensus(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	result, err := h.svc.ComputeConsensus(c.Request.Context(), claimID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consensus": result})
}

// POST /api/claims/:id/decision
func (h *CommitteeHandler) FinalizeDecision(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor identity"})
		return
	}
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}
	var body struct {
		Decision      types.DecisionType `json:"decision"`
		Justification string             `json:"justification"`
		Conditions    []string           `json:"conditions"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	decision, err := h.svc.FinalizeDecision(c.Request.Context(), claimID, actor, body.Decision, body.Justification, body.Conditions)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"decision": decision})
}

// GET /api/claims/:id/decision
func (h *CommitteeHandler) GetDecision(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	decision, err := h.svc.GetDecision(c.Request.Context(), claimID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decision": decision})
}
