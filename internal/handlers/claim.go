package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Atharrvac/vanadhikar-backend/internal/middleware"
	"github.com/Atharrvac/vanadhikar-backend/internal/services"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

type ClaimHandler struct {
	svc services.ClaimService
	sm  services.StateMachineService
}

func NewClaimHandler(svc services.ClaimService, sm services.StateMachineService) *ClaimHandler {
	return &ClaimHandler{svc: svc, sm: sm}
}

// POST /api/claims
func (h *ClaimHandler) CreateClaim(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor identity"})
		return
	}
	var input services.SubmitClaimInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	claim, err := h.svc.SubmitClaim(c.Request.Context(), actor, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"claim": claim})
}

// GET /api/claims/:id
func (h *ClaimHandler) GetClaim(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	claim, err := h.svc.GetClaim(c.Request.Context(), claimID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim": claim})
}

// GET /api/claims/:id/history
func (h *ClaimHandler) GetHistory(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	events, err := h.svc.GetHistory(c.Request.Context(), claimID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// POST /api/claims/:id/validate/:stage
func (h *ClaimHandler) ValidateStage(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}
	stage := services.Stage(c.Param("stage"))

	result, err := h.svc.ValidateStage(c.Request.Context(), claimID, stage)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stage":    stage,
		"valid":    result.OK(),
		"errors":   result.Errors,
		"warnings": result.Warnings,
	})
}

// POST /api/claims/:id/transition
func (h *ClaimHandler) Transition(c *gin.Context) {
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
		Target types.ClaimStatus `json:"target"`
		Reason string            `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	claim, err := h.sm.Transition(c.Request.Context(), claimID, body.Target, actor, services.TransitionPayload{Reason: body.Reason})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim": claim})
}

// PATCH /api/claims/:id/priority
func (h *ClaimHandler) SetPriority(c *gin.Context) {
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
		Priority types.Priority `json:"priority"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	claim, err := h.svc.SetPriority(c.Request.Context(), claimID, actor, body.Priority)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim": claim})
}

// PATCH /api/claims/:id/assign
func (h *ClaimHandler) AssignOfficer(c *gin.Context) {
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
		OfficerID string `json:"officer_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	claim, err := h.svc.AssignOfficer(c.Request.Context(), claimID, actor, body.OfficerID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim": claim})
}
