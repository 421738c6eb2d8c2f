package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Atharrvac/vanadhikar-backend/internal/middleware"
	"github.com/Atharrvac/vanadhikar-backend/internal/services"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

type VerificationHandler struct {
	svc services.ChecklistService
}

func NewVerificationHandler(svc services.ChecklistService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

// GET /api/claims/:id/checklist
func (h *VerificationHandler) GetChecklist(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	items, stats, err := h.svc.GetChecklist(c.Request.Context(), claimID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "stats": stats})
}

// PATCH /api/claims/:id/checklist/:category/:item
func (h *VerificationHandler) ToggleItem(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}
	category := types.ChecklistCategory(c.Param("category"))
	itemKey := c.Param("item")
	var body struct {
		Checked  bool    `json:"checked"`
		Comments *string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	item, err := h.svc.ToggleItem(c.Request.Context(), claimID, category, itemKey, body.Checked, body.Comments)
	if err != nil {
		RespondError(c, err)
		return
	}
	stats, err := h.svc.ComputeStats(c.Request.Context(), claimID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "stats": stats})
}

// POST /api/claims/:id/verification
func (h *VerificationHandler) SubmitVerification(c *gin.Context) {
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
		OverallComments string               `json:"overall_comments"`
		Recommendation  types.Recommendation `json:"recommendation"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	report, err := h.svc.SubmitVerification(c.Request.Context(), claimID, actor, body.OverallComments, body.Recommendation)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"report": report})
}

// GET /api/claims/:id/verification
func (h *VerificationHandler) GetReport(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	report, err := h.svc.GetReport(c.Request.Context(), claimID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}
