package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Atharrvac/vanadhikar-backend/internal/services"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

type QueryHandler struct {
	svc services.QueryService
}

func NewQueryHandler(svc services.QueryService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

// GET /api/claims?status=&officer=&q=&sort=
func (h *QueryHandler) ListClaims(c *gin.Context) {
	filter := services.ClaimFilter{
		Status:          types.ClaimStatus(c.Query("status")),
		AssignedOfficer: c.Query("officer"),
		Search:          c.Query("q"),
	}
	sortKey := services.SortKey(c.DefaultQuery("sort", string(services.SortPriority)))

	claims, err := h.svc.Query(c.Request.Context(), filter, sortKey)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": claims, "count": len(claims)})
}

// GET /api/claims/stats
func (h *QueryHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"by_status": stats})
}
