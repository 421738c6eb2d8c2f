package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Atharrvac/vanadhikar-backend/internal/apierr"
	"github.com/Atharrvac/vanadhikar-backend/internal/services"
)

// RespondError maps engine errors to HTTP responses. Field-level validation
// failures carry the per-stage results so clients can render them inline;
// infrastructure failures never leak their underlying message.
func RespondError(c *gin.Context, err error) {
	var validationErr *services.ValidationFailedError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "claim validation failed",
			"code":   apierr.CodeValidation,
			"stages": validationErr.Stages,
		})
		return
	}

	status := apierr.StatusOf(err)
	code := apierr.CodeOf(err)
	if code == apierr.CodeStoreUnavailable {
		c.JSON(status, gin.H{
			"error": "storage temporarily unavailable, retry later",
			"code":  code,
		})
		return
	}
	if code == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
