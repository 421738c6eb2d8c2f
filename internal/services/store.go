package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Atharrvac/vanadhikar-backend/internal/apierr"
)

// DefaultStoreTimeout bounds every claim record store call; the engine fails
// fast with store_unavailable instead of hanging.
const DefaultStoreTimeout = 5 * time.Second

func withStoreTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// storeErr maps database failures to the engine error taxonomy. Record
// misses are the caller's concern and pass through untouched.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		return err
	}
	return apierr.StoreUnavailable(err)
}
