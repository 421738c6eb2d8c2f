package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf_ExtractsThroughWrapping(t *testing.T) {
	base := Newf(http.StatusConflict, CodeDuplicateVote, "member %s already voted", "m1")
	wrapped := fmt.Errorf("casting vote: %w", base)

	if got := CodeOf(wrapped); got != CodeDuplicateVote {
		t.Fatalf("CodeOf = %q, want %q", got, CodeDuplicateVote)
	}
	if got := StatusOf(wrapped); got != http.StatusConflict {
		t.Fatalf("StatusOf = %d, want %d", got, http.StatusConflict)
	}
}

func TestStatusOf_PlainErrorDefaultsTo500(t *testing.T) {
	if got := StatusOf(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("StatusOf = %d, want 500", got)
	}
	if got := CodeOf(errors.New("boom")); got != "" {
		t.Fatalf("CodeOf = %q, want empty", got)
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("claim")
	if err.Status != http.StatusNotFound || err.Code != CodeNotFound {
		t.Fatalf("unexpected error: %+v", err)
	}
	if err.Error() != "claim not found" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestStoreUnavailable_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := StoreUnavailable(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause should be reachable through Unwrap")
	}
	if err.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", err.Status)
	}
}
