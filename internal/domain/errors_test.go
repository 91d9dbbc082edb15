package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorUnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("lookup: %w", Unavailable("sbdb", cause))

	if !errors.Is(err, ErrExternalUnavailable) {
		t.Error("errors.Is(err, ErrExternalUnavailable) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("unavailable error matched ErrValidation")
	}

	var de *Error
	if !errors.As(err, &de) || de.Field != "sbdb" {
		t.Fatalf("errors.As = %+v", de)
	}
}

func TestErrorMessage(t *testing.T) {
	err := Validation("diameter_m", -5.0, "must be positive")
	got := err.Error()
	for _, want := range []string{"validation", "diameter_m=-5", "must be positive"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}

	if got := (&Error{Kind: KindInternal}).Error(); got != "internal" {
		t.Errorf("bare internal error = %q", got)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindInternal},
		{"plain", errors.New("boom"), KindInternal},
		{"validation", Validation("angle", 0, "bad"), KindValidation},
		{"convergence", Convergence("eccentric_anomaly", 0.99, "no convergence"), KindConvergence},
		{"not found", NotFound("scenario", "x"), KindNotFound},
		{"wrapped", fmt.Errorf("ctx: %w", NotFound("report", "y")), KindNotFound},
		{"sentinel conflict", fmt.Errorf("insert: %w", ErrAlreadyExists), KindConflict},
		{"sentinel rate", ErrRateLimited, KindRateLimited},
		{"sentinel unavailable", fmt.Errorf("x: %w", ErrExternalUnavailable), KindExternalUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindNotFound.String() != "not_found" {
		t.Errorf("KindNotFound = %q", KindNotFound.String())
	}
	if Kind(99).String() != "internal" {
		t.Errorf("out-of-range kind = %q", Kind(99).String())
	}
}
