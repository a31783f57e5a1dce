package services_test

import (
	"context"
	"testing"

	"devbox/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithPhase(ctx, "setup")
	ctx = services.WithStep(ctx, "python-sync")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if phase, ok := services.PhaseFromContext(ctx); !ok || phase != "setup" {
		t.Fatalf("unexpected phase: %v %v", phase, ok)
	}
	if step, ok := services.StepFromContext(ctx); !ok || step != "python-sync" {
		t.Fatalf("unexpected step: %v %v", step, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPhase(ctx, "")
	ctx = services.WithStep(ctx, "")
	if _, ok := services.PhaseFromContext(ctx); ok {
		t.Fatal("expected no phase value")
	}
	if _, ok := services.StepFromContext(ctx); ok {
		t.Fatal("expected no step value")
	}
}
