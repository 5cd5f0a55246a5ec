package validator

import (
	"context"
	"testing"
)

func TestAllPassed(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(t.TempDir(), []Check{
		{Name: "true-check", Severity: SeverityBreaking, Command: []string{"true"}},
		{Name: "also-true", Severity: SeverityWarning, Command: []string{"true"}},
	})

	result, err := gate.RunAll(ctx)
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if !result.AllPassed() {
		t.Errorf("expected all passed, got %+v", result.Outcomes)
	}
}

func TestFailingBreakingCheckTriggersAutoFixAndRerun(t *testing.T) {
	ctx := context.Background()
	attempts := 0
	gate := NewGate(t.TempDir(), []Check{
		{Name: "flaky", Severity: SeverityBreaking, Command: []string{"false"}},
	})
	fixCalled := false
	gate.AutoFix = func(ctx context.Context, workspace string) error {
		fixCalled = true
		attempts++
		return nil
	}

	result, err := gate.RunAll(ctx)
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if !fixCalled {
		t.Error("expected AutoFix to be invoked for a failed Breaking check")
	}
	if result.AllPassed() {
		t.Error("expected the check to still fail after a no-op auto-fix")
	}
	if len(result.FailedCheckNames()) != 1 || result.FailedCheckNames()[0] != "flaky" {
		t.Errorf("expected ['flaky'], got %v", result.FailedCheckNames())
	}
}

func TestWarningFailureDoesNotTriggerAutoFix(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(t.TempDir(), []Check{
		{Name: "just-a-warning", Severity: SeverityWarning, Command: []string{"false"}},
	})
	fixCalled := false
	gate.AutoFix = func(ctx context.Context, workspace string) error {
		fixCalled = true
		return nil
	}

	result, err := gate.RunAll(ctx)
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if fixCalled {
		t.Error("expected AutoFix not to run for a Warning-only failure")
	}
	if result.AllPassed() {
		t.Error("expected AllPassed to be false")
	}
}
