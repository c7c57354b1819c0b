package callrecord

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/apexai-labs/onyx/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "calls.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_CallRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.StartCall(ctx, "MZ1"); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	if err := store.AddTurn(ctx, "MZ1", domain.RoleUser, "what is your pricing?"); err != nil {
		t.Fatalf("AddTurn() error = %v", err)
	}
	if err := store.AddTurn(ctx, "MZ1", domain.RoleAssistant, "Our plans start at $99/mo."); err != nil {
		t.Fatalf("AddTurn() error = %v", err)
	}
	if err := store.EndCall(ctx, "MZ1"); err != nil {
		t.Fatalf("EndCall() error = %v", err)
	}

	calls, err := store.RecentCalls(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCalls() error = %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("RecentCalls() returned %d calls, want 1", len(calls))
	}
	if calls[0].StreamSid != "MZ1" {
		t.Errorf("StreamSid = %q, want MZ1", calls[0].StreamSid)
	}
	if calls[0].TurnCount != 2 {
		t.Errorf("TurnCount = %d, want 2", calls[0].TurnCount)
	}
	if calls[0].EndedAt == nil {
		t.Error("EndedAt = nil after EndCall")
	}

	turns, err := store.Turns(ctx, "MZ1")
	if err != nil {
		t.Fatalf("Turns() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("Turns() returned %d turns, want 2", len(turns))
	}
	if turns[0].Role != "user" || turns[1].Role != "assistant" {
		t.Errorf("turn roles = %q, %q", turns[0].Role, turns[1].Role)
	}
}

func TestStore_StartCallIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.StartCall(ctx, "MZ1"); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	if err := store.StartCall(ctx, "MZ1"); err != nil {
		t.Errorf("StartCall() repeat error = %v, want nil", err)
	}

	calls, err := store.RecentCalls(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCalls() error = %v", err)
	}
	if len(calls) != 1 {
		t.Errorf("RecentCalls() returned %d calls, want 1", len(calls))
	}
}

func TestStore_EmptyTurnSkipped(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.StartCall(ctx, "MZ1")
	if err := store.AddTurn(ctx, "MZ1", domain.RoleUser, ""); err != nil {
		t.Fatalf("AddTurn() error = %v", err)
	}

	turns, err := store.Turns(ctx, "MZ1")
	if err != nil {
		t.Fatalf("Turns() error = %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("Turns() returned %d turns, want 0", len(turns))
	}
}

func TestStore_EndCallUnknownSid(t *testing.T) {
	store := openTestStore(t)
	if err := store.EndCall(context.Background(), "never started"); err != nil {
		t.Errorf("EndCall() error = %v, want nil", err)
	}
}
