package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/biomind/repurposing/pkg/domain"
)

func newFallbackStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	return NewStore(nil, nil, path)
}

func TestAppend_ChainsHashesAcrossFallbackWrites(t *testing.T) {
	store := newFallbackStore(t)
	ctx := context.Background()

	first, err := store.Append(ctx, domain.AuditEvent{
		PartitionDate: "2026-07-30", EventType: domain.EventWorkflowComplete,
		UserID: "u1", RequestID: "req-1", Action: "workflow completed", Resource: "workflow",
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if first.EventID != 1 {
		t.Errorf("first EventID = %d, want 1", first.EventID)
	}
	if first.PrevHash != genesisHash("2026-07-30") {
		t.Errorf("first PrevHash = %q, want the genesis hash", first.PrevHash)
	}

	second, err := store.Append(ctx, domain.AuditEvent{
		PartitionDate: "2026-07-30", EventType: domain.EventWorkflowComplete,
		UserID: "u1", RequestID: "req-2", Action: "workflow completed", Resource: "workflow",
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if second.EventID != 2 {
		t.Errorf("second EventID = %d, want 2", second.EventID)
	}
	if second.PrevHash != first.SelfHash {
		t.Errorf("second PrevHash = %q, want first's SelfHash %q", second.PrevHash, first.SelfHash)
	}
}

func TestVerify_DetectsTampering(t *testing.T) {
	store := newFallbackStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, domain.AuditEvent{
		PartitionDate: "2026-07-30", EventType: domain.EventWorkflowComplete,
		UserID: "u1", RequestID: "req-1", Action: "workflow completed", Resource: "workflow",
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	ok, brokenAt, err := store.Verify(ctx, "2026-07-30")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok || brokenAt != 0 {
		t.Fatalf("Verify() = (%v, %d), want (true, 0) for an untampered chain", ok, brokenAt)
	}

	events, err := store.readFallback("2026-07-30", "")
	if err != nil {
		t.Fatalf("readFallback() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("readFallback() len = %d, want 1", len(events))
	}
	events[0].Action = "tampered action"
	tampered := toFallbackLine(events[0])
	line, err := jsonAPI.Marshal(tampered)
	if err != nil {
		t.Fatalf("marshal tampered line error = %v", err)
	}
	if err := os.WriteFile(store.fallbackPath, append(line, '\n'), 0o644); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	ok, brokenAt, err = store.Verify(ctx, "2026-07-30")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("Verify() = true after tampering, want false")
	}
	if brokenAt != 1 {
		t.Errorf("brokenAt = %d, want 1", brokenAt)
	}
}

func TestForRequest_FallsBackToFile(t *testing.T) {
	store := newFallbackStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, domain.AuditEvent{
		PartitionDate: "2026-07-30", EventType: domain.EventWorkflowComplete,
		UserID: "u1", RequestID: "req-1", Action: "workflow completed", Resource: "workflow",
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := store.Append(ctx, domain.AuditEvent{
		PartitionDate: "2026-07-30", EventType: domain.EventWorkflowComplete,
		UserID: "u1", RequestID: "req-other", Action: "workflow completed", Resource: "workflow",
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	events, err := store.ForRequest(ctx, "req-1")
	if err != nil {
		t.Fatalf("ForRequest() error = %v", err)
	}
	if len(events) != 1 || events[0].RequestID != "req-1" {
		t.Fatalf("ForRequest() = %+v, want one req-1 event", events)
	}
}
