package syncqueue

import (
	"context"
	"testing"

	"github.com/relentnet/matchops-sync/internal/kv"
	"github.com/relentnet/matchops-sync/internal/synclock"
)

func newTestQueue() *Queue {
	return New(kv.NewMemoryStore(), synclock.New())
}

func TestEnqueueCreateThenUpdateCoalescesToCreate(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()

	if _, err := q.Enqueue(ctx, EntityPlayer, "p1", OpCreate, map[string]any{"name": "A"}); err != nil {
		t.Fatalf("enqueue create: %v", err)
	}
	entry, err := q.Enqueue(ctx, EntityPlayer, "p1", OpUpdate, map[string]any{"name": "B"})
	if err != nil {
		t.Fatalf("enqueue update: %v", err)
	}
	if entry.Operation != OpCreate {
		t.Fatalf("expected coalesced operation to remain create, got %s", entry.Operation)
	}

	all, err := q.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one queue entry, got %d", len(all))
	}
}

func TestEnqueueCreateThenDeleteIsNetNoOp(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()

	if _, err := q.Enqueue(ctx, EntityPlayer, "p1", OpCreate, map[string]any{"name": "A"}); err != nil {
		t.Fatalf("enqueue create: %v", err)
	}
	entry, err := q.Enqueue(ctx, EntityPlayer, "p1", OpDelete, nil)
	if err != nil {
		t.Fatalf("enqueue delete: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry for create+delete coalescing, got %+v", entry)
	}

	all, err := q.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty queue after create+delete, got %d entries", len(all))
	}
}

func TestEnqueueUpdateThenDeleteKeepsOnlyDelete(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()

	if _, err := q.Enqueue(ctx, EntityPlayer, "p1", OpUpdate, map[string]any{"name": "A"}); err != nil {
		t.Fatalf("enqueue update: %v", err)
	}
	entry, err := q.Enqueue(ctx, EntityPlayer, "p1", OpDelete, nil)
	if err != nil {
		t.Fatalf("enqueue delete: %v", err)
	}
	if entry == nil || entry.Operation != OpDelete {
		t.Fatalf("expected a surviving delete entry, got %+v", entry)
	}
}

func TestEnqueueUpdateThenUpdateKeepsLatestData(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()

	if _, err := q.Enqueue(ctx, EntityPlayer, "p1", OpUpdate, map[string]any{"name": "A"}); err != nil {
		t.Fatalf("enqueue update 1: %v", err)
	}
	entry, err := q.Enqueue(ctx, EntityPlayer, "p1", OpUpdate, map[string]any{"name": "B"})
	if err != nil {
		t.Fatalf("enqueue update 2: %v", err)
	}
	data, _ := entry.Data.(map[string]any)
	if data["name"] != "B" {
		t.Fatalf("expected latest data to supersede, got %+v", entry.Data)
	}
}

func TestEnqueueCreateUpdateDeleteReducesToNothing(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()

	if _, err := q.Enqueue(ctx, EntityPlayer, "p1", OpCreate, map[string]any{"name": "A"}); err != nil {
		t.Fatalf("enqueue create: %v", err)
	}
	if _, err := q.Enqueue(ctx, EntityPlayer, "p1", OpUpdate, map[string]any{"name": "B"}); err != nil {
		t.Fatalf("enqueue update: %v", err)
	}
	if _, err := q.Enqueue(ctx, EntityPlayer, "p1", OpDelete, nil); err != nil {
		t.Fatalf("enqueue delete: %v", err)
	}

	all, err := q.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected create+update+delete to reduce to an empty queue, got %+v", all)
	}
}

func TestEnqueueCoalescesPerEntityNotAcrossEntities(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()

	if _, err := q.Enqueue(ctx, EntityPlayer, "p1", OpUpdate, nil); err != nil {
		t.Fatalf("enqueue player: %v", err)
	}
	if _, err := q.Enqueue(ctx, EntityTeam, "p1", OpDelete, nil); err != nil {
		t.Fatalf("enqueue team: %v", err)
	}

	all, err := q.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected entries for different entity types to not coalesce, got %+v", all)
	}
}

func TestPeekReturnsFIFOHead(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()

	if _, err := q.Enqueue(ctx, EntityPlayer, "p1", OpCreate, nil); err != nil {
		t.Fatalf("enqueue p1: %v", err)
	}
	if _, err := q.Enqueue(ctx, EntityPlayer, "p2", OpCreate, nil); err != nil {
		t.Fatalf("enqueue p2: %v", err)
	}
	head, err := q.Peek(ctx)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if head == nil || head.EntityID != "p1" {
		t.Fatalf("expected p1 at head, got %+v", head)
	}
}

func TestShouldSkipSettingsWriteOnDeepEqual(t *testing.T) {
	a := map[string]any{"language": "en", "hasSeenAppGuide": true}
	b := map[string]any{"hasSeenAppGuide": true, "language": "en"}
	if !ShouldSkipSettingsWrite(a, b) {
		t.Fatalf("expected deep-equal maps (regardless of key order) to be skippable")
	}
	c := map[string]any{"language": "fr", "hasSeenAppGuide": true}
	if ShouldSkipSettingsWrite(a, c) {
		t.Fatalf("expected differing values to not be skippable")
	}
}
