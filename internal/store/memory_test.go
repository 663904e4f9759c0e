package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	created, err := m.UpsertSegment(ctx, UpsertParams{
		Key:       "power_users",
		Condition: "level >= 10",
		Env:       "prod",
	})
	if err != nil {
		t.Fatalf("UpsertSegment: %v", err)
	}
	if created.ID == "" {
		t.Fatal("segment created without an ID")
	}

	got, err := m.GetSegment(ctx, "power_users", "prod")
	if err != nil {
		t.Fatalf("GetSegment: %v", err)
	}
	if got.Condition != "level >= 10" {
		t.Fatalf("condition = %q", got.Condition)
	}

	// Update preserves the ID.
	updated, err := m.UpsertSegment(ctx, UpsertParams{
		Key:       "power_users",
		Condition: "level >= 20",
		Env:       "prod",
	})
	if err != nil {
		t.Fatalf("UpsertSegment: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("update changed ID: %s -> %s", created.ID, updated.ID)
	}

	// Environments are isolated.
	if _, err := m.GetSegment(ctx, "power_users", "dev"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound for other env", err)
	}

	list, err := m.ListSegments(ctx, "prod")
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d segments, want 1", len(list))
	}

	if err := m.DeleteSegment(ctx, "power_users", "prod"); err != nil {
		t.Fatalf("DeleteSegment: %v", err)
	}
	if _, err := m.GetSegment(ctx, "power_users", "prod"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound after delete", err)
	}
	// Deleting again is idempotent.
	if err := m.DeleteSegment(ctx, "power_users", "prod"); err != nil {
		t.Fatalf("second DeleteSegment: %v", err)
	}
}
