package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const segmentsYAML = `
schema:
  level: number
  country: string
segments:
  - key: power_users
    description: High-level players
    condition: "level >= 10"
    env: prod
  - key: na_users
    condition: "country IN ('US','CA')"
    env: prod
  - key: dev_only
    condition: "level > 0"
    env: dev
`

func writeSegmentsFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "segments.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write segments file: %v", err)
	}
	return path
}

func TestFileStore_Load(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(writeSegmentsFile(t, segmentsYAML))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	prod, err := fs.ListSegments(ctx, "prod")
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(prod) != 2 {
		t.Fatalf("got %d prod segments, want 2", len(prod))
	}

	got, err := fs.GetSegment(ctx, "power_users", "prod")
	if err != nil {
		t.Fatalf("GetSegment: %v", err)
	}
	if got.ID == "" {
		t.Fatal("file segment has no ID")
	}

	sch := fs.Schema()
	if sch == nil || !sch.Has("level") {
		t.Fatal("schema from file not loaded")
	}
}

func TestFileStore_DeterministicIDs(t *testing.T) {
	ctx := context.Background()
	path := writeSegmentsFile(t, segmentsYAML)
	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	before, _ := fs.GetSegment(ctx, "power_users", "prod")
	if err := fs.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	after, _ := fs.GetSegment(ctx, "power_users", "prod")
	if before.ID != after.ID {
		t.Fatalf("reload churned segment ID: %s -> %s", before.ID, after.ID)
	}
}

func TestFileStore_ReadOnly(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(writeSegmentsFile(t, segmentsYAML))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, err := fs.UpsertSegment(ctx, UpsertParams{Key: "x", Condition: "a = 1", Env: "prod"}); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("Upsert on file store: %v, want ErrReadOnly", err)
	}
	if err := fs.DeleteSegment(ctx, "power_users", "prod"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("Delete on file store: %v, want ErrReadOnly", err)
	}
}

func TestFileStore_RejectsInvalidFile(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"bad condition", "segments:\n  - key: broken\n    condition: \"level >\"\n    env: prod\n"},
		{"unknown field under schema", "schema:\n  level: number\nsegments:\n  - key: s\n    condition: \"country = 'US'\"\n    env: prod\n"},
		{"unsupported schema type", "schema:\n  level: decimal\nsegments: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFileStore(writeSegmentsFile(t, tt.contents)); err == nil {
				t.Fatal("invalid segments file accepted")
			}
		})
	}
}

func TestFileStore_ReloadKeepsPreviousOnError(t *testing.T) {
	ctx := context.Background()
	path := writeSegmentsFile(t, segmentsYAML)
	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := os.WriteFile(path, []byte("segments:\n  - key: broken\n    condition: \"level >\"\n    env: prod\n"), 0o644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := fs.Reload(); err == nil {
		t.Fatal("reload of broken file succeeded")
	}

	prod, err := fs.ListSegments(ctx, "prod")
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(prod) != 2 {
		t.Fatalf("previous segments lost after failed reload: got %d", len(prod))
	}
}
