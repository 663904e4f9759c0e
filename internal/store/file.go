package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/segmentd/internal/rules"
	"github.com/TimurManjosov/segmentd/internal/schema"
)

// FileStore serves segment definitions from a YAML file. It is read-only
// through the Store interface: the file is the source of truth, edited out
// of band and picked up by Watch. The file may also declare the attribute
// schema rules are validated against.
//
// File format:
//
//	schema:
//	  level: number
//	  country: string
//	segments:
//	  - key: power_users
//	    description: High-level players
//	    condition: "level >= 10"
//	    env: prod
type FileStore struct {
	path string

	mu       sync.RWMutex
	segments []rules.Segment
	schema   *schema.Schema
	loadedAt time.Time
}

type fileDocument struct {
	Schema   map[string]string `yaml:"schema,omitempty"`
	Segments []fileSegment     `yaml:"segments"`
}

type fileSegment struct {
	Key         string `yaml:"key"`
	Description string `yaml:"description,omitempty"`
	Condition   string `yaml:"condition"`
	Env         string `yaml:"env"`
}

// NewFileStore creates a FileStore and performs the initial load.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path}
	if err := fs.Reload(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Reload re-reads the segments file. On any error the previous contents are
// kept, so a bad edit never wipes the serving set.
func (f *FileStore) Reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read segments file: %w", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse segments file: %w", err)
	}

	var sch *schema.Schema
	if len(doc.Schema) > 0 {
		sch, err = schema.New(doc.Schema)
		if err != nil {
			return fmt.Errorf("segments file schema: %w", err)
		}
	}

	now := time.Now().UTC()
	segments := make([]rules.Segment, 0, len(doc.Segments))
	for i, fs := range doc.Segments {
		s := rules.Segment{
			// Deterministic ID so reloads don't churn identities.
			ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(fs.Env+"/"+fs.Key)).String(),
			Key:         fs.Key,
			Description: fs.Description,
			Condition:   fs.Condition,
			Env:         fs.Env,
			UpdatedAt:   now,
		}
		if err := rules.ValidateSegment(s, sch); err != nil {
			return fmt.Errorf("segments file entry %d (%s): %w", i, fs.Key, err)
		}
		segments = append(segments, s)
	}

	f.mu.Lock()
	f.segments = segments
	f.schema = sch
	f.loadedAt = now
	f.mu.Unlock()
	return nil
}

// Schema returns the attribute schema declared in the file, or nil.
func (f *FileStore) Schema() *schema.Schema {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.schema
}

// Watch reloads the file on filesystem changes until ctx is done, invoking
// onReload after each successful reload. The parent directory is watched
// because editors typically rename-over rather than write in place.
func (f *FileStore) Watch(ctx context.Context, log zerolog.Logger, onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return err
	}

	target := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if err := f.Reload(); err != nil {
				log.Error().Err(err).Str("path", f.path).Msg("segments file reload failed; keeping previous set")
				continue
			}
			log.Info().Str("path", f.path).Msg("segments file reloaded")
			if onReload != nil {
				onReload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("segments file watcher error")
		}
	}
}

func (f *FileStore) ListSegments(ctx context.Context, env string) ([]rules.Segment, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make([]rules.Segment, 0, len(f.segments))
	for _, s := range f.segments {
		if s.Env == env {
			result = append(result, s)
		}
	}
	return result, nil
}

func (f *FileStore) GetSegment(ctx context.Context, key, env string) (*rules.Segment, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, s := range f.segments {
		if s.Key == key && s.Env == env {
			out := s
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FileStore) UpsertSegment(ctx context.Context, params UpsertParams) (*rules.Segment, error) {
	return nil, ErrReadOnly
}

func (f *FileStore) DeleteSegment(ctx context.Context, key, env string) error {
	return ErrReadOnly
}

func (f *FileStore) Close() error {
	return nil
}
