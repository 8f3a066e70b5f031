// Package jsonfile persists store snapshots as a single JSON document on an
// afero filesystem. Writes go to a temporary file that is then renamed over
// the target, so a crash never leaves a half-written snapshot.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/store"
	"github.com/spf13/afero"
)

// Persister implements store.Persister.
type Persister struct {
	fs     afero.Fs
	path   string
	loc    *time.Location
	logger *logger.Logger
}

// New creates a persister writing to path on fs.
func New(fs afero.Fs, path string, loc *time.Location, log *logger.Logger) *Persister {
	if loc == nil {
		loc = time.UTC
	}
	return &Persister{
		fs:     fs,
		path:   path,
		loc:    loc,
		logger: log.Component("jsonfile"),
	}
}

// Path returns the snapshot file location.
func (p *Persister) Path() string {
	return p.path
}

// Load reads the snapshot. A missing file yields an empty snapshot.
func (p *Persister) Load(ctx context.Context) (store.Snapshot, error) {
	data, err := afero.ReadFile(p.fs, p.path)
	if os.IsNotExist(err) {
		return store.EmptySnapshot(), nil
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("read %s: %w", p.path, err)
	}
	if len(data) == 0 {
		return store.EmptySnapshot(), nil
	}

	var doc store.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return store.Snapshot{}, fmt.Errorf("decode %s: %w", p.path, err)
	}

	snap, skipped := store.DecodeDocument(doc, p.loc)
	for _, e := range skipped {
		p.logger.WarnCtx(ctx, "skipping malformed snapshot entry",
			logger.Field{Key: "file", Value: p.path},
			logger.Field{Key: "reason", Value: e.Error()})
	}
	return snap, nil
}

// Save writes the snapshot atomically.
func (p *Persister) Save(ctx context.Context, snap store.Snapshot) error {
	dir := filepath.Dir(p.path)
	if err := p.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(store.EncodeDocument(snap), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmpPath := p.path + ".tmp"
	file, err := p.fs.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", tmpPath, err)
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = p.fs.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = p.fs.Remove(tmpPath)
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := file.Close(); err != nil {
		_ = p.fs.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if err := p.fs.Rename(tmpPath, p.path); err != nil {
		_ = p.fs.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", tmpPath, err)
	}

	p.logger.DebugCtx(ctx, "snapshot saved",
		logger.Field{Key: "file", Value: p.path},
		logger.Field{Key: "tasks", Value: snap.TaskCount()})
	return nil
}

// Close is a no-op; every Save is self-contained.
func (p *Persister) Close() error {
	return nil
}
