package calendar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const entryExt = ".yaml"

// Entry is a block stored by DirBackend.
type Entry struct {
	ID      string    `yaml:"id" json:"id"`
	Block   Block     `yaml:"block" json:"block"`
	SavedAt time.Time `yaml:"saved_at" json:"saved_at"`
}

// DirBackend stores one YAML document per entry in a directory, so any
// tool that watches the directory can pick up the blocks.
type DirBackend struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewDirBackend returns a backend writing into dir.
func NewDirBackend(dir string) *DirBackend {
	return &DirBackend{dir: dir, now: time.Now}
}

func (d *DirBackend) Name() string { return "dir" }

// Available creates the directory when needed and reports whether it is usable.
func (d *DirBackend) Available() bool {
	if strings.TrimSpace(d.dir) == "" {
		return false
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return false
	}
	info, err := os.Stat(d.dir)
	return err == nil && info.IsDir()
}

func (d *DirBackend) Save(ctx context.Context, entryID string, block Block) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	id := entryID
	if id == "" {
		id = uuid.NewString()
	} else {
		path, err := d.entryPath(id)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("entry %s: %w", id, ErrNotFound)
			}
			return "", classifyFSError(err)
		}
	}

	path, err := d.entryPath(id)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(Entry{ID: id, Block: block, SavedAt: d.now().UTC()})
	if err != nil {
		return "", fmt.Errorf("failed to marshal entry: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", classifyFSError(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", classifyFSError(err)
	}
	return id, nil
}

func (d *DirBackend) Remove(ctx context.Context, entryID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	path, err := d.entryPath(entryID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
		}
		return classifyFSError(err)
	}
	return nil
}

// List returns all stored entries ordered by start.
func (d *DirBackend) List() ([]Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	files, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, classifyFSError(err)
	}
	var entries []Entry
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != entryExt {
			continue
		}
		data, err := os.ReadFile(filepath.Join(d.dir, f.Name()))
		if err != nil {
			return nil, classifyFSError(err)
		}
		var entry Entry
		if err := yaml.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse entry %s: %w", f.Name(), err)
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Block.Start.Before(entries[j].Block.Start) })
	return entries, nil
}

// entryPath rejects ids that are not UUIDs so they cannot escape dir.
func (d *DirBackend) entryPath(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return filepath.Join(d.dir, id+entryExt), nil
}

func classifyFSError(err error) error {
	if os.IsPermission(err) {
		return fmt.Errorf("%w: %v", ErrPermission, err)
	}
	return err
}
