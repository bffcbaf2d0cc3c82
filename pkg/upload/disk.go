package upload

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DiskStore persists uploads under a local directory. Each file is
// written as <id> with a <id>.json sidecar holding its metadata, so
// the store survives restarts.
type DiskStore struct {
	dir     string
	maxSize int64

	mu    sync.RWMutex
	files map[string]*diskMeta
}

type diskMeta struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewDiskStore creates a store rooted at dir, creating it if needed.
// maxSize of 0 means no limit.
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{
		dir:     dir,
		maxSize: maxSize,
		files:   make(map[string]*diskMeta),
	}, nil
}

// Save writes the file to the store directory and returns its location.
func (s *DiskStore) Save(ctx context.Context, filename, contentType string, r io.Reader) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}

	id := newID()
	path := filepath.Join(s.dir, id)

	f, err := os.Create(path)
	if err != nil {
		return Stored{}, err
	}
	defer f.Close()

	var reader io.Reader = r
	if s.maxSize > 0 {
		// +1 so hitting the cap is distinguishable from an exact fit.
		reader = io.LimitReader(r, s.maxSize+1)
	}

	written, err := io.Copy(f, reader)
	if err != nil {
		os.Remove(path)
		return Stored{}, err
	}
	if s.maxSize > 0 && written > s.maxSize {
		os.Remove(path)
		return Stored{}, ErrTooLarge
	}

	meta := &diskMeta{
		Filename:    filename,
		ContentType: contentType,
		Size:        written,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.files[id] = meta
	s.mu.Unlock()

	if err := s.saveMeta(id, meta); err != nil {
		os.Remove(path)
		return Stored{}, err
	}

	return Stored{
		ID:          id,
		Filename:    filename,
		ContentType: contentType,
		Size:        written,
		Path:        path,
	}, nil
}

// Remove deletes a stored file and its metadata.
func (s *DiskStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.files[id]
	delete(s.files, id)
	s.mu.Unlock()

	path := filepath.Join(s.dir, id)
	if !ok {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return ErrNotFound
		}
	}
	os.Remove(s.metaPath(id))
	return os.Remove(path)
}

// Cleanup removes stored files older than maxAge, including orphans
// left behind by a previous process.
func (s *DiskStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	for id, meta := range s.files {
		if meta.CreatedAt.Before(cutoff) {
			delete(s.files, id)
			os.Remove(filepath.Join(s.dir, id))
			os.Remove(s.metaPath(id))
		}
	}
	s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
	return nil
}

func (s *DiskStore) metaPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *DiskStore) saveMeta(id string, meta *diskMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(s.metaPath(id), data, 0o644)
}
