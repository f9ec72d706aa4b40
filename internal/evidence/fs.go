package evidence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"truststack/api/internal/store"
)

// FSStore writes evidence files under a local directory. It is the
// default backend when no object store is configured.
type FSStore struct {
	dir string
}

func NewFSStore(dir string) *FSStore {
	return &FSStore{dir: dir}
}

func (s *FSStore) Save(ctx context.Context, projectID, itemID, filename string, data []byte) (store.EvidenceFile, error) {
	id, key := newStorageKey(projectID, itemID, filename)

	fullPath := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return store.EvidenceFile{}, fmt.Errorf("create evidence dir: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return store.EvidenceFile{}, fmt.Errorf("write evidence file: %w", err)
	}

	return store.EvidenceFile{
		ID:         id,
		FileName:   sanitizeFilename(filename),
		SizeBytes:  int64(len(data)),
		SHA256:     contentDigest(data),
		StorageKey: key,
	}, nil
}

func (s *FSStore) Read(ctx context.Context, storageKey string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(storageKey)))
	if err != nil {
		return nil, fmt.Errorf("read evidence file: %w", err)
	}
	return data, nil
}
