package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/merchant-ops/internal/model"
)

// FileStore implements Store on a YAML locks file, for single-user setups
// without a database.
//
// Locks file layout:
//
//	merchant-42:
//	  P001: seasonal promotion
//	  P007: contract price
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a FileStore backed by the YAML file at path.
func NewFile(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Migrate(_ context.Context) error {
	return eris.Wrap(os.MkdirAll(filepath.Dir(s.path), 0o755), "file: create locks dir")
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() (map[string]model.MerchantLocks, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]model.MerchantLocks{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "file: read %s", s.path)
	}
	all := map[string]model.MerchantLocks{}
	if err := yaml.Unmarshal(data, &all); err != nil {
		return nil, eris.Wrapf(err, "file: parse %s", s.path)
	}
	return all, nil
}

// write replaces the locks file atomically.
func (s *FileStore) write(all map[string]model.MerchantLocks) error {
	for id, locks := range all {
		if len(locks) == 0 {
			delete(all, id)
		}
	}
	data, err := yaml.Marshal(all)
	if err != nil {
		return eris.Wrap(err, "file: marshal locks")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "file: write %s", tmp)
	}
	return eris.Wrapf(os.Rename(tmp, s.path), "file: replace %s", s.path)
}

func (s *FileStore) GetLocks(_ context.Context, merchantID string) (model.MerchantLocks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	locks := model.MerchantLocks{}
	for k, v := range all[merchantID] {
		locks[k] = v
	}
	return locks, nil
}

func (s *FileStore) SetLock(_ context.Context, merchantID, productID, reason string) error {
	if err := validateLock(merchantID, productID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	if all[merchantID] == nil {
		all[merchantID] = model.MerchantLocks{}
	}
	all[merchantID][productID] = reason
	return s.write(all)
}

func (s *FileStore) ClearLocks(_ context.Context, merchantID string, productIDs ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return 0, err
	}
	locks := all[merchantID]
	removed := 0
	if len(productIDs) == 0 {
		removed = len(locks)
		delete(all, merchantID)
	} else {
		for _, id := range productIDs {
			if locks.Has(id) {
				delete(locks, id)
				removed++
			}
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.write(all)
}

func (s *FileStore) ListMerchants(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	for id, locks := range all {
		if len(locks) == 0 {
			delete(all, id)
		}
	}
	return sortedKeys(all), nil
}
