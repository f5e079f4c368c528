// Package store persists merchant price locks set outside of pricing runs.
package store

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/merchant-ops/internal/model"
)

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*FileStore)(nil)
)

// Store defines the persistence interface for merchant locks.
type Store interface {
	// Locks
	GetLocks(ctx context.Context, merchantID string) (model.MerchantLocks, error)
	SetLock(ctx context.Context, merchantID, productID, reason string) error
	// ClearLocks removes the given product locks, or every lock for the
	// merchant when no product ids are passed. It returns how many were removed.
	ClearLocks(ctx context.Context, merchantID string, productIDs ...string) (int, error)
	ListMerchants(ctx context.Context) ([]string, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func validateLock(merchantID, productID string) error {
	if merchantID == "" {
		return eris.New("store: merchant id is required")
	}
	if productID == "" {
		return eris.New("store: product id is required")
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
