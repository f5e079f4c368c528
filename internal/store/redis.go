package store

import (
	"context"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/merchant-ops/internal/model"
)

// RedisStore implements Store on Redis. Each merchant's locks live in one
// hash at {namespace}:locks:{merchant}.
type RedisStore struct {
	rdb       *redis.Client
	namespace string
}

// NewRedis creates a RedisStore. An empty namespace defaults to "merchantops".
func NewRedis(opts *redis.Options, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "merchantops"
	}
	return &RedisStore{rdb: redis.NewClient(opts), namespace: namespace}
}

func (s *RedisStore) locksKey(merchantID string) string {
	return s.namespace + ":locks:" + merchantID
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate verifies connectivity; Redis needs no schema.
func (s *RedisStore) Migrate(ctx context.Context) error {
	return eris.Wrap(s.rdb.Ping(ctx).Err(), "redis: ping")
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) GetLocks(ctx context.Context, merchantID string) (model.MerchantLocks, error) {
	hash, err := s.rdb.HGetAll(ctx, s.locksKey(merchantID)).Result()
	if err != nil {
		return nil, eris.Wrapf(err, "redis: get locks %s", merchantID)
	}
	locks := make(model.MerchantLocks, len(hash))
	for k, v := range hash {
		locks[k] = v
	}
	return locks, nil
}

func (s *RedisStore) SetLock(ctx context.Context, merchantID, productID, reason string) error {
	if err := validateLock(merchantID, productID); err != nil {
		return err
	}
	err := s.rdb.HSet(ctx, s.locksKey(merchantID), productID, reason).Err()
	return eris.Wrapf(err, "redis: set lock %s/%s", merchantID, productID)
}

func (s *RedisStore) ClearLocks(ctx context.Context, merchantID string, productIDs ...string) (int, error) {
	key := s.locksKey(merchantID)
	if len(productIDs) > 0 {
		n, err := s.rdb.HDel(ctx, key, productIDs...).Result()
		return int(n), eris.Wrapf(err, "redis: clear locks %s", merchantID)
	}

	var hlen *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		hlen = pipe.HLen(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return 0, eris.Wrapf(err, "redis: clear locks %s", merchantID)
	}
	return int(hlen.Val()), nil
}

func (s *RedisStore) ListMerchants(ctx context.Context) ([]string, error) {
	prefix := s.locksKey("")
	var merchants []string
	iter := s.rdb.Scan(ctx, 0, escapeGlob(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		merchants = append(merchants, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, eris.Wrap(err, "redis: list merchants")
	}
	sort.Strings(merchants)
	return merchants, nil
}
