package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/merchant-ops/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS merchant_locks (
	merchant_id TEXT NOT NULL,
	product_id  TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (merchant_id, product_id)
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetLocks(ctx context.Context, merchantID string) (model.MerchantLocks, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT product_id, reason FROM merchant_locks WHERE merchant_id = $1`, merchantID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get locks %s", merchantID)
	}
	defer rows.Close()

	locks := model.MerchantLocks{}
	for rows.Next() {
		var productID, reason string
		if err := rows.Scan(&productID, &reason); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lock")
		}
		locks[productID] = reason
	}
	return locks, eris.Wrap(rows.Err(), "postgres: iterate locks")
}

func (s *PostgresStore) SetLock(ctx context.Context, merchantID, productID, reason string) error {
	if err := validateLock(merchantID, productID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO merchant_locks (merchant_id, product_id, reason, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (merchant_id, product_id) DO UPDATE SET reason = EXCLUDED.reason, updated_at = EXCLUDED.updated_at`,
		merchantID, productID, reason, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: set lock %s/%s", merchantID, productID)
}

func (s *PostgresStore) ClearLocks(ctx context.Context, merchantID string, productIDs ...string) (int, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if len(productIDs) == 0 {
		tag, err = s.pool.Exec(ctx, `DELETE FROM merchant_locks WHERE merchant_id = $1`, merchantID)
	} else {
		tag, err = s.pool.Exec(ctx,
			`DELETE FROM merchant_locks WHERE merchant_id = $1 AND product_id = ANY($2)`, merchantID, productIDs)
	}
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: clear locks %s", merchantID)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) ListMerchants(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT merchant_id FROM merchant_locks ORDER BY merchant_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list merchants")
	}
	defer rows.Close()

	var merchants []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan merchant")
		}
		merchants = append(merchants, id)
	}
	return merchants, eris.Wrap(rows.Err(), "postgres: iterate merchants")
}
