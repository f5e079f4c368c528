package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/merchant-ops/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS merchant_locks (
	merchant_id TEXT NOT NULL,
	product_id  TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (merchant_id, product_id)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetLocks(ctx context.Context, merchantID string) (model.MerchantLocks, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, reason FROM merchant_locks WHERE merchant_id = ?`, merchantID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get locks %s", merchantID)
	}
	defer rows.Close() //nolint:errcheck

	locks := model.MerchantLocks{}
	for rows.Next() {
		var productID, reason string
		if err := rows.Scan(&productID, &reason); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lock")
		}
		locks[productID] = reason
	}
	return locks, eris.Wrap(rows.Err(), "sqlite: iterate locks")
}

func (s *SQLiteStore) SetLock(ctx context.Context, merchantID, productID, reason string) error {
	if err := validateLock(merchantID, productID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO merchant_locks (merchant_id, product_id, reason, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(merchant_id, product_id) DO UPDATE SET reason = excluded.reason, updated_at = excluded.updated_at`,
		merchantID, productID, reason, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: set lock %s/%s", merchantID, productID)
}

func (s *SQLiteStore) ClearLocks(ctx context.Context, merchantID string, productIDs ...string) (int, error) {
	if len(productIDs) == 0 {
		res, err := s.db.ExecContext(ctx, `DELETE FROM merchant_locks WHERE merchant_id = ?`, merchantID)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: clear locks %s", merchantID)
		}
		n, err := res.RowsAffected()
		return int(n), eris.Wrap(err, "sqlite: rows affected")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	removed := 0
	for _, id := range productIDs {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM merchant_locks WHERE merchant_id = ? AND product_id = ?`, merchantID, id)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: clear lock %s/%s", merchantID, id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		removed += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return removed, nil
}

func (s *SQLiteStore) ListMerchants(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT merchant_id FROM merchant_locks ORDER BY merchant_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list merchants")
	}
	defer rows.Close() //nolint:errcheck

	var merchants []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan merchant")
		}
		merchants = append(merchants, id)
	}
	return merchants, eris.Wrap(rows.Err(), "sqlite: iterate merchants")
}
