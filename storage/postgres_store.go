package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"hdb-resale/models"
	"hdb-resale/utils"
)

const (
	insertBatchSize = 500
	insertColumns   = 16
)

// ErrNoSnapshot is returned by FetchAll before anything was written.
var ErrNoSnapshot = errors.New("postgres: no dataset snapshot stored")

var (
	_ DatasetWriter = (*PostgresStore)(nil)
	_ DatasetReader = (*PostgresStore)(nil)
)

// PostgresStore keeps one dataset snapshot in PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresStore opens a connection to PostgreSQL, retrying the first
// ping, runs schema migrations and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db, logger: retry.Logger}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS resale_snapshots (
			id           UUID        PRIMARY KEY,
			source       TEXT        NOT NULL,
			columns      TEXT[]      NOT NULL,
			record_count INTEGER     NOT NULL,
			loaded_at    TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS resale_transactions (
			snapshot_id         UUID          NOT NULL REFERENCES resale_snapshots(id) ON DELETE CASCADE,
			seq                 INTEGER       NOT NULL,
			month               DATE,
			month_has_day       BOOLEAN       NOT NULL DEFAULT FALSE,
			town                TEXT          NOT NULL DEFAULT '',
			flat_type           TEXT          NOT NULL DEFAULT '',
			block               TEXT          NOT NULL DEFAULT '',
			street_name         TEXT          NOT NULL DEFAULT '',
			storey_range        TEXT          NOT NULL DEFAULT '',
			floor_area_sqm      TEXT          NOT NULL DEFAULT '',
			flat_model          TEXT          NOT NULL DEFAULT '',
			lease_commence_date INTEGER,
			remaining_lease     TEXT          NOT NULL DEFAULT '',
			resale_price        NUMERIC(12,2),
			latitude            DOUBLE PRECISION,
			longitude           DOUBLE PRECISION,
			PRIMARY KEY (snapshot_id, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_resale_town      ON resale_transactions(town);
		CREATE INDEX IF NOT EXISTS idx_resale_flat_type ON resale_transactions(flat_type);
	`)
	return err
}

// Write replaces the stored snapshot with ds in a single transaction.
func (ps *PostgresStore) Write(ctx context.Context, ds *models.Dataset) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM resale_snapshots"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	columns := ds.Columns
	if columns == nil {
		columns = []string{}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO resale_snapshots (id, source, columns, record_count, loaded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ds.ID, ds.Source, pq.Array(columns), len(ds.Records), ds.LoadedAt); err != nil {
		return fmt.Errorf("postgres: insert snapshot: %w", err)
	}

	for i := 0; i < len(ds.Records); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(ds.Records) {
			end = len(ds.Records)
		}
		query, args := buildInsertBatch(ds, i, ds.Records[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	if ps.logger != nil {
		ps.logger.Info("[postgres] Stored snapshot %s (%d records)", ds.ID, len(ds.Records))
	}
	return nil
}

func buildInsertBatch(ds *models.Dataset, firstSeq int, batch []models.Transaction) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*insertColumns)

	for idx, t := range batch {
		base := idx * insertColumns
		placeholders := make([]string, insertColumns)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			ds.ID, firstSeq+idx, t.Month, t.MonthHasDay, t.Town, t.FlatType, t.Block,
			t.StreetName, t.StoreyRange, t.FloorAreaSqm, t.FlatModel, t.LeaseCommenceDate,
			t.RemainingLease, t.ResalePrice, t.Latitude, t.Longitude)
	}

	query := fmt.Sprintf(`
		INSERT INTO resale_transactions (
			snapshot_id, seq, month, month_has_day, town, flat_type, block,
			street_name, storey_range, floor_area_sqm, flat_model, lease_commence_date,
			remaining_lease, resale_price, latitude, longitude
		)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}

// FetchAll retrieves the stored snapshot in its original record order.
func (ps *PostgresStore) FetchAll(ctx context.Context) (*models.Dataset, error) {
	ds := &models.Dataset{}
	err := ps.db.QueryRowContext(ctx, `
		SELECT id, source, columns, loaded_at
		FROM resale_snapshots
		ORDER BY loaded_at DESC
		LIMIT 1
	`).Scan(&ds.ID, &ds.Source, pq.Array(&ds.Columns), &ds.LoadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch snapshot: %w", err)
	}

	rows, err := ps.db.QueryContext(ctx, `
		SELECT month, month_has_day, town, flat_type, block, street_name, storey_range,
		       floor_area_sqm, flat_model, lease_commence_date, remaining_lease,
		       resale_price, latitude, longitude
		FROM resale_transactions
		WHERE snapshot_id = $1
		ORDER BY seq
	`, ds.ID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(
			&t.Month, &t.MonthHasDay, &t.Town, &t.FlatType, &t.Block, &t.StreetName,
			&t.StoreyRange, &t.FloorAreaSqm, &t.FlatModel, &t.LeaseCommenceDate,
			&t.RemainingLease, &t.ResalePrice, &t.Latitude, &t.Longitude,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if t.Month.Valid {
			t.Month.Time = t.Month.Time.UTC()
		}
		ds.Records = append(ds.Records, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	return ds, nil
}

// Close releases the connection pool.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
