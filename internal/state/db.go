package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dagsmith/bundle-registry-server/internal/logger"
)

type dbService struct {
	pool *pgxpool.Pool
}

// NewDBService creates a new database-backed bundle state service.
func NewDBService(pool *pgxpool.Pool) Service {
	return &dbService{
		pool: pool,
	}
}

const (
	listRecordsQuery = `
		SELECT id, name, active, created_at, updated_at
		FROM dag_bundles
		ORDER BY name`

	getRecordQuery = `
		SELECT id, name, active, created_at, updated_at
		FROM dag_bundles
		WHERE name = $1`

	listNamesActiveQuery = `
		SELECT name, active
		FROM dag_bundles`

	insertRecordsQuery = `
		INSERT INTO dag_bundles (name)
		SELECT unnest($1::text[])`

	setActiveQuery = `
		UPDATE dag_bundles
		SET active = $1, updated_at = now()
		WHERE name = ANY($2::text[])`
)

// Reconcile aligns persisted records with the configured names inside one
// transaction. Either the full reconciliation commits or none of it does.
func (d *dbService) Reconcile(ctx context.Context, configured []string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	rows, err := tx.Query(ctx, listNamesActiveQuery)
	if err != nil {
		return fmt.Errorf("failed to read bundle records: %w", err)
	}

	persisted := make(map[string]bool)
	for rows.Next() {
		var name string
		var active bool
		if err := rows.Scan(&name, &active); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan bundle record: %w", err)
		}
		persisted[name] = active
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read bundle records: %w", err)
	}

	configuredSet := make(map[string]struct{}, len(configured))
	var toInsert, toActivate []string
	for _, name := range configured {
		configuredSet[name] = struct{}{}
		active, exists := persisted[name]
		switch {
		case !exists:
			toInsert = append(toInsert, name)
		case !active:
			toActivate = append(toActivate, name)
		}
	}

	var toDeactivate []string
	for name, active := range persisted {
		if _, ok := configuredSet[name]; !ok && active {
			toDeactivate = append(toDeactivate, name)
		}
	}

	// Names already in the right state get no write, keeping repeated
	// reconciles of an unchanged configuration free of redundant updates.
	if len(toInsert) > 0 {
		if _, err := tx.Exec(ctx, insertRecordsQuery, toInsert); err != nil {
			return fmt.Errorf("failed to insert bundle records: %w", err)
		}
	}
	if len(toActivate) > 0 {
		if _, err := tx.Exec(ctx, setActiveQuery, true, toActivate); err != nil {
			return fmt.Errorf("failed to activate bundle records: %w", err)
		}
	}
	if len(toDeactivate) > 0 {
		if _, err := tx.Exec(ctx, setActiveQuery, false, toDeactivate); err != nil {
			return fmt.Errorf("failed to deactivate bundle records: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reconciliation: %w", err)
	}

	if len(toInsert)+len(toActivate)+len(toDeactivate) > 0 {
		logger.Infof("Reconciled bundle records: %d added, %d activated, %d deactivated",
			len(toInsert), len(toActivate), len(toDeactivate))
	}
	return nil
}

func (d *dbService) ListRecords(ctx context.Context) ([]BundleRecord, error) {
	rows, err := d.pool.Query(ctx, listRecordsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundle records: %w", err)
	}
	defer rows.Close()

	var records []BundleRecord
	for rows.Next() {
		var rec BundleRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bundle record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list bundle records: %w", err)
	}

	return records, nil
}

func (d *dbService) GetRecord(ctx context.Context, name string) (*BundleRecord, error) {
	var rec BundleRecord
	err := d.pool.QueryRow(ctx, getRecordQuery, name).
		Scan(&rec.ID, &rec.Name, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBundleNotFound
		}
		return nil, fmt.Errorf("failed to get bundle record %s: %w", name, err)
	}
	return &rec, nil
}
