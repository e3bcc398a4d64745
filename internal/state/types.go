// Package state persists the bundle registration records and reconciles
// them against the currently configured set of bundles. Records are
// soft-deleted only: a name, once seen, keeps its row forever because
// historical workflow runs reference it.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrBundleNotFound is returned when no record exists for a bundle name.
var ErrBundleNotFound = errors.New("bundle record not found")

// BundleRecord is one persisted bundle registration.
type BundleRecord struct {
	ID        uuid.UUID
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Service is the persistence interface for bundle records.
type Service interface {
	// Reconcile aligns the persisted records with the configured bundle
	// names in one transaction: unknown names are inserted active,
	// reappearing names are re-activated, and names that dropped out of
	// configuration are deactivated. Rows are never deleted, and a no-op
	// reconcile performs no writes.
	Reconcile(ctx context.Context, configured []string) error

	// ListRecords returns all bundle records ordered by name.
	ListRecords(ctx context.Context) ([]BundleRecord, error)

	// GetRecord returns the record for one bundle name, or
	// ErrBundleNotFound.
	GetRecord(ctx context.Context, name string) (*BundleRecord, error)
}
