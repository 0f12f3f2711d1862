package storage

import (
	"context"
	"errors"

	"github.com/tradedash/tenant-server/internal/models"
)

// Common errors
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrDuplicateSlug  = errors.New("duplicate slug")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// Store defines the storage interface. A Store obtained from BeginTx
// runs every call on that transaction, including the schema DDL, so a
// registry mutation and its schema change commit or roll back together.
type Store interface {
	// Transaction support
	BeginTx(ctx context.Context) (Store, error)
	Commit() error
	Rollback() error

	// Registry methods
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	UpdateTenant(ctx context.Context, slug string, changes models.TenantChanges) error
	DeleteTenantBySlug(ctx context.Context, slug string) error
	TenantEmailTaken(ctx context.Context, email string) (bool, error)

	// Schema provisioning methods
	CreateTenantSchema(ctx context.Context, schemaName string) error
	DropTenantSchema(ctx context.Context, schemaName string) error

	// Close the store
	Close() error
}
