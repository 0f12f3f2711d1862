// Package tenant implements the provisioning and lifecycle engine:
// identifier derivation, uniqueness enforcement, schema creation and
// reversible teardown, each operation one atomic unit of work.
package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tradedash/tenant-server/internal/events"
	"github.com/tradedash/tenant-server/internal/models"
	"github.com/tradedash/tenant-server/internal/storage"
	"github.com/tradedash/tenant-server/pkg/slug"
)

// Service orchestrates registry mutations and schema provisioning. Each
// public operation runs to completion inside a single transaction; the
// provisioner has no commit point of its own.
type Service struct {
	store  storage.Store
	events *events.Publisher
}

// NewService creates the engine. The publisher may be nil to run
// without lifecycle events.
func NewService(store storage.Store, pub *events.Publisher) *Service {
	return &Service{store: store, events: pub}
}

// CreateInput carries the caller-supplied attributes for a new tenant.
type CreateInput struct {
	BusinessName string
	Email        string
	Phone        string
	TradeType    models.TradeType
	Tier         models.SubscriptionTier
}

// List returns all tenants, newest first. An empty registry is a valid,
// non-error result.
func (s *Service) List(ctx context.Context) ([]*models.Tenant, error) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list tenants", Err: err}
	}
	return tenants, nil
}

// Get returns the tenant with the given slug.
func (s *Service) Get(ctx context.Context, tenantSlug string) (*models.Tenant, error) {
	t, err := s.store.GetTenantBySlug(ctx, tenantSlug)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get tenant", Err: err}
	}
	return t, nil
}

// Create registers a tenant and provisions its schema in one
// transaction. If schema creation fails the registry insert is rolled
// back; readers never observe a tenant without its schema.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Tenant, error) {
	if !input.TradeType.Valid() {
		return nil, &InvalidArgumentError{Field: "trade_type", Value: string(input.TradeType)}
	}
	if !input.Tier.Valid() {
		return nil, &InvalidArgumentError{Field: "subscription_tier", Value: string(input.Tier)}
	}

	tenantSlug := slug.Make(input.BusinessName)
	if tenantSlug == "" {
		return nil, &InvalidArgumentError{Field: "business_name", Value: input.BusinessName}
	}
	schemaName := slug.SchemaName(tenantSlug)

	defaults := models.DefaultsForTrade(input.TradeType)
	limits := models.LimitsForTier(input.Tier)

	var trialEndsAt *time.Time
	if input.Tier == models.TierTrial {
		t := time.Now().Add(models.TrialPeriod)
		trialEndsAt = &t
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, &StorageError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	// Pre-checks produce friendlier errors; the UNIQUE constraints on
	// the registry table are the actual enforcement against races.
	if _, err := tx.GetTenantBySlug(ctx, tenantSlug); err == nil {
		return nil, &AlreadyExistsError{Field: "slug", Value: tenantSlug}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, &StorageError{Op: "check slug", Err: err}
	}

	taken, err := tx.TenantEmailTaken(ctx, input.Email)
	if err != nil {
		return nil, &StorageError{Op: "check email", Err: err}
	}
	if taken {
		return nil, &AlreadyExistsError{Field: "email", Value: input.Email}
	}

	tenant := &models.Tenant{
		Slug:                tenantSlug,
		BusinessName:        input.BusinessName,
		Email:               input.Email,
		Phone:               input.Phone,
		TradeType:           input.TradeType,
		SubscriptionTier:    input.Tier,
		SubscriptionStatus:  models.StatusActive,
		TrialEndsAt:         trialEndsAt,
		SchemaName:          schemaName,
		PartsLabel:          defaults.PartsLabel,
		ShowVehicleFields:   defaults.ShowVehicleFields,
		PrimaryColor:        models.DefaultPrimaryColor,
		MaxBookingsPerMonth: limits.BookingsPerMonth,
		MaxTelegramBots:     limits.TelegramBots,
		MaxUsers:            limits.Users,
	}

	if err := tx.CreateTenant(ctx, tenant); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicateSlug):
			return nil, &AlreadyExistsError{Field: "slug", Value: tenantSlug}
		case errors.Is(err, storage.ErrDuplicateEmail):
			return nil, &AlreadyExistsError{Field: "email", Value: input.Email}
		default:
			return nil, &StorageError{Op: "insert tenant", Err: err}
		}
	}

	if err := tx.CreateTenantSchema(ctx, schemaName); err != nil {
		return nil, &ProvisioningError{SchemaName: schemaName, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &StorageError{Op: "commit", Err: err}
	}

	log.Info().
		Str("slug", tenant.Slug).
		Str("schema", tenant.SchemaName).
		Str("tier", string(tenant.SubscriptionTier)).
		Msg("Tenant created")

	s.events.TenantCreated(tenant)

	return tenant, nil
}

// Update applies a sparse set of attribute changes. An empty change set
// is a no-op success, reported as false. Slug and schema name are never
// touched even when the business name changes; the two may diverge.
func (s *Service) Update(ctx context.Context, tenantSlug string, changes models.TenantChanges) (bool, error) {
	if changes.Empty() {
		return false, nil
	}

	if changes.TradeType != nil && !changes.TradeType.Valid() {
		return false, &InvalidArgumentError{Field: "trade_type", Value: string(*changes.TradeType)}
	}
	if changes.SubscriptionTier != nil && !changes.SubscriptionTier.Valid() {
		return false, &InvalidArgumentError{Field: "subscription_tier", Value: string(*changes.SubscriptionTier)}
	}
	if changes.SubscriptionStatus != nil && !changes.SubscriptionStatus.Valid() {
		return false, &InvalidArgumentError{Field: "subscription_status", Value: string(*changes.SubscriptionStatus)}
	}

	err := s.store.UpdateTenant(ctx, tenantSlug, changes)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return false, ErrNotFound
	case errors.Is(err, storage.ErrDuplicateEmail):
		var email string
		if changes.Email != nil {
			email = *changes.Email
		}
		return false, &AlreadyExistsError{Field: "email", Value: email}
	case err != nil:
		return false, &StorageError{Op: "update tenant", Err: err}
	}

	log.Info().Str("slug", tenantSlug).Msg("Tenant updated")

	s.events.TenantUpdated(tenantSlug)

	return true, nil
}

// Remove drops the tenant's schema and deletes its registry row in one
// transaction. If the schema drop fails the row survives, preserving
// the row-iff-schema coupling. The caller must have confirmed the
// removal; force asserts that, the engine never prompts.
func (s *Service) Remove(ctx context.Context, tenantSlug string, force bool) error {
	if !force {
		return ErrConfirmationRequired
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return &StorageError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	tenant, err := tx.GetTenantBySlug(ctx, tenantSlug)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return &StorageError{Op: "get tenant", Err: err}
	}

	if err := tx.DropTenantSchema(ctx, tenant.SchemaName); err != nil {
		return &ProvisioningError{SchemaName: tenant.SchemaName, Err: err}
	}

	if err := tx.DeleteTenantBySlug(ctx, tenantSlug); err != nil {
		return &StorageError{Op: "delete tenant", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "commit", Err: err}
	}

	log.Info().
		Str("slug", tenant.Slug).
		Str("schema", tenant.SchemaName).
		Msg("Tenant removed")

	s.events.TenantDeleted(tenant)

	return nil
}
