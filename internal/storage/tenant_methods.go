package storage

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradedash/tenant-server/internal/models"
)

const tenantColumns = `id, created_at, updated_at, slug, business_name, email, phone,
       trade_type, subscription_tier, subscription_status, trial_ends_at,
       schema_name, parts_label, show_vehicle_fields, primary_color,
       max_bookings_per_month, max_telegram_bots, max_users`

// CreateTenant inserts a tenant into the shared registry table
func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}

	now := time.Now()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	query := `
        INSERT INTO public.tenants (
            id, created_at, updated_at, slug, business_name, email, phone,
            trade_type, subscription_tier, subscription_status, trial_ends_at,
            schema_name, parts_label, show_vehicle_fields, primary_color,
            max_bookings_per_month, max_telegram_bots, max_users
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
        )`

	_, err := s.getDB().ExecContext(ctx, query,
		tenant.ID, tenant.CreatedAt, tenant.UpdatedAt, tenant.Slug,
		tenant.BusinessName, tenant.Email, tenant.Phone, tenant.TradeType,
		tenant.SubscriptionTier, tenant.SubscriptionStatus, tenant.TrialEndsAt,
		tenant.SchemaName, tenant.PartsLabel, tenant.ShowVehicleFields,
		tenant.PrimaryColor, tenant.MaxBookingsPerMonth, tenant.MaxTelegramBots,
		tenant.MaxUsers,
	)

	if err != nil {
		return mapUniqueViolation(err)
	}

	return nil
}

// GetTenantBySlug gets a tenant by slug
func (s *PostgresStore) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM public.tenants WHERE slug = $1`

	tenant := &models.Tenant{}
	err := s.getDB().QueryRowContext(ctx, query, slug).Scan(
		&tenant.ID, &tenant.CreatedAt, &tenant.UpdatedAt, &tenant.Slug,
		&tenant.BusinessName, &tenant.Email, &tenant.Phone, &tenant.TradeType,
		&tenant.SubscriptionTier, &tenant.SubscriptionStatus, &tenant.TrialEndsAt,
		&tenant.SchemaName, &tenant.PartsLabel, &tenant.ShowVehicleFields,
		&tenant.PrimaryColor, &tenant.MaxBookingsPerMonth, &tenant.MaxTelegramBots,
		&tenant.MaxUsers,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return tenant, err
}

// ListTenants lists all tenants, newest first
func (s *PostgresStore) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM public.tenants ORDER BY created_at DESC`

	rows, err := s.getDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant := &models.Tenant{}
		err := rows.Scan(
			&tenant.ID, &tenant.CreatedAt, &tenant.UpdatedAt, &tenant.Slug,
			&tenant.BusinessName, &tenant.Email, &tenant.Phone, &tenant.TradeType,
			&tenant.SubscriptionTier, &tenant.SubscriptionStatus, &tenant.TrialEndsAt,
			&tenant.SchemaName, &tenant.PartsLabel, &tenant.ShowVehicleFields,
			&tenant.PrimaryColor, &tenant.MaxBookingsPerMonth, &tenant.MaxTelegramBots,
			&tenant.MaxUsers,
		)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}

	return tenants, rows.Err()
}

// UpdateTenant applies the sparse change set plus a refreshed updated_at
// in one statement. Slug and schema_name are never touched.
func (s *PostgresStore) UpdateTenant(ctx context.Context, slug string, changes models.TenantChanges) error {
	var (
		sets []string
		args []interface{}
	)

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if changes.BusinessName != nil {
		add("business_name", *changes.BusinessName)
	}
	if changes.Email != nil {
		add("email", *changes.Email)
	}
	if changes.TradeType != nil {
		add("trade_type", *changes.TradeType)
	}
	if changes.SubscriptionTier != nil {
		add("subscription_tier", *changes.SubscriptionTier)
	}
	if changes.SubscriptionStatus != nil {
		add("subscription_status", *changes.SubscriptionStatus)
	}
	if changes.PrimaryColor != nil {
		add("primary_color", *changes.PrimaryColor)
	}

	if len(sets) == 0 {
		return nil
	}

	add("updated_at", time.Now())

	args = append(args, slug)
	query := "UPDATE public.tenants SET " + strings.Join(sets, ", ") +
		" WHERE slug = $" + strconv.Itoa(len(args))

	result, err := s.getDB().ExecContext(ctx, query, args...)
	if err != nil {
		return mapUniqueViolation(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteTenantBySlug deletes a tenant row
func (s *PostgresStore) DeleteTenantBySlug(ctx context.Context, slug string) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM public.tenants WHERE slug = $1", slug)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// TenantEmailTaken reports whether any tenant already uses the email
func (s *PostgresStore) TenantEmailTaken(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.getDB().QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM public.tenants WHERE email = $1)", email,
	).Scan(&exists)
	return exists, err
}
