package storage

import (
	"context"
	"fmt"
)

// registrySchema creates the shared registry table. Uniqueness of slug,
// email and schema_name is enforced here, at the storage layer, so two
// concurrent creators cannot both pass the engine's pre-check and both
// insert.
const registrySchema = `
CREATE TABLE IF NOT EXISTS public.tenants (
    id UUID PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    slug TEXT NOT NULL UNIQUE,
    business_name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    phone TEXT NOT NULL DEFAULT '',
    trade_type TEXT NOT NULL CHECK (trade_type IN ('car_mechanic', 'plumber', 'electrician', 'builder', 'general')),
    subscription_tier TEXT NOT NULL CHECK (subscription_tier IN ('trial', 'starter', 'pro', 'business', 'enterprise')),
    subscription_status TEXT NOT NULL DEFAULT 'active' CHECK (subscription_status IN ('active', 'past_due', 'cancelled', 'paused')),
    trial_ends_at TIMESTAMPTZ,
    schema_name TEXT NOT NULL UNIQUE,
    parts_label TEXT NOT NULL,
    show_vehicle_fields BOOLEAN NOT NULL DEFAULT false,
    primary_color TEXT NOT NULL DEFAULT '#3b82f6',
    max_bookings_per_month INTEGER NOT NULL DEFAULT -1,
    max_telegram_bots INTEGER NOT NULL DEFAULT 1,
    max_users INTEGER NOT NULL DEFAULT 1
)`

// EnsureRegistry creates the shared tenants table if it does not exist.
// Safe to run at every startup.
func (s *PostgresStore) EnsureRegistry(ctx context.Context) error {
	if _, err := s.getDB().ExecContext(ctx, registrySchema); err != nil {
		return fmt.Errorf("create tenants table: %w", err)
	}

	_, err := s.getDB().ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_tenants_created_at ON public.tenants (created_at DESC)`)
	if err != nil {
		return fmt.Errorf("create tenants index: %w", err)
	}

	return nil
}
