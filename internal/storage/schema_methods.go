package storage

import (
	"context"
	"fmt"
	"regexp"
)

// Schema names are interpolated into DDL, so they must stay inside the
// identifier-safe alphabet the deriver produces. Anything else is
// rejected before any statement is built.
var safeSchemaName = regexp.MustCompile(`^tenant_[a-z0-9_]+$`)

// Baseline objects created inside every tenant schema. All statements
// use create-if-not-exists semantics so repeated provisioning attempts
// on the same schema are safe.
var tenantSchemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS %[1]s`,
	`CREATE TABLE IF NOT EXISTS %[1]s.bookings (
        id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
        customer_name TEXT NOT NULL,
        customer_email TEXT,
        customer_phone TEXT,
        booking_date DATE NOT NULL,
        status TEXT DEFAULT 'pending',
        notes TEXT,
        created_at TIMESTAMPTZ DEFAULT NOW(),
        updated_at TIMESTAMPTZ DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_date ON %[1]s.bookings (booking_date)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON %[1]s.bookings (status)`,
	`CREATE TABLE IF NOT EXISTS %[1]s.business_settings (
        id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
        setting_key TEXT UNIQUE NOT NULL,
        setting_value JSONB,
        created_at TIMESTAMPTZ DEFAULT NOW(),
        updated_at TIMESTAMPTZ DEFAULT NOW()
    )`,
}

// CreateTenantSchema provisions a tenant schema and its baseline
// tables. Runs on the current transaction when called through a Store
// from BeginTx; Postgres DDL is transactional, so a failed registry
// insert takes the schema with it.
func (s *PostgresStore) CreateTenantSchema(ctx context.Context, schemaName string) error {
	if !safeSchemaName.MatchString(schemaName) {
		return fmt.Errorf("unsafe schema name %q", schemaName)
	}

	for _, stmt := range tenantSchemaStatements {
		if _, err := s.getDB().ExecContext(ctx, fmt.Sprintf(stmt, schemaName)); err != nil {
			return fmt.Errorf("provision schema %s: %w", schemaName, err)
		}
	}

	return nil
}

// DropTenantSchema destroys a tenant schema and everything inside it.
// Dropping an absent schema is a success, not an error.
func (s *PostgresStore) DropTenantSchema(ctx context.Context, schemaName string) error {
	if !safeSchemaName.MatchString(schemaName) {
		return fmt.Errorf("unsafe schema name %q", schemaName)
	}

	query := fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName)
	if _, err := s.getDB().ExecContext(ctx, query); err != nil {
		return fmt.Errorf("drop schema %s: %w", schemaName, err)
	}

	return nil
}
