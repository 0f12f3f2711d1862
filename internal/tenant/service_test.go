package tenant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedash/tenant-server/internal/models"
	"github.com/tradedash/tenant-server/internal/storage"
)

// fakeStore is an in-memory storage.Store. BeginTx hands out a child
// store working on copies of the maps; Commit writes the copies back,
// Rollback discards them. That mirrors the transactional contract the
// engine relies on for its all-or-nothing guarantees.
type fakeStore struct {
	parent  *fakeStore
	tenants map[string]*models.Tenant
	schemas map[string]bool

	failCreateSchema bool
	failDropSchema   bool

	committed  bool
	rolledBack bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants: make(map[string]*models.Tenant),
		schemas: make(map[string]bool),
	}
}

func (s *fakeStore) BeginTx(ctx context.Context) (storage.Store, error) {
	child := &fakeStore{
		parent:           s,
		tenants:          make(map[string]*models.Tenant, len(s.tenants)),
		schemas:          make(map[string]bool, len(s.schemas)),
		failCreateSchema: s.failCreateSchema,
		failDropSchema:   s.failDropSchema,
	}
	for k, v := range s.tenants {
		copied := *v
		child.tenants[k] = &copied
	}
	for k, v := range s.schemas {
		child.schemas[k] = v
	}
	return child, nil
}

func (s *fakeStore) Commit() error {
	if s.parent == nil {
		return errors.New("commit outside transaction")
	}
	s.parent.tenants = s.tenants
	s.parent.schemas = s.schemas
	s.committed = true
	return nil
}

func (s *fakeStore) Rollback() error {
	if !s.committed {
		s.rolledBack = true
	}
	return nil
}

func (s *fakeStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if _, ok := s.tenants[tenant.Slug]; ok {
		return storage.ErrDuplicateSlug
	}
	for _, existing := range s.tenants {
		if existing.Email == tenant.Email {
			return storage.ErrDuplicateEmail
		}
	}
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	tenant.CreatedAt = time.Now()
	tenant.UpdatedAt = tenant.CreatedAt
	copied := *tenant
	s.tenants[tenant.Slug] = &copied
	return nil
}

func (s *fakeStore) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	t, ok := s.tenants[slug]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *fakeStore) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	out := make([]*models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeStore) UpdateTenant(ctx context.Context, slug string, changes models.TenantChanges) error {
	t, ok := s.tenants[slug]
	if !ok {
		return storage.ErrNotFound
	}
	if changes.Email != nil {
		for otherSlug, other := range s.tenants {
			if otherSlug != slug && other.Email == *changes.Email {
				return storage.ErrDuplicateEmail
			}
		}
		t.Email = *changes.Email
	}
	if changes.BusinessName != nil {
		t.BusinessName = *changes.BusinessName
	}
	if changes.TradeType != nil {
		t.TradeType = *changes.TradeType
	}
	if changes.SubscriptionTier != nil {
		t.SubscriptionTier = *changes.SubscriptionTier
	}
	if changes.SubscriptionStatus != nil {
		t.SubscriptionStatus = *changes.SubscriptionStatus
	}
	if changes.PrimaryColor != nil {
		t.PrimaryColor = *changes.PrimaryColor
	}
	t.UpdatedAt = time.Now()
	return nil
}

func (s *fakeStore) DeleteTenantBySlug(ctx context.Context, slug string) error {
	if _, ok := s.tenants[slug]; !ok {
		return storage.ErrNotFound
	}
	delete(s.tenants, slug)
	return nil
}

func (s *fakeStore) TenantEmailTaken(ctx context.Context, email string) (bool, error) {
	for _, t := range s.tenants {
		if t.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CreateTenantSchema(ctx context.Context, schemaName string) error {
	if s.failCreateSchema {
		return errors.New("create schema failed")
	}
	s.schemas[schemaName] = true
	return nil
}

func (s *fakeStore) DropTenantSchema(ctx context.Context, schemaName string) error {
	if s.failDropSchema {
		return errors.New("drop schema failed")
	}
	delete(s.schemas, schemaName)
	return nil
}

func (s *fakeStore) Close() error { return nil }

func validInput() CreateInput {
	return CreateInput{
		BusinessName: "Joe's Plumbing",
		Email:        "joe@example.com",
		Phone:        "+44 7700 900123",
		TradeType:    models.TradePlumber,
		Tier:         models.TierTrial,
	}
}

func TestCreate(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	created, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "joes-plumbing", created.Slug)
	assert.Equal(t, "tenant_joes_plumbing", created.SchemaName)
	assert.Equal(t, "Joe's Plumbing", created.BusinessName)
	assert.Equal(t, models.StatusActive, created.SubscriptionStatus)
	assert.Equal(t, models.DefaultPrimaryColor, created.PrimaryColor)

	// Trade-specific defaults
	assert.Equal(t, "Materials", created.PartsLabel)
	assert.False(t, created.ShowVehicleFields)

	// Trial tier gets an end date and trial limits
	require.NotNil(t, created.TrialEndsAt)
	assert.WithinDuration(t, time.Now().Add(models.TrialPeriod), *created.TrialEndsAt, time.Minute)
	assert.Equal(t, 10, created.MaxBookingsPerMonth)
	assert.Equal(t, 1, created.MaxTelegramBots)
	assert.Equal(t, 1, created.MaxUsers)

	// Registry row and schema both exist after commit
	stored, err := store.GetTenantBySlug(context.Background(), "joes-plumbing")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, stored.ID)
	assert.True(t, store.schemas["tenant_joes_plumbing"])
}

func TestCreatePaidTierHasNoTrialEnd(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	input := validInput()
	input.Tier = models.TierPro

	created, err := service.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Nil(t, created.TrialEndsAt)
	assert.Equal(t, -1, created.MaxBookingsPerMonth)
}

func TestCreateInvalidArguments(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	tests := []struct {
		name  string
		mod   func(*CreateInput)
		field string
	}{
		{"bad trade type", func(in *CreateInput) { in.TradeType = "carpenter" }, "trade_type"},
		{"bad tier", func(in *CreateInput) { in.Tier = "free" }, "subscription_tier"},
		{"unusable business name", func(in *CreateInput) { in.BusinessName = "!!!" }, "business_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mod(&input)

			_, err := service.Create(context.Background(), input)

			var invalid *InvalidArgumentError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
			assert.Empty(t, store.tenants)
		})
	}
}

func TestCreateDuplicateSlug(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	// Same business name, different email: slugs collide.
	input := validInput()
	input.Email = "other@example.com"

	_, err = service.Create(context.Background(), input)

	var exists *AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, "slug", exists.Field)
	assert.Len(t, store.tenants, 1)
}

func TestCreateDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	input := validInput()
	input.BusinessName = "Another Plumber"

	_, err = service.Create(context.Background(), input)

	var exists *AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, "email", exists.Field)
	assert.Len(t, store.tenants, 1)
}

func TestCreateSchemaFailureRollsBack(t *testing.T) {
	store := newFakeStore()
	store.failCreateSchema = true
	service := NewService(store, nil)

	_, err := service.Create(context.Background(), validInput())

	var prov *ProvisioningError
	require.ErrorAs(t, err, &prov)
	assert.Equal(t, "tenant_joes_plumbing", prov.SchemaName)

	// The registry insert must not survive the failed schema creation.
	assert.Empty(t, store.tenants)
	assert.Empty(t, store.schemas)
}

func TestUpdate(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	email := "new@example.com"
	tier := models.TierPro
	updated, err := service.Update(context.Background(), "joes-plumbing", models.TenantChanges{
		Email:            &email,
		SubscriptionTier: &tier,
	})
	require.NoError(t, err)
	assert.True(t, updated)

	stored, err := store.GetTenantBySlug(context.Background(), "joes-plumbing")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", stored.Email)
	assert.Equal(t, models.TierPro, stored.SubscriptionTier)
}

func TestUpdateBusinessNameKeepsSlug(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	name := "Completely Different Trading Name"
	updated, err := service.Update(context.Background(), "joes-plumbing", models.TenantChanges{
		BusinessName: &name,
	})
	require.NoError(t, err)
	assert.True(t, updated)

	stored, err := store.GetTenantBySlug(context.Background(), "joes-plumbing")
	require.NoError(t, err)
	assert.Equal(t, name, stored.BusinessName)
	assert.Equal(t, "joes-plumbing", stored.Slug)
	assert.Equal(t, "tenant_joes_plumbing", stored.SchemaName)
}

func TestUpdateEmptyChangesIsNoOp(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	updated, err := service.Update(context.Background(), "joes-plumbing", models.TenantChanges{})
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestUpdateUnknownTenant(t *testing.T) {
	service := NewService(newFakeStore(), nil)

	email := "x@example.com"
	_, err := service.Update(context.Background(), "missing", models.TenantChanges{Email: &email})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateInvalidEnum(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	bad := models.SubscriptionStatus("suspended")
	_, err = service.Update(context.Background(), "joes-plumbing", models.TenantChanges{
		SubscriptionStatus: &bad,
	})

	var invalid *InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "subscription_status", invalid.Field)
}

func TestUpdateDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	other := validInput()
	other.BusinessName = "Bob's Electrical"
	other.Email = "bob@example.com"
	_, err = service.Create(context.Background(), other)
	require.NoError(t, err)

	taken := "joe@example.com"
	_, err = service.Update(context.Background(), "bobs-electrical", models.TenantChanges{Email: &taken})

	var exists *AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, "email", exists.Field)
}

func TestRemoveRequiresForce(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	err = service.Remove(context.Background(), "joes-plumbing", false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	// Nothing touched.
	assert.Len(t, store.tenants, 1)
	assert.True(t, store.schemas["tenant_joes_plumbing"])
}

func TestRemove(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	err = service.Remove(context.Background(), "joes-plumbing", true)
	require.NoError(t, err)

	assert.Empty(t, store.tenants)
	assert.Empty(t, store.schemas)
}

func TestRemoveUnknownTenant(t *testing.T) {
	service := NewService(newFakeStore(), nil)

	err := service.Remove(context.Background(), "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveSchemaFailureKeepsRow(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	store.failDropSchema = true
	err = service.Remove(context.Background(), "joes-plumbing", true)

	var prov *ProvisioningError
	require.ErrorAs(t, err, &prov)

	// The row survives a failed teardown so the registry keeps pointing
	// at the still-existing schema.
	assert.Len(t, store.tenants, 1)
	assert.True(t, store.schemas["tenant_joes_plumbing"])
}

func TestListAndGet(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	tenants, err := service.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tenants)

	_, err = service.Create(context.Background(), validInput())
	require.NoError(t, err)

	tenants, err = service.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, tenants, 1)

	got, err := service.Get(context.Background(), "joes-plumbing")
	require.NoError(t, err)
	assert.Equal(t, "Joe's Plumbing", got.BusinessName)

	_, err = service.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
