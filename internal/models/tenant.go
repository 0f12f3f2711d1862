package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeType classifies the kind of trade business a tenant runs.
type TradeType string

const (
	TradeCarMechanic TradeType = "car_mechanic"
	TradePlumber     TradeType = "plumber"
	TradeElectrician TradeType = "electrician"
	TradeBuilder     TradeType = "builder"
	TradeGeneral     TradeType = "general"
)

// TradeTypes lists all accepted trade types.
var TradeTypes = []TradeType{
	TradeCarMechanic, TradePlumber, TradeElectrician, TradeBuilder, TradeGeneral,
}

// Valid reports whether t is one of the accepted trade types.
func (t TradeType) Valid() bool {
	for _, v := range TradeTypes {
		if t == v {
			return true
		}
	}
	return false
}

// SubscriptionTier is the billing tier a tenant is on.
type SubscriptionTier string

const (
	TierTrial      SubscriptionTier = "trial"
	TierStarter    SubscriptionTier = "starter"
	TierPro        SubscriptionTier = "pro"
	TierBusiness   SubscriptionTier = "business"
	TierEnterprise SubscriptionTier = "enterprise"
)

// SubscriptionTiers lists all accepted subscription tiers.
var SubscriptionTiers = []SubscriptionTier{
	TierTrial, TierStarter, TierPro, TierBusiness, TierEnterprise,
}

// Valid reports whether t is one of the accepted tiers.
func (t SubscriptionTier) Valid() bool {
	for _, v := range SubscriptionTiers {
		if t == v {
			return true
		}
	}
	return false
}

// SubscriptionStatus is the current billing state of a tenant.
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusPastDue   SubscriptionStatus = "past_due"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusPaused    SubscriptionStatus = "paused"
)

// SubscriptionStatuses lists all accepted subscription statuses.
var SubscriptionStatuses = []SubscriptionStatus{
	StatusActive, StatusPastDue, StatusCancelled, StatusPaused,
}

// Valid reports whether s is one of the accepted statuses.
func (s SubscriptionStatus) Valid() bool {
	for _, v := range SubscriptionStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Tenant represents a registered business in the shared registry table.
// SchemaName identifies the tenant's isolated Postgres schema and is
// coupled 1:1 with an actual provisioned schema: a row never exists
// without its schema, and vice versa.
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Slug         string `json:"slug" db:"slug"`
	BusinessName string `json:"businessName" db:"business_name"`
	Email        string `json:"email" db:"email"`
	Phone        string `json:"phone,omitempty" db:"phone"`

	TradeType          TradeType          `json:"tradeType" db:"trade_type"`
	SubscriptionTier   SubscriptionTier   `json:"subscriptionTier" db:"subscription_tier"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus" db:"subscription_status"`
	TrialEndsAt        *time.Time         `json:"trialEndsAt,omitempty" db:"trial_ends_at"`

	// Derived at creation from slug, immutable afterwards.
	SchemaName string `json:"schemaName" db:"schema_name"`

	// Derived at creation from trade type.
	PartsLabel        string `json:"partsLabel" db:"parts_label"`
	ShowVehicleFields bool   `json:"showVehicleFields" db:"show_vehicle_fields"`

	PrimaryColor string `json:"primaryColor" db:"primary_color"`

	// Limits, -1 means unlimited.
	MaxBookingsPerMonth int `json:"maxBookingsPerMonth" db:"max_bookings_per_month"`
	MaxTelegramBots     int `json:"maxTelegramBots" db:"max_telegram_bots"`
	MaxUsers            int `json:"maxUsers" db:"max_users"`
}

// TenantChanges is the sparse set of attributes Update may touch.
// Slug and schema name are deliberately absent: renaming a tenant is
// unsupported, an updated business name leaves the slug as it was.
type TenantChanges struct {
	BusinessName       *string
	Email              *string
	TradeType          *TradeType
	SubscriptionTier   *SubscriptionTier
	SubscriptionStatus *SubscriptionStatus
	PrimaryColor       *string
}

// Empty reports whether no change is requested.
func (c TenantChanges) Empty() bool {
	return c.BusinessName == nil && c.Email == nil && c.TradeType == nil &&
		c.SubscriptionTier == nil && c.SubscriptionStatus == nil && c.PrimaryColor == nil
}

// TradeDefaults holds the per-trade UI defaults fixed at creation time.
type TradeDefaults struct {
	PartsLabel        string
	ShowVehicleFields bool
}

var tradeDefaults = map[TradeType]TradeDefaults{
	TradeCarMechanic: {PartsLabel: "Parts", ShowVehicleFields: true},
	TradePlumber:     {PartsLabel: "Materials", ShowVehicleFields: false},
	TradeElectrician: {PartsLabel: "Components", ShowVehicleFields: false},
	TradeBuilder:     {PartsLabel: "Supplies", ShowVehicleFields: false},
	TradeGeneral:     {PartsLabel: "Items", ShowVehicleFields: false},
}

// DefaultsForTrade returns the defaults for a trade type. Unknown trade
// types fall back to the general defaults.
func DefaultsForTrade(t TradeType) TradeDefaults {
	if d, ok := tradeDefaults[t]; ok {
		return d
	}
	return tradeDefaults[TradeGeneral]
}

// TierLimits holds per-tier feature limits, -1 means unlimited.
type TierLimits struct {
	BookingsPerMonth int
	TelegramBots     int
	Users            int
}

var tierLimits = map[SubscriptionTier]TierLimits{
	TierTrial:      {BookingsPerMonth: 10, TelegramBots: 1, Users: 1},
	TierStarter:    {BookingsPerMonth: 10, TelegramBots: 1, Users: 1},
	TierPro:        {BookingsPerMonth: -1, TelegramBots: 1, Users: 1},
	TierBusiness:   {BookingsPerMonth: -1, TelegramBots: 3, Users: 3},
	TierEnterprise: {BookingsPerMonth: -1, TelegramBots: -1, Users: -1},
}

// LimitsForTier returns the feature limits for a tier. Unknown tiers get
// the trial limits.
func LimitsForTier(t SubscriptionTier) TierLimits {
	if l, ok := tierLimits[t]; ok {
		return l
	}
	return tierLimits[TierTrial]
}

// DefaultPrimaryColor is the brand color assigned to new tenants.
const DefaultPrimaryColor = "#3b82f6"

// TrialPeriod is how long a trial tier runs before it ends.
const TrialPeriod = 7 * 24 * time.Hour
