package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/tradedash/tenant-server/internal/models"
)

// Subjects for tenant lifecycle events
const (
	SubjectTenantCreated = "tenant.created"
	SubjectTenantUpdated = "tenant.updated"
	SubjectTenantDeleted = "tenant.deleted"
)

// TenantEvent is the JSON payload published on lifecycle subjects
type TenantEvent struct {
	Slug         string    `json:"slug"`
	BusinessName string    `json:"business_name,omitempty"`
	SchemaName   string    `json:"schema_name,omitempty"`
	Time         time.Time `json:"time"`
}

// Publisher publishes tenant lifecycle events to NATS. A nil Publisher
// is valid and publishes nothing, so callers without NATS configured
// need no special casing.
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher creates a publisher on an established NATS connection
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

// TenantCreated publishes a tenant.created event
func (p *Publisher) TenantCreated(tenant *models.Tenant) {
	p.publish(SubjectTenantCreated, TenantEvent{
		Slug:         tenant.Slug,
		BusinessName: tenant.BusinessName,
		SchemaName:   tenant.SchemaName,
		Time:         time.Now(),
	})
}

// TenantUpdated publishes a tenant.updated event
func (p *Publisher) TenantUpdated(slug string) {
	p.publish(SubjectTenantUpdated, TenantEvent{Slug: slug, Time: time.Now()})
}

// TenantDeleted publishes a tenant.deleted event
func (p *Publisher) TenantDeleted(tenant *models.Tenant) {
	p.publish(SubjectTenantDeleted, TenantEvent{
		Slug:       tenant.Slug,
		SchemaName: tenant.SchemaName,
		Time:       time.Now(),
	})
}

// publish is best effort: a failed publish is logged, never surfaced to
// the operation that triggered it.
func (p *Publisher) publish(subject string, event TenantEvent) {
	if p == nil || p.nc == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("Failed to marshal event")
		return
	}

	if err := p.nc.Publish(subject, data); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("Failed to publish event")
	}
}
