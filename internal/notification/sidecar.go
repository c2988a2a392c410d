package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/an4xdev/SprintForge/internal/eventbus"
)

// Sidecar hands notifications to the event bus without waiting. It has no
// error path: a notification that cannot be built is logged and dropped.
type Sidecar struct {
	bus     *eventbus.Bus
	service string
	now     func() time.Time
}

func NewSidecar(bus *eventbus.Bus, service string) *Sidecar {
	return &Sidecar{bus: bus, service: service, now: time.Now}
}

func (s *Sidecar) Notify(ctx context.Context, kind eventbus.Kind, resourceID string, payload any) {
	if err := s.bus.PublishNew(kind, resourceID, payload); err != nil {
		slog.WarnContext(ctx, "dropping notification", "kind", kind, "resource_id", resourceID, "error", err)
	}
}

func (s *Sidecar) Audit(ctx context.Context, action, entity, description string) {
	now := s.now().UTC()
	s.bus.Publish(&eventbus.Event{
		ID:   ulid.Make().String(),
		Kind: eventbus.KindAudit,
		Audit: &eventbus.AuditEntry{
			Timestamp:   now,
			Service:     s.service,
			Action:      action,
			Entity:      entity,
			Description: description,
		},
		CreatedAt: now,
	})
}
