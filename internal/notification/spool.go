package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/an4xdev/SprintForge/internal/eventbus"
	"github.com/an4xdev/SprintForge/pkg/cerr"
	"github.com/an4xdev/SprintForge/pkg/storage"
)

const spoolPrefix = "notifications"

// Spool keeps notifications the dispatcher gave up on, one YAML file each,
// so they can be inspected or redelivered later.
type Spool struct {
	storage storage.Storage
}

func NewSpool(s storage.Storage) *Spool {
	return &Spool{storage: s}
}

type spoolRecord struct {
	ID         string               `yaml:"id"`
	Kind       eventbus.Kind        `yaml:"kind"`
	ResourceID string               `yaml:"resource_id,omitempty"`
	Payload    string               `yaml:"payload,omitempty"`
	Audit      *eventbus.AuditEntry `yaml:"audit,omitempty"`
	CreatedAt  time.Time            `yaml:"created_at"`
	Attempts   int                  `yaml:"attempts"`
	LastError  string               `yaml:"last_error"`
	SpooledAt  time.Time            `yaml:"spooled_at"`
}

func spoolPath(id string) string {
	return fmt.Sprintf("%s/%s.yaml", spoolPrefix, id)
}

func (s *Spool) Put(ctx context.Context, ev *eventbus.Event, attempts int, cause error) error {
	rec := spoolRecord{
		ID:         ev.ID,
		Kind:       ev.Kind,
		ResourceID: ev.ResourceID,
		Payload:    string(ev.Payload),
		Audit:      ev.Audit,
		CreatedAt:  ev.CreatedAt,
		Attempts:   attempts,
		SpooledAt:  time.Now().UTC(),
	}
	if cause != nil {
		rec.LastError = cause.Error()
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal spooled notification: %w", err)
	}
	if err := s.storage.Write(ctx, spoolPath(ev.ID), data); err != nil {
		return cerr.WrapStorageWriteError(spoolPath(ev.ID), err)
	}
	return nil
}

// List returns the spooled events, oldest ULID first.
func (s *Spool) List(ctx context.Context) ([]*eventbus.Event, error) {
	paths, err := s.storage.List(ctx, spoolPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list spool: %w", err)
	}
	events := make([]*eventbus.Event, 0, len(paths))
	for _, p := range paths {
		ev, err := s.read(ctx, p)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable spool entry", "path", p, "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Drain hands every spooled event to deliver and removes the ones it
// accepts. It makes one pass and returns how many were delivered.
func (s *Spool) Drain(ctx context.Context, deliver func(context.Context, *eventbus.Event) error) (int, error) {
	events, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	delivered := 0
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		if err := deliver(ctx, ev); err != nil {
			slog.WarnContext(ctx, "spooled notification still undeliverable", "id", ev.ID, "error", err)
			continue
		}
		if err := s.storage.Delete(ctx, spoolPath(ev.ID)); err != nil {
			return delivered, fmt.Errorf("failed to remove spooled notification %s: %w", ev.ID, err)
		}
		delivered++
	}
	return delivered, nil
}

func (s *Spool) read(ctx context.Context, path string) (*eventbus.Event, error) {
	data, err := s.storage.Read(ctx, path)
	if err != nil {
		return nil, cerr.WrapStorageReadError(path, err)
	}
	var rec spoolRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	ev := &eventbus.Event{
		ID:         rec.ID,
		Kind:       rec.Kind,
		ResourceID: rec.ResourceID,
		Audit:      rec.Audit,
		CreatedAt:  rec.CreatedAt,
	}
	if rec.Payload != "" {
		ev.Payload = json.RawMessage(rec.Payload)
	}
	return ev, nil
}
