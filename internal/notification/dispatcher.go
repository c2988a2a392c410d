package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/an4xdev/SprintForge/internal/eventbus"
	"github.com/an4xdev/SprintForge/pkg/panicerr"
)

type Dispatcher struct {
	eventBus  *eventbus.Bus
	publisher Publisher
	spool     *Spool
	attempts  int
	backoff   time.Duration
}

func NewDispatcher(bus *eventbus.Bus, publisher Publisher, spool *Spool, attempts int, backoff time.Duration) *Dispatcher {
	return &Dispatcher{
		eventBus:  bus,
		publisher: publisher,
		spool:     spool,
		attempts:  max(attempts, 1),
		backoff:   backoff,
	}
}

// Start forwards bus events to the publisher until ctx is done. Spooled
// events from an earlier run get one redelivery attempt first.
func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	if n, err := d.spool.Drain(ctx, d.deliver); err != nil {
		slog.Warn("notification dispatcher: failed to drain spool", "error", err)
	} else if n > 0 {
		slog.Info("notification dispatcher: redelivered spooled notifications", "count", n)
	}

	slog.Info("notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("notification dispatcher stopped")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			d.handle(ctx, ev)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev *eventbus.Event) {
	if !Brokered(ev) {
		return
	}
	attempts, err := d.publishWithRetry(ctx, ev)
	if err == nil {
		return
	}
	slog.Warn("notification dispatcher: giving up on notification",
		"id", ev.ID, "kind", ev.Kind, "attempts", attempts, "error", err)
	// spool with a fresh context: shutdown should not lose the record
	spoolCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := d.spool.Put(spoolCtx, ev, attempts, err); err != nil {
		slog.Error("notification dispatcher: failed to spool notification", "id", ev.ID, "error", err)
	}
}

func (d *Dispatcher) publishWithRetry(ctx context.Context, ev *eventbus.Event) (int, error) {
	var errs []error
	wait := d.backoff
	for attempt := 1; attempt <= d.attempts; attempt++ {
		err := d.deliver(ctx, ev)
		if err == nil {
			return attempt, nil
		}
		errs = append(errs, fmt.Errorf("attempt %d: %w", attempt, err))
		if attempt == d.attempts {
			return attempt, errors.Join(errs...)
		}
		select {
		case <-ctx.Done():
			return attempt, errors.Join(append(errs, ctx.Err())...)
		case <-time.After(wait):
		}
		wait *= 2
	}
	return d.attempts, errors.Join(errs...)
}

// deliver is Deliver with publisher panics turned into errors.
func (d *Dispatcher) deliver(ctx context.Context, ev *eventbus.Event) error {
	return panicerr.CallContext(ctx, func(ctx context.Context) error {
		return Deliver(ctx, d.publisher, ev)
	})
}

// Brokered reports whether ev leaves the process. Sprint events only feed
// in-process subscribers.
func Brokered(ev *eventbus.Event) bool {
	return ev.IsAudit() || ev.Kind.IsTask()
}

// Deliver sends audit entries to the audit exchange and task events to the
// task queue.
func Deliver(ctx context.Context, p Publisher, ev *eventbus.Event) error {
	switch {
	case ev.IsAudit():
		return p.PublishAudit(ctx, ev.Audit)
	case ev.Kind.IsTask():
		return p.PublishEvent(ctx, ev)
	default:
		return fmt.Errorf("no broker route for %s event %s", ev.Kind, ev.ID)
	}
}
