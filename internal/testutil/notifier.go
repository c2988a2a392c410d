package testutil

import (
	"context"
	"sync"

	"github.com/an4xdev/SprintForge/internal/eventbus"
)

type Notification struct {
	Kind       eventbus.Kind
	ResourceID string
	Payload    any
}

// Notifier records notifications instead of sending them.
type Notifier struct {
	mu            sync.Mutex
	notifications []Notification
	audits        []string
}

func (n *Notifier) Notify(_ context.Context, kind eventbus.Kind, resourceID string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, Notification{Kind: kind, ResourceID: resourceID, Payload: payload})
}

func (n *Notifier) Audit(_ context.Context, action, entity, description string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.audits = append(n.audits, action+" "+entity+": "+description)
}

func (n *Notifier) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.notifications...)
}

func (n *Notifier) Audits() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.audits...)
}
