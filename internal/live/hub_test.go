package live

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/an4xdev/SprintForge/internal/eventbus"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubForwardsTaskEvents(t *testing.T) {
	bus := eventbus.New()
	hub := NewHub(bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Start(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	all := dial(t, srv, "")
	filtered := dial(t, srv, "?taskId=task-2")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.broadcast(&eventbus.Event{Kind: eventbus.KindTaskStarted, ResourceID: "task-1"})
	hub.broadcast(&eventbus.Event{Kind: eventbus.KindTaskPaused, ResourceID: "task-2"})

	var got eventbus.Event
	require.NoError(t, all.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, all.ReadJSON(&got))
	assert.Equal(t, "task-1", got.ResourceID)
	require.NoError(t, all.ReadJSON(&got))
	assert.Equal(t, "task-2", got.ResourceID)

	require.NoError(t, filtered.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, filtered.ReadJSON(&got))
	assert.Equal(t, "task-2", got.ResourceID)
	assert.Equal(t, eventbus.KindTaskPaused, got.Kind)
}

func TestHubReceivesFromBus(t *testing.T) {
	bus := eventbus.New()
	hub := NewHub(bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Start(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()
	conn := dial(t, srv, "?taskId=task-9")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	received := make(chan eventbus.Event, 1)
	go func() {
		var ev eventbus.Event
		if err := conn.ReadJSON(&ev); err == nil {
			received <- ev
		}
	}()

	require.Eventually(t, func() bool {
		// audit events never reach dashboards
		bus.Publish(&eventbus.Event{Kind: eventbus.KindAudit, ResourceID: "task-9"})
		_ = bus.PublishNew(eventbus.KindTaskStopped, "task-9", nil)
		select {
		case ev := <-received:
			return ev.Kind == eventbus.KindTaskStopped
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
}

func TestHubClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub(eventbus.New())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Start(ctx)
		close(done)
	}()

	srv := httptest.NewServer(hub)
	defer srv.Close()
	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Zero(t, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "%v", err)
}
