package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/facilitymap/internal/layout"
)

func dial(t *testing.T, srv *httptest.Server, plan string) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?plan=" + plan
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubFansOutPerFloorPlan(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, r.URL.Query().Get("plan"), "tester")
	}))
	defer srv.Close()

	a := dial(t, srv, "plan-a")
	b := dial(t, srv, "plan-b")
	require.Eventually(t, func() bool {
		return hub.Subscribers("plan-a") == 1 && hub.Subscribers("plan-b") == 1
	}, time.Second, 5*time.Millisecond)

	hub.FloorPlanChanged(layout.ChangeEvent{Kind: layout.ChangeUpdated, FloorPlanID: "plan-a", ActorID: "u1"})

	var ev layout.ChangeEvent
	require.NoError(t, a.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, a.ReadJSON(&ev))
	assert.Equal(t, "plan-a", ev.FloorPlanID)
	assert.Equal(t, layout.ChangeUpdated, ev.Kind)

	// plan-b hears nothing
	require.NoError(t, b.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, _, err := b.ReadMessage()
	assert.Error(t, err)

	a.Close()
	require.Eventually(t, func() bool { return hub.Subscribers("plan-a") == 0 }, time.Second, 5*time.Millisecond)
}

func TestFloorPlanChangedNeverBlocks(t *testing.T) {
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		// nothing drains the queue
		for i := 0; i < 1000; i++ {
			hub.FloorPlanChanged(layout.ChangeEvent{FloorPlanID: "p"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("FloorPlanChanged blocked")
	}
}

func TestStoppedHubDoesNotStrandClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)

	served := make(chan struct{}, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, r.URL.Query().Get("plan"), "tester")
		served <- struct{}{}
	}))
	defer srv.Close()

	early := dial(t, srv, "plan-a")
	<-served
	require.Eventually(t, func() bool { return hub.Subscribers("plan-a") == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-hub.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	// the subscribed client is closed and its pumps exit
	require.NoError(t, early.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := early.ReadMessage()
	assert.True(t, gws.IsCloseError(err, gws.CloseNormalClosure, gws.CloseNoStatusReceived), "got %v", err)

	// a client arriving after shutdown is turned away instead of blocking the handler
	late := dial(t, srv, "plan-a")
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("ServeWs blocked on a stopped hub")
	}
	require.NoError(t, late.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err = late.ReadMessage()
	assert.True(t, gws.IsCloseError(err, gws.CloseGoingAway), "got %v", err)
}
