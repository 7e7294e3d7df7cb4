package wspush

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/event"
)

func TestServeHTTPRequiresClientID(t *testing.T) {
	h := NewHandler(event.NewDispatcher(0, nil), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ws", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsStreamToConnectedObserver(t *testing.T) {
	d := event.NewDispatcher(0, nil)
	server := httptest.NewServer(NewHandler(d, nil))
	defer server.Close()

	ctx, cancelCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelCtx()

	wsURL := strings.Replace(server.URL, "http://", "ws://", 1) + "/api/ws?clientid=client1"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	// Dial returns before the server goroutine registers the subscription.
	require.Eventually(t, func() bool {
		return d.SubscriberCount("client1") == 1
	}, time.Second, 10*time.Millisecond)

	d.Publish("client1", event.TopicRequestStart, &event.StartPayload{
		Method:   "GET",
		Pathname: "/api/test",
	})

	msgType, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, msgType)

	var e event.Event
	require.NoError(t, json.Unmarshal(data, &e))
	assert.Equal(t, event.TopicRequestStart, e.Topic)
	assert.Equal(t, "client1", e.ClientID)

	payload := e.Payload.(map[string]any)
	assert.Equal(t, "/api/test", payload["pathname"])
}

func TestDisconnectUnsubscribes(t *testing.T) {
	d := event.NewDispatcher(0, nil)
	server := httptest.NewServer(NewHandler(d, nil))
	defer server.Close()

	ctx, cancelCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelCtx()

	wsURL := strings.Replace(server.URL, "http://", "ws://", 1) + "/api/ws?clientid=client1"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return d.SubscriberCount("client1") == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	assert.Eventually(t, func() bool {
		return d.SubscriberCount("client1") == 0
	}, time.Second, 10*time.Millisecond)
}
