// Package wspush streams request lifecycle events to dashboard pages over
// WebSocket. Each connection subscribes to one client's event feed and
// receives events as JSON text messages until the page disconnects.
package wspush

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/event"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/httputil"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/logging"
)

const writeTimeout = 5 * time.Second

// Handler upgrades observer connections and bridges them to the dispatcher.
type Handler struct {
	dispatcher *event.Dispatcher
	upgrader   websocket.AcceptOptions
	log        *slog.Logger
}

// NewHandler creates a Handler bound to a dispatcher.
func NewHandler(dispatcher *event.Dispatcher, log *slog.Logger) *Handler {
	if log == nil {
		log = logging.Nop()
	}
	return &Handler{
		dispatcher: dispatcher,
		upgrader: websocket.AcceptOptions{
			// Dashboard pages connect from arbitrary origins.
			InsecureSkipVerify: true,
		},
		log: log,
	}
}

// ServeHTTP handles GET /api/ws?clientid=<id>.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientid")
	if clientID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "BadRequest", "missing clientid")
		return
	}

	conn, err := websocket.Accept(w, r, &h.upgrader)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "clientID", clientID, "error", err)
		return
	}

	h.log.Info("observer connected", "clientID", clientID)
	h.serve(r.Context(), conn, clientID)
	h.log.Info("observer disconnected", "clientID", clientID)
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, clientID string) {
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	events, cancel := h.dispatcher.Subscribe(clientID)
	defer cancel()

	// Drain inbound frames so close frames are processed; the feed is
	// one-way.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(ctx, conn, e); err != nil {
				return
			}
		case <-readDone:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, e event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		h.log.Error("event marshal failed", "topic", e.Topic, "error", err)
		return nil
	}

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, data)
}
