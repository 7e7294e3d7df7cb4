// Package engine is the rewrite core: it receives intercepted requests on
// /api/rewrite, matches them against the caller's rules, and either
// synthesizes the mocked response or relays the request upstream, publishing
// lifecycle events either way.
package engine

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cjzdmj1997/parrot-mocker-web/internal/matching"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/config"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/event"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/forward"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/httputil"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/logging"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/mockjs"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/rule"
)

// noClientBody is written verbatim when the caller carries no client-id
// cookie. Dashboard-less callers hit this path on every request, so it stays
// a cheap 200.
const noClientBody = "no clientID, ignored"

// RewriteHandler serves GET|POST /api/rewrite.
type RewriteHandler struct {
	store      *rule.Store
	forwarder  *forward.Forwarder
	publisher  event.Publisher
	mockjs     *mockjs.Engine
	cookieName string
	log        *slog.Logger
}

var _ http.Handler = (*RewriteHandler)(nil)

// RewriteHandlerOption customizes a RewriteHandler.
type RewriteHandlerOption func(*RewriteHandler)

// WithClientIDCookie overrides the cookie name carrying the client id.
func WithClientIDCookie(name string) RewriteHandlerOption {
	return func(h *RewriteHandler) {
		if name != "" {
			h.cookieName = name
		}
	}
}

// WithMockjsEngine overrides the template engine, e.g. with a seeded one.
func WithMockjsEngine(e *mockjs.Engine) RewriteHandlerOption {
	return func(h *RewriteHandler) {
		if e != nil {
			h.mockjs = e
		}
	}
}

// WithHandlerLogger sets the operational logger.
func WithHandlerLogger(log *slog.Logger) RewriteHandlerOption {
	return func(h *RewriteHandler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewRewriteHandler creates the rewrite handler.
func NewRewriteHandler(store *rule.Store, forwarder *forward.Forwarder, publisher event.Publisher, opts ...RewriteHandlerOption) *RewriteHandler {
	h := &RewriteHandler{
		store:      store,
		forwarder:  forwarder,
		publisher:  publisher,
		mockjs:     mockjs.New(),
		cookieName: config.DefaultClientIDCookie,
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP runs one exchange through the state machine. Requests rejected
// before the mock-or-forward decision publish no events; everything after
// that point publishes exactly one start and one end event.
func (h *RewriteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	in, err := parseInbound(r, h.cookieName)
	if err != nil {
		h.log.Debug("rewrite rejected", "error", err)
		httputil.WriteText(w, http.StatusBadRequest, err.Error())
		return
	}

	if in.ClientID == "" {
		httputil.WriteText(w, http.StatusOK, noClientBody)
		return
	}

	rules := h.store.Get(in.ClientID)
	matched := matching.FirstMatch(rules, &matching.Request{
		Host:  in.Target.Hostname(),
		Path:  in.Target.Path,
		Query: in.Target.Query(),
		Form:  in.Form,
	})

	h.publisher.Publish(in.ClientID, event.TopicRequestStart, &event.StartPayload{
		IsMock:         matched != nil,
		Method:         in.Method,
		Host:           in.Target.Hostname(),
		Pathname:       in.Target.Path,
		URL:            in.TargetURL,
		RequestHeaders: headerMap(in.Headers),
		RequestData:    in.Data,
	})
	started := time.Now()

	var status int
	var responseBody any
	if matched != nil && matched.HasResponse() {
		status, responseBody = h.respondMock(r.Context(), w, matched, in)
	} else {
		status, responseBody = h.respondForward(r.Context(), w, in)
	}

	h.publisher.Publish(in.ClientID, event.TopicRequestEnd, &event.EndPayload{
		Status:         status,
		RequestData:    in.Data,
		RequestHeaders: headerMap(in.Headers),
		ResponseBody:   responseBody,
		Timecost:       time.Since(started).Milliseconds(),
	})
}

// respondMock synthesizes a matched rule's response, honoring its delay.
func (h *RewriteHandler) respondMock(ctx context.Context, w http.ResponseWriter, r *rule.Rule, in *inbound) (int, any) {
	if r.Delay > 0 {
		sleepDelay(ctx, r.Delay)
	}

	synth, err := h.synthesize(r, in)
	if err != nil {
		h.log.Error("rule synthesis failed", "clientID", in.ClientID, "path", in.Target.Path, "error", err)
		httputil.WriteText(w, http.StatusInternalServerError, err.Error())
		return http.StatusInternalServerError, err.Error()
	}

	h.log.Info("mocked", "clientID", in.ClientID, "method", in.Method,
		"host", in.Target.Hostname(), "path", in.Target.Path, "status", synth.Status)

	w.Header().Set("Content-Type", synth.ContentType)
	w.WriteHeader(synth.Status)
	_, _ = w.Write(synth.Body)
	return synth.Status, string(synth.Body)
}

// respondForward relays the exchange upstream.
func (h *RewriteHandler) respondForward(ctx context.Context, w http.ResponseWriter, in *inbound) (int, any) {
	headers := in.Headers.Clone()
	// The caller's own cookies never travel upstream; the cookie query
	// parameter is the only cookie source.
	headers.Del("Cookie")
	headers.Del("Origin")

	res, err := h.forwarder.Do(ctx, &forward.Request{
		Method:    in.Method,
		TargetURL: in.TargetURL,
		Header:    headers,
		Body:      in.Body,
		Cookie:    in.Cookie,
	})
	if err != nil {
		h.log.Warn("upstream failed", "clientID", in.ClientID, "url", in.TargetURL, "error", err)
		httputil.WriteText(w, http.StatusBadGateway, "upstream request failed: "+err.Error())
		return http.StatusBadGateway, err.Error()
	}

	h.log.Info("forwarded", "clientID", in.ClientID, "method", in.Method,
		"host", in.Target.Hostname(), "path", in.Target.Path, "status", res.StatusCode)

	dst := w.Header()
	for key, values := range res.Header {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(res.Body)
	return res.StatusCode, string(res.Body)
}

// sleepDelay waits the rule's delay in milliseconds, cut short when the
// caller disconnects.
func sleepDelay(ctx context.Context, ms int) {
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
