// Package forward relays intercepted requests to their real upstream and
// captures the response for replay to the caller.
package forward

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/logging"
)

const (
	// DefaultMaxBodyBytes caps how much of an upstream response body is
	// captured (10MB).
	DefaultMaxBodyBytes = 10 * 1024 * 1024

	// DefaultMaxRedirects caps how many upstream redirects are followed.
	DefaultMaxRedirects = 5

	// DefaultTimeout bounds a single upstream round trip.
	DefaultTimeout = 30 * time.Second
)

// Request describes one upstream call. TargetURL is the absolute URL to hit;
// Header carries the client headers to relay; Cookie, when non-empty,
// replaces the relayed Cookie header outright.
type Request struct {
	Method    string
	TargetURL string
	Header    http.Header
	Body      []byte
	Cookie    string
}

// Result is a captured upstream response.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// UpstreamError reports that the upstream could not be reached or read.
type UpstreamError struct {
	Target string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Target, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Options configures a Forwarder. Zero values take the package defaults.
type Options struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// Forwarder relays requests to upstream servers. Safe for concurrent use.
type Forwarder struct {
	client       *http.Client
	maxBodyBytes int64
	log          *slog.Logger
}

// New creates a Forwarder.
func New(opts Options) *Forwarder {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	maxRedirects := opts.MaxRedirects
	return &Forwarder{
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		maxBodyBytes: opts.MaxBodyBytes,
		log:          opts.Logger,
	}
}

// Do relays a single request upstream and captures the response. Transport
// failures, timeouts and body-read errors come back as *UpstreamError.
func (f *Forwarder) Do(ctx context.Context, req *Request) (*Result, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	outReq, err := http.NewRequestWithContext(ctx, req.Method, req.TargetURL, body)
	if err != nil {
		return nil, &UpstreamError{Target: req.TargetURL, Err: err}
	}

	copyHeaders(outReq.Header, req.Header)
	removeHopByHopHeaders(outReq.Header)
	outReq.Header.Del("Host")
	if req.Cookie != "" {
		outReq.Header.Set("Cookie", req.Cookie)
	}

	f.log.Debug("forwarding upstream", "method", req.Method, "url", req.TargetURL)

	resp, err := f.client.Do(outReq)
	if err != nil {
		return nil, &UpstreamError{Target: req.TargetURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, &UpstreamError{Target: req.TargetURL, Err: err}
	}

	header := cloneHeaders(resp.Header)
	removeHopByHopHeaders(header)
	// The relay speaks for the upstream; its own CORS grants must not leak
	// through and conflict with the ones the relay sets.
	removeCORSHeaders(header)

	return &Result{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       respBody,
	}, nil
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

func cloneHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	copyHeaders(dst, src)
	return dst
}

// removeHopByHopHeaders removes headers that must not be forwarded.
func removeHopByHopHeaders(h http.Header) {
	hopByHopHeaders := []string{
		"Connection",
		"Keep-Alive",
		"Proxy-Authenticate",
		"Proxy-Authorization",
		"Proxy-Connection",
		"TE",
		"Trailers",
		"Transfer-Encoding",
		"Upgrade",
	}

	for _, header := range hopByHopHeaders {
		h.Del(header)
	}
}

func removeCORSHeaders(h http.Header) {
	for key := range h {
		if strings.HasPrefix(http.CanonicalHeaderKey(key), "Access-Control-") {
			h.Del(key)
		}
	}
}
