package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// maxInboundBodyBytes caps how much of a POST body is buffered.
const maxInboundBodyBytes = 10 * 1024 * 1024

// inbound is the parsed form of one rewrite call.
type inbound struct {
	Method    string
	Target    *url.URL
	Cookie    string // outbound Cookie header, client-id pair removed
	ClientID  string
	JSONP     bool
	Origin    string
	Body      []byte
	Headers   http.Header
	Form      url.Values // form-decoded POST body, nil otherwise
	Data      any        // parsed POST body, or "not POST request"
	TargetURL string
}

var errBadRequestBody = errors.New("malformed request body")

// parseInbound reads and validates the rewrite endpoint inputs. A nil error
// with an empty ClientID means the caller has no client-id cookie.
func parseInbound(r *http.Request, cookieName string) (*inbound, error) {
	query := r.URL.Query()

	rawURL := query.Get("url")
	if rawURL == "" {
		return nil, errors.New("missing url parameter")
	}
	target, err := url.Parse(rawURL)
	if err != nil || !target.IsAbs() || target.Host == "" {
		return nil, fmt.Errorf("bad url: %s", rawURL)
	}
	switch target.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("bad url scheme: %s", target.Scheme)
	}

	rawCookie := query.Get("cookie")
	clientID, outCookie := splitClientCookie(rawCookie, cookieName)

	in := &inbound{
		Method:    r.Method,
		Target:    target,
		TargetURL: rawURL,
		Cookie:    outCookie,
		ClientID:  clientID,
		JSONP:     query.Get("reqtype") == "jsonp",
		Origin:    r.Header.Get("Origin"),
		Headers:   r.Header,
		Data:      "not POST request",
	}

	if r.Method == http.MethodPost && r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxInboundBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
		in.Body = body
		if err := in.parseBody(r.Header.Get("Content-Type")); err != nil {
			return nil, err
		}
	}

	return in, nil
}

// parseBody interprets the POST body by content type. JSON bodies must parse;
// form bodies are decoded for params matching; anything else is kept as a
// raw string.
func (in *inbound) parseBody(contentType string) error {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch {
	case strings.Contains(mediaType, "json"):
		var data any
		if err := json.Unmarshal(in.Body, &data); err != nil {
			return fmt.Errorf("%w: %v", errBadRequestBody, err)
		}
		in.Data = data
	case mediaType == "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(in.Body))
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRequestBody, err)
		}
		in.Form = form
		in.Data = flattenValues(form)
	default:
		in.Data = string(in.Body)
	}
	return nil
}

// splitClientCookie finds the client-id pair in a Cookie header string and
// returns its value plus the remaining cookie string for outbound use.
func splitClientCookie(rawCookie, cookieName string) (clientID, rest string) {
	if rawCookie == "" {
		return "", ""
	}

	var kept []string
	for _, part := range strings.Split(rawCookie, ";") {
		pair := strings.TrimSpace(part)
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		if name == cookieName {
			clientID = value
			continue
		}
		kept = append(kept, pair)
	}
	return clientID, strings.Join(kept, "; ")
}

// flattenValues renders url.Values as a plain map for event payloads,
// keeping repeated keys as slices.
func flattenValues(vals url.Values) map[string]any {
	out := make(map[string]any, len(vals))
	for k, vs := range vals {
		if len(vs) == 1 {
			out[k] = vs[0]
		} else {
			out[k] = vs
		}
	}
	return out
}

// headerMap flattens an http.Header to single values for event payloads.
func headerMap(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
