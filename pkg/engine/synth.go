package engine

import (
	"encoding/json"
	"fmt"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/rule"
)

// defaultJSONPCallback is used when reqtype=jsonp but the target URL has no
// callback parameter.
const defaultJSONPCallback = "callback"

// synthesized is a mock response ready to write.
type synthesized struct {
	Status      int
	ContentType string
	Body        []byte
}

// synthesize builds the response for a matched rule that carries a response.
// Template failures and unserializable bodies come back as an error the
// handler surfaces as a rule error.
func (h *RewriteHandler) synthesize(r *rule.Rule, in *inbound) (*synthesized, error) {
	body := r.Response
	if r.IsMockjs() {
		expanded, err := h.mockjs.Expand(r.Response)
		if err != nil {
			return nil, fmt.Errorf("template expansion: %w", err)
		}
		body = expanded
	}

	out := &synthesized{Status: r.EffectiveStatus()}

	if s, isString := body.(string); isString && !r.IsMockjs() {
		out.Body = []byte(s)
		out.ContentType = "text/plain; charset=utf-8"
	} else {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("response serialization: %w", err)
		}
		out.Body = data
		out.ContentType = "application/json; charset=utf-8"
	}

	if in.JSONP {
		out.Body = wrapJSONP(callbackName(in), out.Body)
		out.ContentType = "application/javascript; charset=utf-8"
	}
	return out, nil
}

func callbackName(in *inbound) string {
	if name := in.Target.Query().Get("callback"); name != "" {
		return name
	}
	return defaultJSONPCallback
}

// wrapJSONP wraps a body as a callback invocation. The wrap is textual, so
// unbalanced parentheses inside the body survive untouched.
func wrapJSONP(callback string, body []byte) []byte {
	wrapped := make([]byte, 0, len(callback)+len(body)+2)
	wrapped = append(wrapped, callback...)
	wrapped = append(wrapped, '(')
	wrapped = append(wrapped, body...)
	wrapped = append(wrapped, ')')
	return wrapped
}
