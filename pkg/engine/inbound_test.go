package engine

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitClientCookie(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantClient string
		wantRest   string
	}{
		{"empty", "", "", ""},
		{"only client id", "__pmid=clientid", "clientid", ""},
		{"client id stripped from rest", "testkey=testvalue; __pmid=clientid", "clientid", "testkey=testvalue"},
		{"client id first", "__pmid=clientid; a=1; b=2", "clientid", "a=1; b=2"},
		{"no client id", "a=1; b=2", "", "a=1; b=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientID, rest := splitClientCookie(tt.raw, "__pmid")
			assert.Equal(t, tt.wantClient, clientID)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestParseInboundJSONP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/api/rewrite?url=https%3A%2F%2Fh%2Fapi%2Fx%3Fcallback%3Dcb&cookie=__pmid%3Dc&reqtype=jsonp", nil)

	in, err := parseInbound(req, "__pmid")
	require.NoError(t, err)
	assert.True(t, in.JSONP)
	assert.Equal(t, "cb", in.Target.Query().Get("callback"))
}

func TestParseInboundFormBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost,
		"/api/rewrite?url=https%3A%2F%2Fh%2Fapi%2Fx&cookie=__pmid%3Dc",
		strings.NewReader("a=1&b=2&b=3"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	in, err := parseInbound(req, "__pmid")
	require.NoError(t, err)
	require.NotNil(t, in.Form)
	assert.Equal(t, []string{"2", "3"}, in.Form["b"])

	data := in.Data.(map[string]any)
	assert.Equal(t, "1", data["a"])
	assert.Equal(t, []string{"2", "3"}, data["b"])
}

func TestParseInboundPlainBodyKeptRaw(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost,
		"/api/rewrite?url=https%3A%2F%2Fh%2Fapi%2Fx&cookie=__pmid%3Dc",
		strings.NewReader("just some text"))
	req.Header.Set("Content-Type", "text/plain")

	in, err := parseInbound(req, "__pmid")
	require.NoError(t, err)
	assert.Equal(t, "just some text", in.Data)
	assert.Nil(t, in.Form)
}

func TestParseInboundGETHasNoRequestData(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/api/rewrite?url=https%3A%2F%2Fh%2Fapi%2Fx&cookie=__pmid%3Dc", nil)

	in, err := parseInbound(req, "__pmid")
	require.NoError(t, err)
	assert.Equal(t, "not POST request", in.Data)
}
