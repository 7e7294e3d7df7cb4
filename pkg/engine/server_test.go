package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/config"
)

func TestServerRoutesRewrite(t *testing.T) {
	s := NewServer(config.Default())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/rewrite?url=https%3A%2F%2Fexample.com%2Fx&cookie=other%3D1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no clientID, ignored", rec.Body.String())
}

func TestServerRoutesAdminAndRewriteShareStore(t *testing.T) {
	s := NewServer(config.Default())

	update := httptest.NewRequest(http.MethodPost, "/api/updateconfig",
		strings.NewReader(`[{"path":"/api/mocked","response":"from rule"}]`))
	update.AddCookie(&http.Cookie{Name: "__pmid", Value: "clientid"})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, update)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/rewrite?url=https%3A%2F%2Funreachable.invalid%2Fapi%2Fmocked&cookie=__pmid%3Dclientid", nil))

	assert.Equal(t, "from rule", rec.Body.String())
}

func TestServerStartStop(t *testing.T) {
	cfg := config.Default()
	cfg.Port = 0 // OS-assigned port, avoids collisions between test runs

	s := NewServer(cfg)
	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "second start must be rejected")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))

	// Stopping twice is harmless.
	assert.NoError(t, s.Stop(ctx))
}
