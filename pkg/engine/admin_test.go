package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/rule"
)

func adminRequest(method, path, body string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	r.AddCookie(&http.Cookie{Name: "__pmid", Value: "clientid"})
	return r
}

func TestUpdateConfigReplacesRules(t *testing.T) {
	store := rule.NewStore()
	h := NewAdminHandler(store, "__pmid", nil)

	rec := httptest.NewRecorder()
	h.UpdateConfig(rec, adminRequest(http.MethodPost, "/api/updateconfig",
		`[{"path":"/api/test","response":{"code":200}}]`))

	require.Equal(t, http.StatusOK, rec.Code)
	rules := store.Get("clientid")
	require.Len(t, rules, 1)
	assert.Equal(t, "/api/test", rules[0].Path)
}

func TestUpdateConfigRejectsInvalidListWholesale(t *testing.T) {
	store := rule.NewStore()
	store.Put("clientid", []rule.Rule{{Path: "/api/keep"}})
	h := NewAdminHandler(store, "__pmid", nil)

	// Second rule is invalid; the first must not slip through.
	rec := httptest.NewRecorder()
	h.UpdateConfig(rec, adminRequest(http.MethodPost, "/api/updateconfig",
		`[{"path":"/api/new"},{"path":"[unclosed","pathtype":"regexp"}]`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rules := store.Get("clientid")
	require.Len(t, rules, 1)
	assert.Equal(t, "/api/keep", rules[0].Path)
}

func TestUpdateConfigRequiresClientID(t *testing.T) {
	h := NewAdminHandler(rule.NewStore(), "__pmid", nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/updateconfig", strings.NewReader("[]"))
	h.UpdateConfig(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "NoClient")
}

func TestUpdateConfigRejectsGET(t *testing.T) {
	h := NewAdminHandler(rule.NewStore(), "__pmid", nil)

	rec := httptest.NewRecorder()
	h.UpdateConfig(rec, adminRequest(http.MethodGet, "/api/updateconfig", ""))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestQueryConfigReturnsRules(t *testing.T) {
	store := rule.NewStore()
	store.Put("clientid", []rule.Rule{{Path: "/api/test", Status: 201}})
	h := NewAdminHandler(store, "__pmid", nil)

	rec := httptest.NewRecorder()
	h.QueryConfig(rec, adminRequest(http.MethodGet, "/api/queryconfig", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Code int         `json:"code"`
		Data []rule.Rule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 201, resp.Data[0].Status)
}

func TestQueryConfigEmptyListForUnknownClient(t *testing.T) {
	h := NewAdminHandler(rule.NewStore(), "__pmid", nil)

	rec := httptest.NewRecorder()
	h.QueryConfig(rec, adminRequest(http.MethodGet, "/api/queryconfig", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}
