package engine

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/httputil"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/logging"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/rule"
)

// maxConfigBytes caps an uploaded rule list.
const maxConfigBytes = 4 * 1024 * 1024

// AdminHandler serves the dashboard's rule management endpoints:
// POST /api/updateconfig replaces a client's rule list wholesale and
// GET /api/queryconfig returns the current list. Unlike the rewrite
// endpoint, the client id comes from the caller's own cookie because the
// dashboard is a first-party page.
type AdminHandler struct {
	store      *rule.Store
	cookieName string
	log        *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(store *rule.Store, cookieName string, log *slog.Logger) *AdminHandler {
	if log == nil {
		log = logging.Nop()
	}
	return &AdminHandler{store: store, cookieName: cookieName, log: log}
}

// UpdateConfig handles POST /api/updateconfig.
func (h *AdminHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "use POST")
		return
	}

	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBytes))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BadRequest", "reading body: "+err.Error())
		return
	}

	var rules []rule.Rule
	if err := json.Unmarshal(body, &rules); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BadRequest", "invalid rule list: "+err.Error())
		return
	}

	// Reject the whole list on any bad rule so the store never holds a
	// partial update.
	if err := rule.ValidateList(rules); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	h.store.Put(clientID, rules)
	h.log.Info("rules updated", "clientID", clientID, "count", len(rules))
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"code": 200, "msg": "ok"})
}

// QueryConfig handles GET /api/queryconfig.
func (h *AdminHandler) QueryConfig(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	rules := h.store.Get(clientID)
	if rules == nil {
		rules = []rule.Rule{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"code": 200, "data": rules})
}

func (h *AdminHandler) clientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	cookie, err := r.Cookie(h.cookieName)
	if err != nil || cookie.Value == "" {
		httputil.WriteError(w, http.StatusBadRequest, "NoClient", "missing client id cookie")
		return "", false
	}
	return cookie.Value, true
}
