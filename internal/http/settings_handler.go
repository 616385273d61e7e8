package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
)

const settingsPath = apiPrefix + "settings"

// SettingsHandler 租户设置（key -> 任意 JSON）
type SettingsHandler struct {
	settings *service.SettingsService
	logger   *zap.Logger
}

func NewSettingsHandler(settings *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if len(pathSegments(r.URL.Path, settingsPath)) != 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.GetSettings(w, r)
	case http.MethodPut, http.MethodPost:
		h.PutSettings(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	values, err := h.settings.GetSettings(r.Context(), tenantID)
	if err != nil {
		writeError(w, h.logger, "GetSettings", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(values))
}

// PutSettings 只 upsert body 中出现的 key，返回合并后的全部设置
func (h *SettingsHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload map[string]json.RawMessage
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	if err := h.settings.PutSettings(r.Context(), tenantID, payload); err != nil {
		writeError(w, h.logger, "PutSettings", err)
		return
	}
	values, err := h.settings.GetSettings(r.Context(), tenantID)
	if err != nil {
		writeError(w, h.logger, "GetSettings", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(values))
}
