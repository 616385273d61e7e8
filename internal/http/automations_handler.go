package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
)

const automationsPath = apiPrefix + "automations"

// AutomationsHandler 自动化规则 CRUD；规则由事件消费者执行
type AutomationsHandler struct {
	automations *service.AutomationService
	logger      *zap.Logger
}

func NewAutomationsHandler(automations *service.AutomationService, logger *zap.Logger) *AutomationsHandler {
	return &AutomationsHandler{automations: automations, logger: logger}
}

func (h *AutomationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, automationsPath)
	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		h.ListAutomations(w, r)
	case len(seg) == 0 && r.Method == http.MethodPost:
		h.CreateAutomation(w, r)
	case len(seg) == 1 && r.Method == http.MethodGet:
		h.GetAutomation(w, r, seg[0])
	case len(seg) == 1 && r.Method == http.MethodPut:
		h.UpdateAutomation(w, r, seg[0])
	case len(seg) == 1 && r.Method == http.MethodDelete:
		h.DeleteAutomation(w, r, seg[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *AutomationsHandler) ListAutomations(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	items, err := h.automations.ListAutomations(r.Context(), tenantID)
	if err != nil {
		writeError(w, h.logger, "ListAutomations", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *AutomationsHandler) CreateAutomation(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.AutomationRequest
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.automations.CreateAutomation(r.Context(), tenantID, payload)
	if err != nil {
		writeError(w, h.logger, "CreateAutomation", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *AutomationsHandler) GetAutomation(w http.ResponseWriter, r *http.Request, automationID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	item, err := h.automations.GetAutomation(r.Context(), tenantID, automationID)
	if err != nil {
		writeError(w, h.logger, "GetAutomation", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *AutomationsHandler) UpdateAutomation(w http.ResponseWriter, r *http.Request, automationID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.AutomationRequest
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.automations.UpdateAutomation(r.Context(), tenantID, automationID, payload)
	if err != nil {
		writeError(w, h.logger, "UpdateAutomation", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *AutomationsHandler) DeleteAutomation(w http.ResponseWriter, r *http.Request, automationID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	if err := h.automations.DeleteAutomation(r.Context(), tenantID, automationID); err != nil {
		writeError(w, h.logger, "DeleteAutomation", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}
