package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
)

const appointmentsPath = apiPrefix + "appointments"

// AppointmentsHandler 日历预约
type AppointmentsHandler struct {
	appointments *service.AppointmentService
	logger       *zap.Logger
}

func NewAppointmentsHandler(appointments *service.AppointmentService, logger *zap.Logger) *AppointmentsHandler {
	return &AppointmentsHandler{appointments: appointments, logger: logger}
}

func (h *AppointmentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, appointmentsPath)
	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		h.ListAppointments(w, r)
	case len(seg) == 0 && r.Method == http.MethodPost:
		h.CreateAppointment(w, r)
	case len(seg) == 1 && r.Method == http.MethodGet:
		h.GetAppointment(w, r, seg[0])
	case len(seg) == 1 && r.Method == http.MethodPut:
		h.UpdateAppointment(w, r, seg[0])
	case len(seg) == 1 && r.Method == http.MethodDelete:
		h.DeleteAppointment(w, r, seg[0])
	case len(seg) == 2 && seg[1] == "status" && (r.Method == http.MethodPost || r.Method == http.MethodPut):
		h.TransitionAppointment(w, r, seg[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListAppointments 支持 contact_id / status / from / to 过滤（from、to 为 RFC3339 或 yyyy-MM-dd）
func (h *AppointmentsHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	from, err := parseTimeParam(q.Get("from"))
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid from"))
		return
	}
	to, err := parseTimeParam(q.Get("to"))
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid to"))
		return
	}
	items, err := h.appointments.ListAppointments(r.Context(), service.ListAppointmentsRequest{
		TenantID:  tenantID,
		ContactID: strings.TrimSpace(q.Get("contact_id")),
		Status:    strings.TrimSpace(q.Get("status")),
		From:      from,
		To:        to,
	})
	if err != nil {
		writeError(w, h.logger, "ListAppointments", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *AppointmentsHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.AppointmentRequest
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.appointments.CreateAppointment(r.Context(), tenantID, payload)
	if err != nil {
		writeError(w, h.logger, "CreateAppointment", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *AppointmentsHandler) GetAppointment(w http.ResponseWriter, r *http.Request, appointmentID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	item, err := h.appointments.GetAppointment(r.Context(), tenantID, appointmentID)
	if err != nil {
		writeError(w, h.logger, "GetAppointment", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// UpdateAppointment 编辑表单，可直接设置任意状态
func (h *AppointmentsHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request, appointmentID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.AppointmentRequest
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.appointments.UpdateAppointment(r.Context(), tenantID, appointmentID, payload)
	if err != nil {
		writeError(w, h.logger, "UpdateAppointment", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// TransitionAppointment 日历上的快捷操作，只允许 scheduled 出发的迁移
func (h *AppointmentsHandler) TransitionAppointment(w http.ResponseWriter, r *http.Request, appointmentID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.appointments.TransitionAppointment(r.Context(), tenantID, appointmentID, payload.Status)
	if err != nil {
		writeError(w, h.logger, "TransitionAppointment", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *AppointmentsHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request, appointmentID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	if err := h.appointments.DeleteAppointment(r.Context(), tenantID, appointmentID); err != nil {
		writeError(w, h.logger, "DeleteAppointment", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}
