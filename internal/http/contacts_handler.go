package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/exchange"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
)

const contactsPath = apiPrefix + "contacts"

// ContactsHandler 联系人、联系人详情子资源、导入导出
type ContactsHandler struct {
	contacts     *service.ContactService
	activities   *service.ActivityService
	appointments *service.AppointmentService
	tags         *service.TagService
	logger       *zap.Logger
}

// NewContactsHandler 创建联系人 Handler
func NewContactsHandler(
	contacts *service.ContactService,
	activities *service.ActivityService,
	appointments *service.AppointmentService,
	tags *service.TagService,
	logger *zap.Logger,
) *ContactsHandler {
	return &ContactsHandler{
		contacts:     contacts,
		activities:   activities,
		appointments: appointments,
		tags:         tags,
		logger:       logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *ContactsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, contactsPath)
	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		h.ListContacts(w, r)
	case len(seg) == 0 && r.Method == http.MethodPost:
		h.CreateContact(w, r)
	case len(seg) == 1 && seg[0] == "export.csv" && r.Method == http.MethodGet:
		h.ExportContacts(w, r, service.FormatCSV)
	case len(seg) == 1 && seg[0] == "export.xlsx" && r.Method == http.MethodGet:
		h.ExportContacts(w, r, service.FormatXLSX)
	case len(seg) == 2 && seg[0] == "import" && seg[1] == "preview" && r.Method == http.MethodPost:
		h.PreviewImport(w, r)
	case len(seg) == 1 && seg[0] == "import" && r.Method == http.MethodPost:
		h.CommitImport(w, r)
	case len(seg) == 1 && r.Method == http.MethodGet:
		h.GetContact(w, r, seg[0])
	case len(seg) == 1 && r.Method == http.MethodPut:
		h.UpdateContact(w, r, seg[0])
	case len(seg) == 1 && r.Method == http.MethodDelete:
		h.DeleteContact(w, r, seg[0])
	case len(seg) == 2 && seg[1] == "score" && r.Method == http.MethodGet:
		h.GetLeadScore(w, r, seg[0])
	case len(seg) == 2 && seg[1] == "activities" && r.Method == http.MethodGet:
		h.ListActivities(w, r, seg[0])
	case len(seg) == 2 && seg[1] == "activities" && r.Method == http.MethodPost:
		h.LogActivity(w, r, seg[0])
	case len(seg) == 2 && seg[1] == "appointments" && r.Method == http.MethodGet:
		h.ListAppointments(w, r, seg[0])
	case len(seg) == 2 && seg[1] == "tags" && r.Method == http.MethodGet:
		h.ListTags(w, r, seg[0])
	case len(seg) == 2 && seg[1] == "tags" && r.Method == http.MethodPost:
		h.AddTag(w, r, seg[0])
	case len(seg) == 3 && seg[1] == "tags" && r.Method == http.MethodDelete:
		h.RemoveTag(w, r, seg[0], seg[2])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func contactsFilter(r *http.Request) repository.ContactsFilter {
	q := r.URL.Query()
	return repository.ContactsFilter{
		Search:    strings.TrimSpace(q.Get("search")),
		Owner:     strings.TrimSpace(q.Get("owner")),
		LeadScore: strings.TrimSpace(q.Get("lead_score")),
		Source:    strings.TrimSpace(q.Get("source")),
	}
}

// ListContacts 查询联系人列表
func (h *ContactsHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	f := contactsFilter(r)
	resp, err := h.contacts.ListContacts(r.Context(), service.ListContactsRequest{
		TenantID:  tenantID,
		Search:    f.Search,
		Owner:     f.Owner,
		LeadScore: f.LeadScore,
		Source:    f.Source,
		Page:      parseInt(r.URL.Query().Get("page"), 1),
		Size:      parseInt(r.URL.Query().Get("size"), 50),
	})
	if err != nil {
		writeError(w, h.logger, "ListContacts", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// CreateContact 新建联系人
func (h *ContactsHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.ContactFields
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.contacts.CreateContact(r.Context(), tenantID, payload)
	if err != nil {
		writeError(w, h.logger, "CreateContact", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// GetContact 联系人详情（含实时计算的 lead score）
func (h *ContactsHandler) GetContact(w http.ResponseWriter, r *http.Request, contactID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	detail, err := h.contacts.GetContactDetail(r.Context(), tenantID, contactID)
	if err != nil {
		writeError(w, h.logger, "GetContact", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(detail))
}

// UpdateContact 全量更新联系人字段
func (h *ContactsHandler) UpdateContact(w http.ResponseWriter, r *http.Request, contactID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.ContactFields
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.contacts.UpdateContact(r.Context(), tenantID, contactID, payload)
	if err != nil {
		writeError(w, h.logger, "UpdateContact", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *ContactsHandler) DeleteContact(w http.ResponseWriter, r *http.Request, contactID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	if err := h.contacts.DeleteContact(r.Context(), tenantID, contactID); err != nil {
		writeError(w, h.logger, "DeleteContact", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}

func (h *ContactsHandler) GetLeadScore(w http.ResponseWriter, r *http.Request, contactID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	resp, err := h.contacts.GetLeadScore(r.Context(), tenantID, contactID)
	if err != nil {
		writeError(w, h.logger, "GetLeadScore", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *ContactsHandler) ListActivities(w http.ResponseWriter, r *http.Request, contactID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	items, err := h.activities.ListActivities(r.Context(), tenantID, contactID)
	if err != nil {
		writeError(w, h.logger, "ListActivities", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// LogActivity 记录一次外联（同时刷新联系人的 last_contacted_at）
func (h *ContactsHandler) LogActivity(w http.ResponseWriter, r *http.Request, contactID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.LogActivityRequest
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.activities.LogActivity(r.Context(), tenantID, contactID, payload)
	if err != nil {
		writeError(w, h.logger, "LogActivity", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *ContactsHandler) ListAppointments(w http.ResponseWriter, r *http.Request, contactID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	items, err := h.appointments.ListByContact(r.Context(), tenantID, contactID)
	if err != nil {
		writeError(w, h.logger, "ListContactAppointments", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *ContactsHandler) ListTags(w http.ResponseWriter, r *http.Request, contactID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	items, err := h.tags.ListContactTags(r.Context(), tenantID, contactID)
	if err != nil {
		writeError(w, h.logger, "ListContactTags", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *ContactsHandler) AddTag(w http.ResponseWriter, r *http.Request, contactID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload struct {
		TagID string `json:"tag_id"`
	}
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	if strings.TrimSpace(payload.TagID) == "" {
		writeJSON(w, http.StatusOK, Fail("tag_id is required"))
		return
	}
	if err := h.tags.TagContact(r.Context(), tenantID, contactID, payload.TagID); err != nil {
		writeError(w, h.logger, "TagContact", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}

func (h *ContactsHandler) RemoveTag(w http.ResponseWriter, r *http.Request, contactID, tagID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	if err := h.tags.UntagContact(r.Context(), tenantID, contactID, tagID); err != nil {
		writeError(w, h.logger, "UntagContact", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}

// ExportContacts 以附件形式返回文件，过滤条件与列表页一致
func (h *ContactsHandler) ExportContacts(w http.ResponseWriter, r *http.Request, format string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	file, err := h.contacts.ExportContacts(r.Context(), tenantID, format, contactsFilter(r))
	if err != nil {
		writeError(w, h.logger, "ExportContacts", err)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// PreviewImport 接收 multipart 的 file 字段，或原始 body + ?filename=
func (h *ContactsHandler) PreviewImport(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	filename, data, err := readUpload(r)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	preview, err := h.contacts.PreviewImport(r.Context(), tenantID, filename, data)
	if err != nil {
		writeError(w, h.logger, "PreviewImport", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(preview))
}

// CommitImport 按 preview 返回的 import_id 和（可编辑的）mapping 写入
func (h *ContactsHandler) CommitImport(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload struct {
		ImportID string           `json:"import_id"`
		Mapping  exchange.Mapping `json:"mapping"`
	}
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	res, err := h.contacts.CommitImport(r.Context(), tenantID, payload.ImportID, payload.Mapping)
	if err != nil {
		writeError(w, h.logger, "CommitImport", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func readUpload(r *http.Request) (string, []byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportBody); err != nil {
			return "", nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("file is required: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxImportBody))
		if err != nil {
			return "", nil, fmt.Errorf("failed to read upload: %w", err)
		}
		return hdr.Filename, data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBody))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("file is required")
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "import.csv"
	}
	return filename, data, nil
}
