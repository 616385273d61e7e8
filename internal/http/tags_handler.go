package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
)

const tagsPath = apiPrefix + "tags"

// TagsHandler 标签管理；联系人打标签走 /contacts/{id}/tags
type TagsHandler struct {
	tags   *service.TagService
	logger *zap.Logger
}

func NewTagsHandler(tags *service.TagService, logger *zap.Logger) *TagsHandler {
	return &TagsHandler{tags: tags, logger: logger}
}

func (h *TagsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, tagsPath)
	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		h.ListTags(w, r)
	case len(seg) == 0 && r.Method == http.MethodPost:
		h.CreateTag(w, r)
	case len(seg) == 1 && r.Method == http.MethodDelete:
		h.DeleteTag(w, r, seg[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *TagsHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	items, err := h.tags.ListTags(r.Context(), tenantID)
	if err != nil {
		writeError(w, h.logger, "ListTags", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *TagsHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.tags.CreateTag(r.Context(), tenantID, payload.Name, payload.Color)
	if err != nil {
		writeError(w, h.logger, "CreateTag", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// DeleteTag 同时解除所有联系人上的该标签
func (h *TagsHandler) DeleteTag(w http.ResponseWriter, r *http.Request, tagID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	if err := h.tags.DeleteTag(r.Context(), tenantID, tagID); err != nil {
		writeError(w, h.logger, "DeleteTag", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}
