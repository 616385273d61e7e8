package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
)

const opportunitiesPath = apiPrefix + "opportunities"

// OpportunitiesHandler 商机，stage / pipeline 迁移走专门的子路径
type OpportunitiesHandler struct {
	opportunities *service.OpportunityService
	logger        *zap.Logger
}

func NewOpportunitiesHandler(opportunities *service.OpportunityService, logger *zap.Logger) *OpportunitiesHandler {
	return &OpportunitiesHandler{opportunities: opportunities, logger: logger}
}

func (h *OpportunitiesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, opportunitiesPath)
	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		h.ListOpportunities(w, r)
	case len(seg) == 0 && r.Method == http.MethodPost:
		h.CreateOpportunity(w, r)
	case len(seg) == 1 && seg[0] == "bulk-assign":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.BulkAssign(w, r)
	case len(seg) == 1 && r.Method == http.MethodGet:
		h.GetOpportunity(w, r, seg[0])
	case len(seg) == 1 && r.Method == http.MethodPut:
		h.UpdateOpportunity(w, r, seg[0])
	case len(seg) == 1 && r.Method == http.MethodDelete:
		h.DeleteOpportunity(w, r, seg[0])
	case len(seg) == 2 && seg[1] == "stage" && (r.Method == http.MethodPost || r.Method == http.MethodPut):
		h.MoveStage(w, r, seg[0])
	case len(seg) == 2 && seg[1] == "pipeline" && (r.Method == http.MethodPost || r.Method == http.MethodPut):
		h.ChangePipeline(w, r, seg[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *OpportunitiesHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	items, err := h.opportunities.ListOpportunities(r.Context(), service.ListOpportunitiesRequest{
		TenantID:   tenantID,
		PipelineID: strings.TrimSpace(q.Get("pipeline_id")),
		ContactID:  strings.TrimSpace(q.Get("contact_id")),
		Stage:      q.Get("stage"),
		Owner:      strings.TrimSpace(q.Get("owner")),
	})
	if err != nil {
		writeError(w, h.logger, "ListOpportunities", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *OpportunitiesHandler) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.CreateOpportunityRequest
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.opportunities.CreateOpportunity(r.Context(), tenantID, payload)
	if err != nil {
		writeError(w, h.logger, "CreateOpportunity", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *OpportunitiesHandler) GetOpportunity(w http.ResponseWriter, r *http.Request, opportunityID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	item, err := h.opportunities.GetOpportunity(r.Context(), tenantID, opportunityID)
	if err != nil {
		writeError(w, h.logger, "GetOpportunity", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *OpportunitiesHandler) UpdateOpportunity(w http.ResponseWriter, r *http.Request, opportunityID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.UpdateOpportunityRequest
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.opportunities.UpdateOpportunity(r.Context(), tenantID, opportunityID, payload)
	if err != nil {
		writeError(w, h.logger, "UpdateOpportunity", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *OpportunitiesHandler) DeleteOpportunity(w http.ResponseWriter, r *http.Request, opportunityID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	if err := h.opportunities.DeleteOpportunity(r.Context(), tenantID, opportunityID); err != nil {
		writeError(w, h.logger, "DeleteOpportunity", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}

// MoveStage 同一 pipeline 内任意 stage 之间移动
func (h *OpportunitiesHandler) MoveStage(w http.ResponseWriter, r *http.Request, opportunityID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload struct {
		Stage string `json:"stage"`
	}
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.opportunities.MoveStage(r.Context(), tenantID, opportunityID, payload.Stage)
	if err != nil {
		writeError(w, h.logger, "MoveStage", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// ChangePipeline stage 省略时重置为新 pipeline 的第一个 stage
func (h *OpportunitiesHandler) ChangePipeline(w http.ResponseWriter, r *http.Request, opportunityID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload struct {
		PipelineID string  `json:"pipeline_id"`
		Stage      *string `json:"stage"`
	}
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.opportunities.ChangePipeline(r.Context(), tenantID, opportunityID, payload.PipelineID, payload.Stage)
	if err != nil {
		writeError(w, h.logger, "ChangePipeline", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *OpportunitiesHandler) BulkAssign(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.BulkAssignRequest
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	resp, err := h.opportunities.BulkAssign(r.Context(), tenantID, payload)
	if err != nil {
		writeError(w, h.logger, "BulkAssign", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}
