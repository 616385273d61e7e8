package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
)

const pipelinesPath = apiPrefix + "pipelines"

// PipelinesHandler 销售管道与看板
type PipelinesHandler struct {
	pipelines *service.PipelineService
	logger    *zap.Logger
}

func NewPipelinesHandler(pipelines *service.PipelineService, logger *zap.Logger) *PipelinesHandler {
	return &PipelinesHandler{pipelines: pipelines, logger: logger}
}

func (h *PipelinesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, pipelinesPath)
	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		h.ListPipelines(w, r)
	case len(seg) == 0 && r.Method == http.MethodPost:
		h.CreatePipeline(w, r)
	case len(seg) == 1 && r.Method == http.MethodGet:
		h.GetPipeline(w, r, seg[0])
	case len(seg) == 1 && r.Method == http.MethodPut:
		h.UpdatePipeline(w, r, seg[0])
	case len(seg) == 1 && r.Method == http.MethodDelete:
		h.DeletePipeline(w, r, seg[0])
	case len(seg) == 2 && seg[1] == "board" && r.Method == http.MethodGet:
		h.GetBoard(w, r, seg[0])
	case len(seg) == 3 && seg[1] == "board" && seg[2] == "move" && r.Method == http.MethodPost:
		h.MoveCard(w, r, seg[0])
	case len(seg) == 2 && seg[1] == "orphans" && r.Method == http.MethodGet:
		h.GetOrphans(w, r, seg[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *PipelinesHandler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	items, err := h.pipelines.ListPipelines(r.Context(), tenantID)
	if err != nil {
		writeError(w, h.logger, "ListPipelines", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *PipelinesHandler) CreatePipeline(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.PipelineRequest
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.pipelines.CreatePipeline(r.Context(), tenantID, payload)
	if err != nil {
		writeError(w, h.logger, "CreatePipeline", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *PipelinesHandler) GetPipeline(w http.ResponseWriter, r *http.Request, pipelineID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	item, err := h.pipelines.GetPipeline(r.Context(), tenantID, pipelineID)
	if err != nil {
		writeError(w, h.logger, "GetPipeline", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// UpdatePipeline 返回中带 orphaned：因 stage 改名/删除而失配的 opportunity 数
func (h *PipelinesHandler) UpdatePipeline(w http.ResponseWriter, r *http.Request, pipelineID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.PipelineRequest
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	resp, err := h.pipelines.UpdatePipeline(r.Context(), tenantID, pipelineID, payload)
	if err != nil {
		writeError(w, h.logger, "UpdatePipeline", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *PipelinesHandler) DeletePipeline(w http.ResponseWriter, r *http.Request, pipelineID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	if err := h.pipelines.DeletePipeline(r.Context(), tenantID, pipelineID); err != nil {
		writeError(w, h.logger, "DeletePipeline", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}

func (h *PipelinesHandler) GetBoard(w http.ResponseWriter, r *http.Request, pipelineID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	board, err := h.pipelines.GetBoard(r.Context(), tenantID, pipelineID)
	if err != nil {
		writeError(w, h.logger, "GetBoard", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(board))
}

// MoveCard 看板拖拽，失败时看板不变
func (h *PipelinesHandler) MoveCard(w http.ResponseWriter, r *http.Request, pipelineID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload struct {
		OpportunityID string `json:"opportunity_id"`
		Stage         string `json:"stage"`
	}
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	if payload.OpportunityID == "" {
		writeJSON(w, http.StatusOK, Fail("opportunity_id is required"))
		return
	}
	board, err := h.pipelines.MoveCard(r.Context(), tenantID, pipelineID, payload.OpportunityID, payload.Stage)
	if err != nil {
		writeError(w, h.logger, "MoveCard", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(board))
}

func (h *PipelinesHandler) GetOrphans(w http.ResponseWriter, r *http.Request, pipelineID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	items, err := h.pipelines.GetOrphans(r.Context(), tenantID, pipelineID)
	if err != nil {
		writeError(w, h.logger, "GetOrphans", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}
