package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
)

const tasksPath = apiPrefix + "tasks"

type TasksHandler struct {
	tasks  *service.TaskService
	logger *zap.Logger
}

func NewTasksHandler(tasks *service.TaskService, logger *zap.Logger) *TasksHandler {
	return &TasksHandler{tasks: tasks, logger: logger}
}

func (h *TasksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, tasksPath)
	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		h.ListTasks(w, r)
	case len(seg) == 0 && r.Method == http.MethodPost:
		h.CreateTask(w, r)
	case len(seg) == 1 && r.Method == http.MethodGet:
		h.GetTask(w, r, seg[0])
	case len(seg) == 1 && r.Method == http.MethodPut:
		h.UpdateTask(w, r, seg[0])
	case len(seg) == 1 && r.Method == http.MethodDelete:
		h.DeleteTask(w, r, seg[0])
	case len(seg) == 2 && seg[1] == "complete" && (r.Method == http.MethodPost || r.Method == http.MethodPut):
		h.CompleteTask(w, r, seg[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *TasksHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	completed, err := parseBoolParam(q.Get("completed"))
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid completed"))
		return
	}
	items, err := h.tasks.ListTasks(r.Context(), service.ListTasksRequest{
		TenantID:  tenantID,
		ContactID: strings.TrimSpace(q.Get("contact_id")),
		Assignee:  strings.TrimSpace(q.Get("assignee")),
		Completed: completed,
	})
	if err != nil {
		writeError(w, h.logger, "ListTasks", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *TasksHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.TaskRequest
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.tasks.CreateTask(r.Context(), tenantID, payload, service.TaskSourceManual)
	if err != nil {
		writeError(w, h.logger, "CreateTask", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *TasksHandler) GetTask(w http.ResponseWriter, r *http.Request, taskID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	item, err := h.tasks.GetTask(r.Context(), tenantID, taskID)
	if err != nil {
		writeError(w, h.logger, "GetTask", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *TasksHandler) UpdateTask(w http.ResponseWriter, r *http.Request, taskID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload service.TaskRequest
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.tasks.UpdateTask(r.Context(), tenantID, taskID, payload)
	if err != nil {
		writeError(w, h.logger, "UpdateTask", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// CompleteTask body 为空时视为标记完成；{"completed": false} 重新打开
func (h *TasksHandler) CompleteTask(w http.ResponseWriter, r *http.Request, taskID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload struct {
		Completed *bool `json:"completed"`
	}
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	completed := payload.Completed == nil || *payload.Completed
	item, err := h.tasks.CompleteTask(r.Context(), tenantID, taskID, completed)
	if err != nil {
		writeError(w, h.logger, "CompleteTask", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *TasksHandler) DeleteTask(w http.ResponseWriter, r *http.Request, taskID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), tenantID, taskID); err != nil {
		writeError(w, h.logger, "DeleteTask", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}
