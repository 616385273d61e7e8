package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/events"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/store"
)

const testTenant = "00000000-0000-0000-0000-000000000001"

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	logger := zap.NewNop()
	svcs := service.NewServices(repository.NewMemoryRepos(), store.NewMemoryKV(), events.Nop{}, 0, logger)
	r := NewRouter(logger)
	r.RegisterServices(svcs)
	r.RegisterHealthRoutes(NewHealthHandler(logger))
	return r
}

// call 发送 JSON 请求并解析 Result 包装
func call(t *testing.T, h http.Handler, method, path string, body any) Result[json.RawMessage] {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("X-Tenant-Id", testTenant)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res Result[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return res
}

// mustOk 断言成功并把 result 解到 out
func mustOk(t *testing.T, res Result[json.RawMessage], out any) {
	t.Helper()
	require.Equal(t, ResultSuccess, res.Code, res.Message)
	if out != nil {
		require.NoError(t, json.Unmarshal(res.Result, out))
	}
}

func TestTenantRequired(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/crm/api/v1/contacts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":-1`)
	assert.Contains(t, w.Body.String(), "tenant_id is required")
}

func TestTenantFromQuery(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/crm/api/v1/contacts?tenant_id="+testTenant, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"code":2000`)
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/crm/api/v1/contacts/a/b/c/d", "/crm/api/v1/pipelines/p-1/nope"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Tenant-Id", testTenant)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestContactLifecycle_ScoreReflectsActivity(t *testing.T) {
	r := newTestRouter(t)

	res := call(t, r, http.MethodPost, "/crm/api/v1/contacts", map[string]string{"name": ""})
	assert.Equal(t, ResultError, res.Code)

	var c service.ContactItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/contacts", map[string]string{
		"name": "Ann Lee", "email": "ann@example.com", "lead_score": "Warm",
	}), &c)
	assert.Equal(t, "warm", c.LeadScore)
	assert.Equal(t, "manual", c.Source)

	var score service.LeadScoreResponse
	mustOk(t, call(t, r, http.MethodGet, "/crm/api/v1/contacts/"+c.ContactID+"/score", nil), &score)
	assert.Equal(t, 0, score.Score.Total)
	assert.Equal(t, "warm", score.Category)

	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/contacts/"+c.ContactID+"/activities", map[string]string{
		"outcome": "Answered",
	}), nil)

	var detail service.ContactDetail
	mustOk(t, call(t, r, http.MethodGet, "/crm/api/v1/contacts/"+c.ContactID, nil), &detail)
	require.Len(t, detail.Activities, 1)
	// activity 5 + positive 3 + recency 15
	assert.Equal(t, 23, detail.Score.Total)
	require.NotNil(t, detail.Contact.LastContactedAt)

	var list service.ListContactsResponse
	mustOk(t, call(t, r, http.MethodGet, "/crm/api/v1/contacts?search=ann", nil), &list)
	assert.Equal(t, 1, list.Total)

	mustOk(t, call(t, r, http.MethodDelete, "/crm/api/v1/contacts/"+c.ContactID, nil), nil)
	res = call(t, r, http.MethodGet, "/crm/api/v1/contacts/"+c.ContactID, nil)
	assert.Equal(t, ResultError, res.Code)
	assert.Contains(t, res.Message, "not found")
}

func TestOpportunityStageAndPipelineMoves(t *testing.T) {
	r := newTestRouter(t)

	var c service.ContactItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/contacts", map[string]string{"name": "Bo"}), &c)
	var a, b service.PipelineItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/pipelines", map[string]any{
		"name": "Sales", "stages": []string{"Lead", "Demo", "Proposal", "Closed Won"},
	}), &a)
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/pipelines", map[string]any{
		"name": "Onboarding", "stages": []string{"Kickoff", "Live"},
	}), &b)

	var o service.OpportunityItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/opportunities", map[string]string{
		"contact_id": c.ContactID, "pipeline_id": a.PipelineID,
	}), &o)
	assert.Equal(t, "Lead", o.Stage)

	// 任意顺序跳转
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/opportunities/"+o.OpportunityID+"/stage", map[string]string{"stage": "Closed Won"}), &o)
	assert.Equal(t, "Closed Won", o.Stage)
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/opportunities/"+o.OpportunityID+"/stage", map[string]string{"stage": "Demo"}), &o)
	assert.Equal(t, "Demo", o.Stage)

	res := call(t, r, http.MethodPost, "/crm/api/v1/opportunities/"+o.OpportunityID+"/stage", map[string]string{"stage": "Kickoff"})
	assert.Equal(t, ResultError, res.Code)
	assert.Contains(t, res.Message, "not a member")

	// 换 pipeline 且不指定 stage：重置为第一个 stage
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/opportunities/"+o.OpportunityID+"/pipeline", map[string]string{"pipeline_id": b.PipelineID}), &o)
	assert.Equal(t, b.PipelineID, o.PipelineID)
	assert.Equal(t, "Kickoff", o.Stage)

	var board service.BoardView
	mustOk(t, call(t, r, http.MethodGet, "/crm/api/v1/pipelines/"+b.PipelineID+"/board", nil), &board)
	require.Len(t, board.Columns, 2)
	assert.Len(t, board.Columns[0].Cards, 1)

	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/pipelines/"+b.PipelineID+"/board/move", map[string]string{
		"opportunity_id": o.OpportunityID, "stage": "Live",
	}), &board)
	assert.Empty(t, board.Columns[0].Cards)
	assert.Len(t, board.Columns[1].Cards, 1)
}

func TestBulkAssign_LeavesOneOpportunityPerContact(t *testing.T) {
	r := newTestRouter(t)

	var c service.ContactItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/contacts", map[string]string{"name": "Cy"}), &c)
	var a, b service.PipelineItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/pipelines", map[string]any{"name": "A", "stages": []string{"New"}}), &a)
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/pipelines", map[string]any{"name": "B", "stages": []string{"Start", "End"}}), &b)

	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/opportunities/bulk-assign", map[string]any{
		"contact_ids": []string{c.ContactID}, "pipeline_id": a.PipelineID,
	}), nil)
	var resp service.BulkAssignResponse
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/opportunities/bulk-assign", map[string]any{
		"contact_ids": []string{c.ContactID, c.ContactID}, "pipeline_id": b.PipelineID,
	}), &resp)
	assert.Equal(t, 1, resp.Assigned)
	assert.Equal(t, 1, resp.Replaced)
	assert.Equal(t, "Start", resp.Stage)

	var opps []service.OpportunityItem
	mustOk(t, call(t, r, http.MethodGet, "/crm/api/v1/opportunities?contact_id="+c.ContactID, nil), &opps)
	require.Len(t, opps, 1)
	assert.Equal(t, b.PipelineID, opps[0].PipelineID)
}

func TestExportThenImportPreviewAndCommit(t *testing.T) {
	r := newTestRouter(t)
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/contacts", map[string]string{
		"name": `Dee "D" Park`, "email": "dee@example.com", "business_name": "Park & Co",
	}), nil)

	req := httptest.NewRequest(http.MethodGet, "/crm/api/v1/contacts/export.csv", nil)
	req.Header.Set("X-Tenant-Id", testTenant)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="contacts-`)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	csvData := w.Body.Bytes()
	assert.True(t, strings.HasPrefix(string(csvData), `"Name","Email"`), string(csvData))

	// 原始 body 上传
	req = httptest.NewRequest(http.MethodPost, "/crm/api/v1/contacts/import/preview?filename=contacts.csv", bytes.NewReader(csvData))
	req.Header.Set("X-Tenant-Id", testTenant)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var res Result[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	var preview service.ImportPreview
	mustOk(t, res, &preview)
	assert.Equal(t, 1, preview.Total)
	assert.Equal(t, "name", preview.Mapping[0])

	var result service.ImportResult
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/contacts/import", map[string]any{
		"import_id": preview.ImportID, "mapping": preview.Mapping,
	}), &result)
	assert.Equal(t, 1, result.Imported)

	var list service.ListContactsResponse
	mustOk(t, call(t, r, http.MethodGet, "/crm/api/v1/contacts?search=park", nil), &list)
	require.Equal(t, 2, list.Total)
	for _, c := range list.Items {
		assert.Equal(t, `Dee "D" Park`, c.Name)
		assert.Equal(t, "Park & Co", c.BusinessName)
	}

	// 已提交的 import_id 不能重复使用
	res = call(t, r, http.MethodPost, "/crm/api/v1/contacts/import", map[string]any{"import_id": preview.ImportID})
	assert.Equal(t, ResultError, res.Code)
}

func TestImportPreview_Multipart(t *testing.T) {
	r := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "leads.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("Full Name,Company,Mobile\nEve,Acme,555-1234\n,Nobody,\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/crm/api/v1/contacts/import/preview", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Tenant-Id", testTenant)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var res Result[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	var preview service.ImportPreview
	mustOk(t, res, &preview)
	assert.Equal(t, []string{"Full Name", "Company", "Mobile"}, preview.Headers)
	assert.Equal(t, 2, preview.Total)

	var result service.ImportResult
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/contacts/import", map[string]any{"import_id": preview.ImportID}), &result)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
}

func TestAppointmentTransitions(t *testing.T) {
	r := newTestRouter(t)
	var c service.ContactItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/contacts", map[string]string{"name": "Fay"}), &c)

	var a service.AppointmentItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/appointments", map[string]string{
		"contact_id": c.ContactID, "title": "Discovery call", "starts_at": "2026-03-02T15:00:00Z",
	}), &a)
	assert.Equal(t, "scheduled", a.Status)

	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/appointments/"+a.AppointmentID+"/status", map[string]string{"status": "completed"}), &a)
	assert.Equal(t, "completed", a.Status)

	res := call(t, r, http.MethodPost, "/crm/api/v1/appointments/"+a.AppointmentID+"/status", map[string]string{"status": "scheduled"})
	assert.Equal(t, ResultError, res.Code)
	assert.Contains(t, res.Message, "invalid status transition")

	var byContact []service.AppointmentItem
	mustOk(t, call(t, r, http.MethodGet, "/crm/api/v1/contacts/"+c.ContactID+"/appointments", nil), &byContact)
	require.Len(t, byContact, 1)
	assert.Equal(t, "completed", byContact[0].Status)

	var inRange []service.AppointmentItem
	mustOk(t, call(t, r, http.MethodGet, "/crm/api/v1/appointments?from=2026-03-01&to=2026-03-03", nil), &inRange)
	assert.Len(t, inRange, 1)

	res = call(t, r, http.MethodGet, "/crm/api/v1/appointments?from=yesterday", nil)
	assert.Equal(t, "invalid from", res.Message)
}

func TestTaskCompleteDefaultsToTrue(t *testing.T) {
	r := newTestRouter(t)
	var task service.TaskItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/tasks", map[string]string{"title": "Send proposal"}), &task)
	assert.Equal(t, "medium", task.Priority)

	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/tasks/"+task.TaskID+"/complete", nil), &task)
	assert.True(t, task.Completed)

	var open []service.TaskItem
	mustOk(t, call(t, r, http.MethodGet, "/crm/api/v1/tasks?completed=false", nil), &open)
	assert.Empty(t, open)

	mustOk(t, call(t, r, http.MethodPut, "/crm/api/v1/tasks/"+task.TaskID+"/complete", map[string]bool{"completed": false}), &task)
	assert.False(t, task.Completed)
}

func TestTagsAndSettings(t *testing.T) {
	r := newTestRouter(t)
	var c service.ContactItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/contacts", map[string]string{"name": "Gus"}), &c)

	var tag service.TagItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/tags", map[string]string{"name": "VIP", "color": "#ff0000"}), &tag)
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/contacts/"+c.ContactID+"/tags", map[string]string{"tag_id": tag.TagID}), nil)

	var tags []service.TagItem
	mustOk(t, call(t, r, http.MethodGet, "/crm/api/v1/contacts/"+c.ContactID+"/tags", nil), &tags)
	require.Len(t, tags, 1)
	assert.Equal(t, "VIP", tags[0].Name)

	mustOk(t, call(t, r, http.MethodDelete, "/crm/api/v1/contacts/"+c.ContactID+"/tags/"+tag.TagID, nil), nil)
	mustOk(t, call(t, r, http.MethodGet, "/crm/api/v1/contacts/"+c.ContactID+"/tags", nil), &tags)
	assert.Empty(t, tags)

	var settings map[string]json.RawMessage
	mustOk(t, call(t, r, http.MethodPut, "/crm/api/v1/settings", map[string]any{
		"business_hours": map[string]string{"open": "09:00"},
	}), &settings)
	assert.JSONEq(t, `{"open":"09:00"}`, string(settings["business_hours"]))
}

func TestCatalogRoutes(t *testing.T) {
	r := newTestRouter(t)

	var client service.ClientItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/clients", map[string]any{"name": "Acme", "monthly_fee": 1500}), &client)
	mustOk(t, call(t, r, http.MethodGet, "/crm/api/v1/clients/"+client.ClientID, nil), &client)
	assert.Equal(t, "Acme", client.Name)

	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/properties", map[string]any{"title": "Loft", "city": "Austin", "price": 450000}), nil)
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/properties", map[string]any{"title": "Villa", "city": "Austin", "price": 1200000}), nil)
	var props []service.PropertyItem
	mustOk(t, call(t, r, http.MethodGet, "/crm/api/v1/properties?city=Austin&max_price=500000", nil), &props)
	require.Len(t, props, 1)
	assert.Equal(t, "Loft", props[0].Title)

	res := call(t, r, http.MethodGet, "/crm/api/v1/properties?min_price=cheap", nil)
	assert.Equal(t, "invalid min_price", res.Message)

	var sub service.SubAccountItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/sub-accounts", map[string]string{"name": "Branch"}), &sub)
	mustOk(t, call(t, r, http.MethodDelete, "/crm/api/v1/sub-accounts/"+sub.SubAccountID, nil), nil)
}

func TestAutomationRoutes_ValidateAction(t *testing.T) {
	r := newTestRouter(t)
	res := call(t, r, http.MethodPost, "/crm/api/v1/automations", map[string]any{
		"name": "Ping", "trigger": "contact.created", "action_type": "webhook",
		"action_config": map[string]string{"url": "not-a-url"},
	})
	assert.Equal(t, ResultError, res.Code)

	var a service.AutomationItem
	mustOk(t, call(t, r, http.MethodPost, "/crm/api/v1/automations", map[string]any{
		"name": "Ping", "trigger": "contact.created", "action_type": "webhook",
		"action_config": map[string]string{"url": "https://hooks.example.com/crm"},
	}), &a)
	assert.True(t, a.Enabled)
}

func TestHealthz(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())
	h.AddCheck("db", func(context.Context) error { return nil })

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy":true`)

	h.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
