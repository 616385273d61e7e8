package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// register 同时挂载集合路径和子路径，例如 /crm/api/v1/tags 与 /crm/api/v1/tags/
func (r *Router) register(resource string, h http.Handler) {
	r.HandleHandler(apiPrefix+resource, h)
	r.HandleHandler(apiPrefix+resource+"/", h)
}

func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.HandleHandler("/healthz", h)
}

func (r *Router) RegisterContactRoutes(h *ContactsHandler) {
	r.register("contacts", h)
}

func (r *Router) RegisterPipelineRoutes(h *PipelinesHandler) {
	r.register("pipelines", h)
}

func (r *Router) RegisterOpportunityRoutes(h *OpportunitiesHandler) {
	r.register("opportunities", h)
}

func (r *Router) RegisterAppointmentRoutes(h *AppointmentsHandler) {
	r.register("appointments", h)
}

func (r *Router) RegisterTaskRoutes(h *TasksHandler) {
	r.register("tasks", h)
}

func (r *Router) RegisterTagRoutes(h *TagsHandler) {
	r.register("tags", h)
}

func (r *Router) RegisterSettingsRoutes(h *SettingsHandler) {
	r.register("settings", h)
}

// RegisterCatalogRoutes clients / properties / content-assets
func (r *Router) RegisterCatalogRoutes(h *CatalogHandler) {
	r.register("clients", h)
	r.register("properties", h)
	r.register("content-assets", h)
}

func (r *Router) RegisterSubAccountRoutes(h *SubAccountsHandler) {
	r.register("sub-accounts", h)
}

func (r *Router) RegisterAutomationRoutes(h *AutomationsHandler) {
	r.register("automations", h)
}

// RegisterServices 注册全部 /crm/api/v1 业务路由
func (r *Router) RegisterServices(s *service.Services) {
	r.RegisterContactRoutes(NewContactsHandler(s.Contacts, s.Activities, s.Appointments, s.Tags, r.logger))
	r.RegisterPipelineRoutes(NewPipelinesHandler(s.Pipelines, r.logger))
	r.RegisterOpportunityRoutes(NewOpportunitiesHandler(s.Opportunities, r.logger))
	r.RegisterAppointmentRoutes(NewAppointmentsHandler(s.Appointments, r.logger))
	r.RegisterTaskRoutes(NewTasksHandler(s.Tasks, r.logger))
	r.RegisterTagRoutes(NewTagsHandler(s.Tags, r.logger))
	r.RegisterSettingsRoutes(NewSettingsHandler(s.Settings, r.logger))
	r.RegisterCatalogRoutes(NewCatalogHandler(s.Catalog, r.logger))
	r.RegisterSubAccountRoutes(NewSubAccountsHandler(s.SubAccounts, r.logger))
	r.RegisterAutomationRoutes(NewAutomationsHandler(s.Automations, r.logger))
}
