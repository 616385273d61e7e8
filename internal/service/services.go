package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/events"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/store"
)

// Services HTTP 层与 CLI 共用的服务组合
type Services struct {
	Contacts      *ContactService
	Pipelines     *PipelineService
	Opportunities *OpportunityService
	Activities    *ActivityService
	Appointments  *AppointmentService
	Tasks         *TaskService
	Tags          *TagService
	Settings      *SettingsService
	Catalog       *CatalogService
	SubAccounts   *SubAccountService
	Automations   *AutomationService
}

func NewServices(repos repository.Repos, kv store.KV, publisher events.Publisher, previewTTL time.Duration, logger *zap.Logger) *Services {
	return &Services{
		Contacts: NewContactService(ContactRepos{
			Contacts:      repos.Contacts,
			Activities:    repos.Activities,
			Appointments:  repos.Appointments,
			Opportunities: repos.Opportunities,
			Tags:          repos.Tags,
		}, kv, publisher, previewTTL, logger),
		Pipelines:     NewPipelineService(repos.Pipelines, repos.Opportunities, publisher, logger),
		Opportunities: NewOpportunityService(repos.Opportunities, repos.Pipelines, repos.Contacts, publisher, logger),
		Activities:    NewActivityService(repos.Activities, publisher, logger),
		Appointments:  NewAppointmentService(repos.Appointments, repos.Contacts, publisher, logger),
		Tasks:         NewTaskService(repos.Tasks, publisher, logger),
		Tags:          NewTagService(repos.Tags, repos.Contacts, logger),
		Settings:      NewSettingsService(repos.Settings, logger),
		Catalog:       NewCatalogService(repos.Clients, repos.Properties, repos.ContentAssets, logger),
		SubAccounts:   NewSubAccountService(repos.SubAccounts, logger),
		Automations:   NewAutomationService(repos.Automations, logger),
	}
}
