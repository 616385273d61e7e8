package repository

import "database/sql"

// Repos 全部 repository 的组合，Postgres 与内存两种实现
type Repos struct {
	Contacts      ContactsRepository
	Pipelines     PipelinesRepository
	Opportunities OpportunitiesRepository
	Activities    ActivitiesRepository
	Appointments  AppointmentsRepository
	Tasks         TasksRepository
	Tags          TagsRepository
	Settings      SettingsRepository
	Clients       ClientsRepository
	Properties    PropertiesRepository
	ContentAssets ContentAssetsRepository
	SubAccounts   SubAccountsRepository
	Automations   AutomationsRepository
}

func NewPostgresRepos(db *sql.DB) Repos {
	return Repos{
		Contacts:      NewPostgresContactsRepository(db),
		Pipelines:     NewPostgresPipelinesRepository(db),
		Opportunities: NewPostgresOpportunitiesRepository(db),
		Activities:    NewPostgresActivitiesRepository(db),
		Appointments:  NewPostgresAppointmentsRepository(db),
		Tasks:         NewPostgresTasksRepository(db),
		Tags:          NewPostgresTagsRepository(db),
		Settings:      NewPostgresSettingsRepository(db),
		Clients:       NewPostgresClientsRepository(db),
		Properties:    NewPostgresPropertiesRepository(db),
		ContentAssets: NewPostgresContentAssetsRepository(db),
		SubAccounts:   NewPostgresSubAccountsRepository(db),
		Automations:   NewPostgresAutomationsRepository(db),
	}
}

// NewMemoryRepos DB 未启用时使用（本地联调、测试）
func NewMemoryRepos() Repos {
	contacts := NewMemoryContactsRepo()
	return Repos{
		Contacts:      contacts,
		Pipelines:     NewMemoryPipelinesRepo(),
		Opportunities: NewMemoryOpportunitiesRepo(),
		Activities:    NewMemoryActivitiesRepo(contacts),
		Appointments:  NewMemoryAppointmentsRepo(),
		Tasks:         NewMemoryTasksRepo(),
		Tags:          NewMemoryTagsRepo(),
		Settings:      NewMemorySettingsRepo(),
		Clients:       NewMemoryClientsRepo(),
		Properties:    NewMemoryPropertiesRepo(),
		ContentAssets: NewMemoryContentAssetsRepo(),
		SubAccounts:   NewMemorySubAccountsRepo(),
		Automations:   NewMemoryAutomationsRepo(),
	}
}
