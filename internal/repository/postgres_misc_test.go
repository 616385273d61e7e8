package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

func TestPostgresTags_CreateTag_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTagsRepository(db)

	mock.ExpectQuery("INSERT INTO tags").
		WithArgs(testTenant, "VIP", "#ff0000").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := repo.CreateTag(context.Background(), &domain.Tag{TenantID: testTenant, Name: "VIP", Color: "#ff0000"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPostgresAutomations_ListEnabledByTrigger(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAutomationsRepository(db)
	now := time.Now().UTC()

	cols := []string{"automation_id", "tenant_id", "name", "trigger", "condition", "action_type", "action_config", "enabled", "created_at", "updated_at"}
	mock.ExpectQuery("FROM automations").
		WithArgs(testTenant, "activity.logged").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("au-1", testTenant, "Follow up meetings", "activity.logged",
				[]byte(`{"field":"outcome","equals":"Meeting Booked"}`), "create_task",
				[]byte(`{"title":"Prepare agenda"}`), true, now, now).
			AddRow("au-2", testTenant, "Ping", "activity.logged", nil, "webhook",
				[]byte(`{"url":"http://example.com"}`), true, now, now))

	out, err := repo.ListEnabledByTrigger(context.Background(), testTenant, "activity.logged")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, domain.Condition{Field: "outcome", Equals: "Meeting Booked"}, out[0].Condition)
	assert.JSONEq(t, `{"title":"Prepare agenda"}`, string(out[0].ActionConfig))
	assert.Equal(t, domain.Condition{}, out[1].Condition)
}

func TestPostgresSettings_PutSetting(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresSettingsRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO settings").
		WithArgs(testTenant, "business_hours", `{"open":"09:00"}`).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	s := &domain.Setting{TenantID: testTenant, Key: "business_hours", Value: json.RawMessage(`{"open":"09:00"}`)}
	require.NoError(t, repo.PutSetting(context.Background(), s))
	assert.Equal(t, now, s.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresContentAssets_ListByTag(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresContentAssetsRepository(db)
	now := time.Now().UTC()

	cols := []string{"asset_id", "tenant_id", "title", "asset_type", "url", "body", "tags", "metadata", "created_at", "updated_at"}
	mock.ExpectQuery(`\$2 = ANY\(tags\)`).
		WithArgs(testTenant, "cold-call").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("as-1", testTenant, "Opener", "script", "", "Hi, this is...", "{cold-call,intro}", nil, now, now))

	out, err := repo.ListContentAssets(context.Background(), testTenant, "", "cold-call")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"cold-call", "intro"}, out[0].Tags)
	assert.Nil(t, out[0].Metadata)
}
