package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

var opportunityCols = []string{
	"opportunity_id", "tenant_id", "contact_id", "pipeline_id", "stage", "value", "owner",
	"next_follow_up_date", "created_at", "updated_at", "stage_changed_at",
}

func TestPostgresPipelines_GetPipeline_StagesArray(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresPipelinesRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM pipelines").
		WithArgs(testTenant, "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"pipeline_id", "tenant_id", "name", "stages", "created_at", "updated_at"}).
			AddRow("p-1", testTenant, "Sales", `{Lead,"Closed Won"}`, now, now))

	p, err := repo.GetPipeline(context.Background(), testTenant, "p-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lead", "Closed Won"}, p.Stages)
}

func TestPostgresOpportunities_UpdateStage(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresOpportunitiesRepository(db)
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE opportunities SET stage = $3, updated_at = $4, stage_changed_at = $4")).
		WithArgs(testTenant, "o-1", "Proposal", at).
		WillReturnRows(sqlmock.NewRows(opportunityCols).AddRow(
			"o-1", testTenant, "c-1", "p-1", "Proposal", 1500.0, "sam", nil, at, at, at,
		))

	o, err := repo.UpdateStage(context.Background(), testTenant, "o-1", "Proposal", at)
	require.NoError(t, err)
	assert.Equal(t, "Proposal", o.Stage)
	require.NotNil(t, o.Value)
	assert.Equal(t, 1500.0, *o.Value)
	assert.Equal(t, at, o.StageChangedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOpportunities_UpdateStage_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresOpportunitiesRepository(db)

	mock.ExpectQuery("UPDATE opportunities").WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateStage(context.Background(), testTenant, "o-x", "Lead", time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresOpportunities_ReplaceForContacts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresOpportunitiesRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM opportunities WHERE tenant_id = $1 AND contact_id = ANY($2)")).
		WithArgs(testTenant, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO opportunities").
		WithArgs(testTenant, "c-1", "p-b", "Kickoff", nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"opportunity_id", "created_at", "updated_at", "stage_changed_at"}).
			AddRow("o-new", now, now, now))
	mock.ExpectCommit()

	opps := []*domain.Opportunity{{ContactID: "c-1", PipelineID: "p-b", Stage: "Kickoff"}}
	deleted, err := repo.ReplaceForContacts(context.Background(), testTenant, []string{"c-1"}, opps)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, "o-new", opps[0].OpportunityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOpportunities_ReplaceForContacts_RollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresOpportunitiesRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM opportunities").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("INSERT INTO opportunities").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	opps := []*domain.Opportunity{{ContactID: "c-1", PipelineID: "p-b", Stage: "Kickoff"}}
	_, err := repo.ReplaceForContacts(context.Background(), testTenant, []string{"c-1"}, opps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fk violation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresActivities_LogActivity_TouchesContact(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresActivitiesRepository(db)
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO activities").
		WithArgs(testTenant, "c-1", nil, domain.OutcomeAnswered, "call", nil, at).
		WillReturnRows(sqlmock.NewRows([]string{"activity_id"}).AddRow("a-1"))
	mock.ExpectExec(regexp.QuoteMeta("SET last_contacted_at = GREATEST(COALESCE(last_contacted_at, $3), $3)")).
		WithArgs(testTenant, "c-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	a := &domain.Activity{TenantID: testTenant, ContactID: "c-1", Outcome: domain.OutcomeAnswered, Channel: "call", LoggedAt: at}
	require.NoError(t, repo.LogActivity(context.Background(), a))
	assert.Equal(t, "a-1", a.ActivityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresActivities_LogActivity_BackdatedDoesNotRewind(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresActivitiesRepository(db)
	old := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO activities").
		WithArgs(testTenant, "c-1", nil, "No Answer", "call", nil, old).
		WillReturnRows(sqlmock.NewRows([]string{"activity_id"}).AddRow("a-2"))
	// 由数据库取较大值，旧时间只作为候选
	mock.ExpectExec(regexp.QuoteMeta("GREATEST(COALESCE(last_contacted_at, $3), $3)")).
		WithArgs(testTenant, "c-1", old).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	a := &domain.Activity{TenantID: testTenant, ContactID: "c-1", Outcome: "No Answer", Channel: "call", LoggedAt: old}
	require.NoError(t, repo.LogActivity(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppointments_UpdateStatus_Guarded(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAppointmentsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE tenant_id = $1 AND appointment_id = $2 AND status = $3")).
		WithArgs(testTenant, "ap-1", "scheduled", "completed").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateStatus(context.Background(), testTenant, "ap-1", "scheduled", "completed")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}
