//go:build integration

package repository

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commoncfg "github.com/Pristinepartners/pristine-crm-sub000/common/config"
	"github.com/Pristinepartners/pristine-crm-sub000/common/database"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/migrations"
)

// go test -tags integration ./internal/repository/...
func openIntegrationDB(t *testing.T) *sql.DB {
	t.Helper()
	port, _ := strconv.Atoi(testEnv("TEST_DB_PORT", "5432"))
	cfg := &commoncfg.DatabaseConfig{
		Host:     testEnv("TEST_DB_HOST", "localhost"),
		Port:     port,
		User:     testEnv("TEST_DB_USER", "postgres"),
		Password: testEnv("TEST_DB_PASSWORD", "postgres"),
		Database: testEnv("TEST_DB_NAME", "pristine_crm"),
		SSLMode:  testEnv("TEST_DB_SSLMODE", "disable"),
	}
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migrations.Migrate(context.Background(), db)
	require.NoError(t, err)
	return db
}

func testEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestIntegration_BulkAssignReplacesAcrossPipelines(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	tenantID := uuid.NewString()
	repos := NewPostgresRepos(db)

	c := &domain.Contact{TenantID: tenantID, Name: "Integration Contact"}
	require.NoError(t, repos.Contacts.CreateContact(ctx, c))
	t.Cleanup(func() { _ = repos.Contacts.DeleteContact(ctx, tenantID, c.ContactID) })

	a := &domain.Pipeline{TenantID: tenantID, Name: "A", Stages: []string{"New", "Won"}}
	b := &domain.Pipeline{TenantID: tenantID, Name: "B", Stages: []string{"Intro"}}
	require.NoError(t, repos.Pipelines.CreatePipeline(ctx, a))
	require.NoError(t, repos.Pipelines.CreatePipeline(ctx, b))
	t.Cleanup(func() {
		_ = repos.Pipelines.DeletePipeline(ctx, tenantID, a.PipelineID)
		_ = repos.Pipelines.DeletePipeline(ctx, tenantID, b.PipelineID)
	})

	require.NoError(t, repos.Opportunities.CreateOpportunity(ctx, &domain.Opportunity{
		TenantID: tenantID, ContactID: c.ContactID, PipelineID: a.PipelineID, Stage: "New",
	}))

	deleted, err := repos.Opportunities.ReplaceForContacts(ctx, tenantID, []string{c.ContactID}, []*domain.Opportunity{
		{TenantID: tenantID, ContactID: c.ContactID, PipelineID: b.PipelineID, Stage: "Intro"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	opps, err := repos.Opportunities.ListByContact(ctx, tenantID, c.ContactID)
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, b.PipelineID, opps[0].PipelineID)
	assert.Equal(t, "Intro", opps[0].Stage)
}

func TestIntegration_UpdateStageRefreshesTimestamps(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	tenantID := uuid.NewString()
	repos := NewPostgresRepos(db)

	c := &domain.Contact{TenantID: tenantID, Name: "Stage Contact"}
	require.NoError(t, repos.Contacts.CreateContact(ctx, c))
	t.Cleanup(func() { _ = repos.Contacts.DeleteContact(ctx, tenantID, c.ContactID) })

	p := &domain.Pipeline{TenantID: tenantID, Name: "Sales", Stages: []string{"New", "Qualified"}}
	require.NoError(t, repos.Pipelines.CreatePipeline(ctx, p))
	t.Cleanup(func() { _ = repos.Pipelines.DeletePipeline(ctx, tenantID, p.PipelineID) })

	o := &domain.Opportunity{TenantID: tenantID, ContactID: c.ContactID, PipelineID: p.PipelineID, Stage: "New"}
	require.NoError(t, repos.Opportunities.CreateOpportunity(ctx, o))

	at := time.Now().Add(time.Minute).UTC().Truncate(time.Microsecond)
	got, err := repos.Opportunities.UpdateStage(ctx, tenantID, o.OpportunityID, "Qualified", at)
	require.NoError(t, err)
	assert.Equal(t, "Qualified", got.Stage)
	assert.True(t, got.StageChangedAt.Equal(at))

	_, err = repos.Opportunities.GetOpportunity(ctx, uuid.NewString(), o.OpportunityID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
