package migrations

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements_SkipsCommentsAndBlanks(t *testing.T) {
	script := `
-- header
CREATE TABLE a (id INT);

-- only a comment;
CREATE INDEX idx_a ON a (id);
`
	stmts := Statements(script)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (id INT)", stmts[0])
	assert.Equal(t, "CREATE INDEX idx_a ON a (id)", stmts[1])
}

func TestSchema_CoversAllTables(t *testing.T) {
	schema := Schema()
	for _, table := range []string{
		"contacts", "pipelines", "opportunities", "activities", "appointments", "tasks",
		"tags", "contact_tags", "settings", "clients", "properties", "content_assets",
		"sub_accounts", "automations",
	} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
	for _, stmt := range Statements(schema) {
		assert.False(t, strings.HasPrefix(stmt, "--"), stmt)
	}
}

func TestMigrate_RunsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	stmts := Statements(Schema())
	mock.ExpectBegin()
	for range stmts {
		mock.ExpectExec(".+").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	n, err := Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, len(stmts), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE b").WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	n, err := Apply(context.Background(), db, "CREATE TABLE a (id INT); CREATE TABLE b (;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 2")
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
