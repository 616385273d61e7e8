package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/events"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/store"
)

const testTenant = "tenant-cli"

func newTestApp(t *testing.T) (*app, *service.Services) {
	t.Helper()
	svcs := service.NewServices(repository.NewMemoryRepos(), store.NewMemoryKV(), events.Nop{}, time.Minute, zap.NewNop())
	a := &app{
		openServices: func(ctx context.Context) (*service.Services, func(), error) {
			return svcs, func() {}, nil
		},
	}
	return a, svcs
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportThenExport(t *testing.T) {
	a, _ := newTestApp(t)

	path := filepath.Join(t.TempDir(), "leads.csv")
	csvData := "Full Name,E-mail,Company\nAda Lovelace,ada@example.com,Engines Ltd\n,,\n"
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0o644))

	out, err := run(t, a, "contacts", "import", path, "--tenant", testTenant)
	require.NoError(t, err)

	var res service.ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Imported)

	out, err = run(t, a, "contacts", "export", "--tenant", testTenant)
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "ada@example.com")
}

func TestExportToFile(t *testing.T) {
	a, svcs := newTestApp(t)
	_, err := svcs.Contacts.CreateContact(context.Background(), testTenant, service.ContactFields{Name: "Grace Hopper"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "contacts.xlsx")
	_, err = run(t, a, "contacts", "export", "--tenant", testTenant, "--format", "xlsx", "-o", path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := run(t, a, "contacts", "export", "--tenant", testTenant, "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}

func TestScore(t *testing.T) {
	a, svcs := newTestApp(t)
	c, err := svcs.Contacts.CreateContact(context.Background(), testTenant, service.ContactFields{Name: "Alan Turing", LeadScore: "warm"})
	require.NoError(t, err)

	out, err := run(t, a, "score", c.ContactID, "--tenant", testTenant)
	require.NoError(t, err)

	var res service.LeadScoreResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, c.ContactID, res.ContactID)
	assert.Equal(t, "warm", res.Category)
}

func TestScoreRequiresTenant(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := run(t, a, "score", "some-id")
	require.Error(t, err)
}

func TestMigrate(t *testing.T) {
	a, _ := newTestApp(t)
	var got string
	a.migrate = func(ctx context.Context, script string) (int, error) {
		got = script
		return 3, nil
	}

	out, err := run(t, a, "migrate")
	require.NoError(t, err)
	assert.Contains(t, got, "CREATE TABLE IF NOT EXISTS contacts")
	assert.Equal(t, "applied 3 statements\n", out)

	a.migrate = func(ctx context.Context, script string) (int, error) {
		return 0, errors.New("boom")
	}
	_, err = run(t, a, "migrate")
	assert.EqualError(t, err, "boom")
}
