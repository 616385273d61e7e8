package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/exchange"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
)

const importCSV = "Full Name,E-mail,Company,Mobile,Lead Score\n" +
	"Ann Lee,ann@example.com,Acme,555-0100,Hot\n" +
	",nobody@example.com,Nowhere,,\n" +
	"\"Bob \"\"B\"\" Ray\",bob@example.com,\"Ray, Inc\",555-0101,\n"

func TestImport_PreviewThenCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	preview, err := f.contactSvc.PreviewImport(ctx, tenant, "leads.csv", []byte(importCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, preview.Total)
	assert.Equal(t, exchange.Mapping{"name", "email", "business_name", "phone", "lead_score"}, preview.Mapping)
	assert.Len(t, preview.Sample, 3)

	// 用户把 Company 列改成忽略
	mapping := append(exchange.Mapping{}, preview.Mapping...)
	mapping[2] = ""
	res, err := f.contactSvc.CommitImport(ctx, tenant, preview.ImportID, mapping)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Skipped)

	list, err := f.contactSvc.ListContacts(ctx, ListContactsRequest{TenantID: tenant, Search: "Ray"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, `Bob "B" Ray`, list.Items[0].Name)
	assert.Empty(t, list.Items[0].BusinessName)
	assert.Equal(t, "csv", list.Items[0].Source)

	// 预览只能提交一次
	_, err = f.contactSvc.CommitImport(ctx, tenant, preview.ImportID, mapping)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImport_NameMustBeMapped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	preview, err := f.contactSvc.PreviewImport(ctx, tenant, "leads.csv", []byte(importCSV))
	require.NoError(t, err)
	mapping := append(exchange.Mapping{}, preview.Mapping...)
	mapping[0] = ""

	_, err = f.contactSvc.CommitImport(ctx, tenant, preview.ImportID, mapping)
	assert.ErrorIs(t, err, domain.ErrNameNotMapped)

	// 映射错误不消耗预览，改正后可以提交
	res, err := f.contactSvc.CommitImport(ctx, tenant, preview.ImportID, preview.Mapping)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
}

func TestImport_ConcurrentCommitImportsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	preview, err := f.contactSvc.PreviewImport(ctx, tenant, "leads.csv", []byte(importCSV))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.contactSvc.CommitImport(ctx, tenant, preview.ImportID, nil)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, 1, ok)

	list, err := f.contactSvc.ListContacts(ctx, ListContactsRequest{TenantID: tenant})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
}

type failingBulkContacts struct {
	repository.ContactsRepository
}

func (failingBulkContacts) BulkCreateContacts(context.Context, string, []*domain.Contact) (int, error) {
	return 0, errors.New("connection reset")
}

func TestImport_InsertFailureKeepsPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	broken := NewContactService(ContactRepos{
		Contacts:      failingBulkContacts{f.contacts},
		Activities:    repository.NewMemoryActivitiesRepo(f.contacts),
		Appointments:  f.apptsRepo,
		Opportunities: f.oppsRepo,
		Tags:          repository.NewMemoryTagsRepo(),
	}, f.kv, f.events, time.Minute, zap.NewNop())

	preview, err := broken.PreviewImport(ctx, tenant, "leads.csv", []byte(importCSV))
	require.NoError(t, err)
	_, err = broken.CommitImport(ctx, tenant, preview.ImportID, nil)
	require.Error(t, err)

	// 同一份预览可由正常的服务提交
	res, err := f.contactSvc.CommitImport(ctx, tenant, preview.ImportID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
}

func TestImport_PreviewExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.contactSvc.previewTTL = time.Millisecond

	preview, err := f.contactSvc.PreviewImport(ctx, tenant, "leads.csv", []byte(importCSV))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = f.contactSvc.CommitImport(ctx, tenant, preview.ImportID, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExportThenImport_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.contactSvc.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }

	_, err := f.contactSvc.CreateContact(ctx, tenant, ContactFields{
		Name: `Dana "D" Fox`, Email: "dana@example.com", Phone: "555-0199", BusinessName: "Fox, Ltd",
	})
	require.NoError(t, err)

	for _, format := range []string{FormatCSV, FormatXLSX} {
		file, err := f.contactSvc.ExportContacts(ctx, tenant, format, repository.ContactsFilter{})
		require.NoError(t, err)
		assert.Equal(t, "contacts-2024-03-09."+format, file.Filename)
		assert.Equal(t, 1, file.Count)

		other := newFixture(t)
		res, err := other.contactSvc.ImportFile(ctx, tenant, file.Filename, file.Data)
		require.NoError(t, err, format)
		assert.Equal(t, 1, res.Imported, format)

		list, err := other.contactSvc.ListContacts(ctx, ListContactsRequest{TenantID: tenant})
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		got := list.Items[0]
		assert.Equal(t, `Dana "D" Fox`, got.Name, format)
		assert.Equal(t, "dana@example.com", got.Email, format)
		assert.Equal(t, "555-0199", got.Phone, format)
		assert.Equal(t, "Fox, Ltd", got.BusinessName, format)
	}

	_, err = f.contactSvc.ExportContacts(ctx, tenant, "pdf", repository.ContactsFilter{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
