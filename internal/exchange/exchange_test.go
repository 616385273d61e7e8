package exchange

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

func sampleContacts() []*domain.Contact {
	created := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	return []*domain.Contact{
		{
			Name: `Ann "The Closer" Lee`, Email: "ann@example.com", Phone: "+1 555 0100",
			BusinessName: "Lee, Lee & Partners", Owner: "sam", LeadScore: "hot",
			Source: "referral", LinkedIn: "https://linkedin.com/in/annlee", CreatedAt: created,
		},
		{Name: "Bob", Email: "", Phone: "555-0101", BusinessName: "Bob's Bikes", CreatedAt: created},
	}
}

func TestWriteCSV_QuotesEverything(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleContacts()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"Name","Email","Phone","Business","Owner","Lead Score","Source","LinkedIn","Created"`, lines[0])
	assert.Equal(t,
		`"Ann ""The Closer"" Lee","ann@example.com","+1 555 0100","Lee, Lee & Partners","sam","hot","referral","https://linkedin.com/in/annlee","2024-05-20"`,
		lines[1])
	assert.Equal(t, `"Bob","","555-0101","Bob's Bikes","","","","","2024-05-20"`, lines[2])
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 1, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "contacts-2024-01-09.csv", ExportFilename("csv", now))
	assert.Equal(t, "contacts-2024-01-09.xlsx", ExportFilename("xlsx", now))
}

func TestAutoMap(t *testing.T) {
	m := AutoMap([]string{"Full Name", "E-mail Address", "Mobile", "Company Name", "Lead Score", "LinkedIn URL", "Created", "Notes"})
	assert.Equal(t, Mapping{FieldName, FieldEmail, FieldPhone, FieldBusinessName, FieldLeadScore, FieldLinkedIn, "", FieldNotes}, m)

	// 同一字段只映射第一次命中的列
	m = AutoMap([]string{"Work Phone", "Home Phone", "Name"})
	assert.Equal(t, Mapping{FieldPhone, "", FieldName}, m)
}

func TestAutoMap_TelIsWholeWord(t *testing.T) {
	m := AutoMap([]string{"Hotel", "Contact", "Tel."})
	assert.Equal(t, Mapping{"", "", FieldPhone}, m)

	m = AutoMap([]string{"Hotel Name", "Telephone"})
	assert.Equal(t, Mapping{FieldName, FieldPhone}, m)

	m = AutoMap([]string{"Tel #", "Motel"})
	assert.Equal(t, Mapping{FieldPhone, ""}, m)
}

func TestMappingValidate(t *testing.T) {
	assert.ErrorIs(t, Mapping{FieldEmail, ""}.Validate(2), domain.ErrNameNotMapped)
	assert.ErrorIs(t, Mapping{FieldName, "fax"}.Validate(2), domain.ErrValidation)
	assert.ErrorIs(t, Mapping{FieldName, FieldName}.Validate(2), domain.ErrValidation)
	assert.ErrorIs(t, Mapping{FieldName, "", ""}.Validate(2), domain.ErrValidation)
	assert.NoError(t, Mapping{"", FieldName}.Validate(3))
}

func TestParseCSV_QuotedFields(t *testing.T) {
	input := "\ufeffName,Email,Business\n" +
		`"Lee, Ann","ann@example.com","Say ""hi"" Inc"` + "\n" +
		"\n" +
		",,\n" +
		"Short\n"
	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Email", "Business"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Lee, Ann", "ann@example.com", `Say "hi" Inc`}, table.Rows[0])
	assert.Equal(t, []string{"Short"}, table.Rows[1])
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBuildContacts_SkipsEmptyNames(t *testing.T) {
	table := &Table{
		Headers: []string{"Name", "Email", "Score"},
		Rows: [][]string{
			{"Ann", "ann@example.com", "HOT"},
			{"  ", "ghost@example.com", "warm"},
			{"Bob"},
			{"Cara", "", "lukewarm"},
		},
	}
	contacts, skipped, err := BuildContacts(table, AutoMap(table.Headers), "t-1")
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, contacts, 3)
	assert.Equal(t, "hot", contacts[0].LeadScore)
	assert.Equal(t, "t-1", contacts[0].TenantID)
	assert.Equal(t, "csv", contacts[0].Source)
	assert.Equal(t, "Bob", contacts[1].Name)
	assert.Empty(t, contacts[2].LeadScore)
}

func TestBuildContacts_RequiresName(t *testing.T) {
	table := &Table{Headers: []string{"Email"}, Rows: [][]string{{"a@example.com"}}}
	_, _, err := BuildContacts(table, AutoMap(table.Headers), "t-1")
	assert.ErrorIs(t, err, domain.ErrNameNotMapped)
}

func TestCSVRoundTrip(t *testing.T) {
	original := sampleContacts()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, original))

	table, err := Parse("contacts-2024-05-20.csv", buf.Bytes())
	require.NoError(t, err)
	mapping := AutoMap(table.Headers)
	contacts, skipped, err := BuildContacts(table, mapping, "t-1")
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, contacts, len(original))

	for i := range original {
		assert.Equal(t, original[i].Name, contacts[i].Name)
		assert.Equal(t, original[i].Email, contacts[i].Email)
		assert.Equal(t, original[i].Phone, contacts[i].Phone)
		assert.Equal(t, original[i].BusinessName, contacts[i].BusinessName)
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	original := sampleContacts()
	data, err := WriteXLSX(original)
	require.NoError(t, err)

	table, err := Parse("contacts.XLSX", data)
	require.NoError(t, err)
	assert.Equal(t, ExportHeader, table.Headers)

	contacts, _, err := BuildContacts(table, AutoMap(table.Headers), "t-1")
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, original[0].Name, contacts[0].Name)
	assert.Equal(t, original[0].BusinessName, contacts[0].BusinessName)
	assert.Equal(t, "hot", contacts[0].LeadScore)
	assert.Equal(t, "Bob's Bikes", contacts[1].BusinessName)
}
