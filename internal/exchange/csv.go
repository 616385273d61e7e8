package exchange

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// ExportHeader 导出列顺序固定
var ExportHeader = []string{"Name", "Email", "Phone", "Business", "Owner", "Lead Score", "Source", "LinkedIn", "Created"}

// Table 解析后的文件内容：第一行为表头
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

var errEmptyFile = errors.New("file has no header row")

// ExportFilename contacts-<yyyy-MM-dd>.<ext>
func ExportFilename(ext string, now time.Time) string {
	return fmt.Sprintf("contacts-%s.%s", now.Format("2006-01-02"), ext)
}

func exportRow(c *domain.Contact) []string {
	return []string{
		c.Name,
		c.Email,
		c.Phone,
		c.BusinessName,
		c.Owner,
		c.LeadScore,
		c.Source,
		c.LinkedIn,
		c.CreatedAt.Format("2006-01-02"),
	}
}

// quote 每个值都加双引号，内部引号加倍
func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// WriteCSV 表头 + 每个联系人一行，所有值都加引号
func WriteCSV(w io.Writer, contacts []*domain.Contact) error {
	writeLine := func(values []string) error {
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = quote(v)
		}
		_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
		return err
	}

	if err := writeLine(ExportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, c := range contacts {
		if err := writeLine(exportRow(c)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	return nil
}

// ParseCSV 引号感知的解析；允许行长度不一致，空行忽略
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return newTable(records)
}

func newTable(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, errEmptyFile)
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return &Table{Headers: headers, Rows: rows}, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Parse 按文件扩展名选择解析器：.xlsx 用 excelize，其余按 CSV
func Parse(filename string, data []byte) (*Table, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return ParseXLSX(bytes.NewReader(data))
	}
	return ParseCSV(bytes.NewReader(data))
}
