package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/exchange"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/store"
)

const (
	importKeyPrefix = "crm:import:"
	previewSample   = 5
)

// 导出格式
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportFile 导出结果
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Count       int
}

// ExportContacts 导出租户全部联系人（filter 与列表页一致）
func (s *ContactService) ExportContacts(ctx context.Context, tenantID, format string, filter repository.ContactsFilter) (*ExportFile, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if format == "" {
		format = FormatCSV
	}

	contacts, _, err := s.contacts.ListContacts(ctx, tenantID, filter, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts for export: %w", err)
	}

	out := &ExportFile{Filename: exchange.ExportFilename(format, s.now()), Count: len(contacts)}
	switch format {
	case FormatCSV:
		var buf bytes.Buffer
		if err := exchange.WriteCSV(&buf, contacts); err != nil {
			return nil, fmt.Errorf("failed to write csv: %w", err)
		}
		out.ContentType = "text/csv; charset=utf-8"
		out.Data = buf.Bytes()
	case FormatXLSX:
		data, err := exchange.WriteXLSX(contacts)
		if err != nil {
			return nil, err
		}
		out.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		out.Data = data
	default:
		return nil, invalid("unsupported export format %q", format)
	}

	s.logger.Info("Contacts exported",
		zap.String("tenant_id", tenantID),
		zap.String("format", format),
		zap.Int("count", out.Count),
	)
	return out, nil
}

// ImportPreview 第一步：解析文件，返回建议映射
type ImportPreview struct {
	ImportID string           `json:"import_id"`
	Headers  []string         `json:"headers"`
	Mapping  exchange.Mapping `json:"mapping"`
	Fields   []string         `json:"fields"`
	Sample   [][]string       `json:"sample"`
	Total    int              `json:"total"`
}

// PreviewImport 解析上传的文件并暂存到 KV，返回 import_id 供 CommitImport 使用
func (s *ContactService) PreviewImport(ctx context.Context, tenantID, filename string, data []byte) (*ImportPreview, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	table, err := exchange.Parse(filename, data)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import table: %w", err)
	}
	importID := uuid.NewString()
	if err := s.kv.Set(ctx, importKey(tenantID, importID), string(raw), s.previewTTL); err != nil {
		return nil, fmt.Errorf("failed to stash import preview: %w", err)
	}

	sample := table.Rows
	if len(sample) > previewSample {
		sample = sample[:previewSample]
	}
	return &ImportPreview{
		ImportID: importID,
		Headers:  table.Headers,
		Mapping:  exchange.AutoMap(table.Headers),
		Fields:   exchange.Fields,
		Sample:   sample,
		Total:    len(table.Rows),
	}, nil
}

// ImportResult 导入结果
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// CommitImport 第二步：按（可能已被用户修改的）映射写入
// mapping 为空时使用自动映射
func (s *ContactService) CommitImport(ctx context.Context, tenantID, importID string, mapping exchange.Mapping) (*ImportResult, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(importID) == "" {
		return nil, invalid("import_id is required")
	}

	key := importKey(tenantID, importID)
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, s.previewErr(importID, err)
	}
	var table exchange.Table
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		return nil, fmt.Errorf("failed to decode import preview: %w", err)
	}
	// 映射错误可以修正后重试，此时预览保留
	contacts, skipped, err := s.buildImport(&table, mapping, tenantID)
	if err != nil {
		return nil, err
	}

	// 认领预览：并发提交同一个 import_id 时只有一个能拿到
	if _, err := s.kv.Take(ctx, key); err != nil {
		return nil, s.previewErr(importID, err)
	}
	res, err := s.insertImport(ctx, tenantID, contacts, skipped)
	if err != nil {
		if rerr := s.kv.Set(ctx, key, raw, s.previewTTL); rerr != nil {
			s.logger.Warn("Failed to restore import preview", zap.String("import_id", importID), zap.Error(rerr))
		}
		return nil, err
	}
	return res, nil
}

func (s *ContactService) previewErr(importID string, err error) error {
	if errors.Is(err, store.ErrMiss) {
		return fmt.Errorf("import %s expired or unknown: %w", importID, domain.ErrNotFound)
	}
	return fmt.Errorf("failed to load import preview: %w", err)
}

// ImportFile 一次性导入（CLI 使用自动映射）
func (s *ContactService) ImportFile(ctx context.Context, tenantID, filename string, data []byte) (*ImportResult, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	table, err := exchange.Parse(filename, data)
	if err != nil {
		return nil, err
	}
	return s.importTable(ctx, tenantID, table, nil)
}

func (s *ContactService) importTable(ctx context.Context, tenantID string, table *exchange.Table, mapping exchange.Mapping) (*ImportResult, error) {
	contacts, skipped, err := s.buildImport(table, mapping, tenantID)
	if err != nil {
		return nil, err
	}
	return s.insertImport(ctx, tenantID, contacts, skipped)
}

// buildImport mapping 为空时使用自动映射
func (s *ContactService) buildImport(table *exchange.Table, mapping exchange.Mapping, tenantID string) ([]*domain.Contact, int, error) {
	if len(mapping) == 0 {
		mapping = exchange.AutoMap(table.Headers)
	}
	return exchange.BuildContacts(table, mapping, tenantID)
}

func (s *ContactService) insertImport(ctx context.Context, tenantID string, contacts []*domain.Contact, skipped int) (*ImportResult, error) {
	res := &ImportResult{Skipped: skipped}
	if len(contacts) > 0 {
		n, err := s.contacts.BulkCreateContacts(ctx, tenantID, contacts)
		if err != nil {
			return nil, fmt.Errorf("failed to import contacts: %w", err)
		}
		res.Imported = n
	}

	s.logger.Info("Contacts imported",
		zap.String("tenant_id", tenantID),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func importKey(tenantID, importID string) string {
	return importKeyPrefix + tenantID + ":" + importID
}
