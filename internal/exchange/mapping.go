// Package exchange 联系人 CSV / XLSX 导入导出
package exchange

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// 可映射的联系人字段
const (
	FieldName         = "name"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldBusinessName = "business_name"
	FieldOwner        = "owner"
	FieldLeadScore    = "lead_score"
	FieldSource       = "source"
	FieldLinkedIn     = "linkedin"
	FieldNotes        = "notes"
)

// Fields 全部可映射字段（前端下拉框顺序）
var Fields = []string{
	FieldName, FieldEmail, FieldPhone, FieldBusinessName, FieldOwner,
	FieldLeadScore, FieldSource, FieldLinkedIn, FieldNotes,
}

// Mapping 与表头按列对齐，值为字段名，空串表示忽略该列
type Mapping []string

// 关键字按顺序匹配：business/company 必须先于 name，否则 "Business Name" 会被映射成 name
// words 只按整词匹配，避免 "Hotel" 命中 "tel"
var headerKeywords = []struct {
	field    string
	keywords []string
	words    []string
}{
	{FieldBusinessName, []string{"business", "company"}, nil},
	{FieldLinkedIn, []string{"linkedin"}, nil},
	{FieldEmail, []string{"email", "e-mail"}, nil},
	{FieldPhone, []string{"phone", "mobile"}, []string{"tel"}},
	{FieldOwner, []string{"owner"}, nil},
	{FieldLeadScore, []string{"score"}, nil},
	{FieldSource, []string{"source"}, nil},
	{FieldNotes, []string{"note"}, nil},
	{FieldName, []string{"name"}, nil},
}

// AutoMap 按表头关键字猜测映射；每个字段只映射给第一个命中的列
func AutoMap(headers []string) Mapping {
	m := make(Mapping, len(headers))
	used := map[string]bool{}
	for i, h := range headers {
		lower := strings.ToLower(strings.TrimSpace(h))
		if lower == "" {
			continue
		}
		tokens := strings.FieldsFunc(lower, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, hk := range headerKeywords {
			if !matchesHeader(lower, tokens, hk.keywords, hk.words) {
				continue
			}
			if !used[hk.field] {
				m[i] = hk.field
				used[hk.field] = true
			}
			break
		}
	}
	return m
}

func matchesHeader(lower string, tokens, keywords, words []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, w := range words {
		for _, tok := range tokens {
			if tok == w {
				return true
			}
		}
	}
	return false
}

func isField(f string) bool {
	for _, known := range Fields {
		if known == f {
			return true
		}
	}
	return false
}

// Validate name 必须映射；字段名必须合法且不能重复
func (m Mapping) Validate(columns int) error {
	if len(m) > columns {
		return fmt.Errorf("%w: mapping has %d columns, file has %d", domain.ErrValidation, len(m), columns)
	}
	seen := map[string]bool{}
	for i, f := range m {
		if f == "" {
			continue
		}
		if !isField(f) {
			return fmt.Errorf("%w: unknown field %q for column %d", domain.ErrValidation, f, i+1)
		}
		if seen[f] {
			return fmt.Errorf("%w: field %q mapped more than once", domain.ErrValidation, f)
		}
		seen[f] = true
	}
	if !seen[FieldName] {
		return domain.ErrNameNotMapped
	}
	return nil
}

// BuildContacts 按映射把行转成联系人，name 为空的行跳过
// 非法的 lead_score 分类按未分类处理
func BuildContacts(t *Table, m Mapping, tenantID string) (contacts []*domain.Contact, skipped int, err error) {
	if err := m.Validate(len(t.Headers)); err != nil {
		return nil, 0, err
	}
	for _, row := range t.Rows {
		c := &domain.Contact{TenantID: tenantID}
		for i, f := range m {
			if f == "" || i >= len(row) {
				continue
			}
			setField(c, f, strings.TrimSpace(row[i]))
		}
		if c.Name == "" {
			skipped++
			continue
		}
		if c.Source == "" {
			c.Source = "csv"
		}
		contacts = append(contacts, c)
	}
	return contacts, skipped, nil
}

func setField(c *domain.Contact, field, v string) {
	switch field {
	case FieldName:
		c.Name = v
	case FieldEmail:
		c.Email = v
	case FieldPhone:
		c.Phone = v
	case FieldBusinessName:
		c.BusinessName = v
	case FieldOwner:
		c.Owner = v
	case FieldLeadScore:
		v = strings.ToLower(v)
		if domain.IsValidLeadCategory(v) {
			c.LeadScore = v
		}
	case FieldSource:
		c.Source = v
	case FieldLinkedIn:
		c.LinkedIn = v
	case FieldNotes:
		c.Notes = v
	}
}
