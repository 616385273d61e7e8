// Package repository 数据访问层：每张表一个接口，Postgres 实现 + 内存实现（DB 未启用时联调用）
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// rowScanner 同时适配 *sql.Row 和 *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// notFound 把 sql.ErrNoRows 统一转成 domain.ErrNotFound
func notFound(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}
	return err
}

// requireAffected 用于 UPDATE/DELETE：0 行视为不存在
func requireAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}

// uniqueViolation 判断是否为唯一约束冲突（SQLSTATE 23505）
func uniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// nullString 空字符串写成 NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

// whereBuilder 拼接 WHERE 条件，占位符自动编号
type whereBuilder struct {
	conds []string
	args  []any
}

func newWhere(cond string, arg any) *whereBuilder {
	return &whereBuilder{conds: []string{cond}, args: []any{arg}}
}

// add cond 中的 ? 都替换成同一个占位符
func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereBuilder) String() string {
	return strings.Join(w.conds, " AND ")
}

// normalizePage size <= 0 表示不分页
func normalizePage(page, size int) (limit, offset int) {
	if size <= 0 {
		return 0, 0
	}
	if page < 1 {
		page = 1
	}
	return size, (page - 1) * size
}
