// Package migrations 内置建表脚本，服务启动或 crmctl migrate 时执行
package migrations

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/Pristinepartners/pristine-crm-sub000/common/database"
)

//go:embed schema.sql
var schemaSQL string

// Schema 返回内置建表脚本
func Schema() string {
	return schemaSQL
}

// Statements 按分号拆分脚本，去掉空语句和纯注释语句
func Statements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		stmt = stripComments(stmt)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

func stripComments(stmt string) string {
	lines := strings.Split(stmt, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "--") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// Migrate 在一个事务内执行内置脚本（脚本幂等，可重复执行）
func Migrate(ctx context.Context, db *sql.DB) (int, error) {
	return Apply(ctx, db, schemaSQL)
}

// Apply 在一个事务内执行任意脚本，返回执行的语句数
func Apply(ctx context.Context, db *sql.DB, script string) (int, error) {
	stmts := Statements(script)
	err := database.WithTx(ctx, db, func(tx *sql.Tx) error {
		for i, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute statement %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(stmts), nil
}
