// Package export 把已加载的数据集写入 SQLite 文件，便于用 SQL 工具查看。
package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-gota/gota/series"
	_ "modernc.org/sqlite"

	"github.com/rushteam/kuairec/core"
	"github.com/rushteam/kuairec/pkg/conv"
)

// ToSQLite 覆盖写入 path：每张表一张同名 SQLite 表，每张表在一个事务内写入。
// 列表列（如 item_categories.feat）以 JSON 文本保存。返回写入的总行数。
func ToSQLite(ctx context.Context, path string, ds *core.Dataset) (int, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, core.WrapDomainError(core.ModuleExport, core.ErrorCodeIOError, "remove "+path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, core.WrapDomainError(core.ModuleExport, core.ErrorCodeIOError, "open "+path, err)
	}
	defer db.Close()

	total := 0
	for _, t := range ds.Tables() {
		if t == nil {
			continue
		}
		n, err := writeTable(ctx, db, t)
		if err != nil {
			return total, core.WrapDomainError(core.ModuleExport, core.ErrorCodeIOError, "write "+string(t.Name), err)
		}
		total += n
	}
	return total, nil
}

// affinity 返回 gota 列类型对应的 SQLite 类型
func affinity(t series.Type) string {
	switch t {
	case series.Int, series.Bool:
		return "INTEGER"
	case series.Float:
		return "REAL"
	default:
		return "TEXT"
	}
}

func writeTable(ctx context.Context, db *sql.DB, t *core.Table) (int, error) {
	frameCols := t.Frame.Names()
	listCols := t.Columns()[len(frameCols):]

	var defs, quoted []string
	for _, name := range frameCols {
		defs = append(defs, fmt.Sprintf("%q %s", name, affinity(t.Frame.Col(name).Type())))
		quoted = append(quoted, fmt.Sprintf("%q", name))
	}
	for _, name := range listCols {
		defs = append(defs, fmt.Sprintf("%q TEXT", name))
		quoted = append(quoted, fmt.Sprintf("%q", name))
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (%s)`, string(t.Name), strings.Join(defs, ","))); err != nil {
		return 0, err
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(quoted)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, string(t.Name), strings.Join(quoted, ","), ph))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	cols := t.Series()
	for row := 0; row < t.Nrow(); row++ {
		args := make([]any, 0, len(quoted))
		for _, s := range cols {
			args = append(args, conv.ElementValue(s.Elem(row)))
		}
		for _, name := range listCols {
			v, _ := t.List(name, row)
			b, err := json.Marshal(v)
			if err != nil {
				return 0, err
			}
			args = append(args, string(b))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("row %d: %w", row, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return t.Nrow(), nil
}
