// Package dialect 描述 SQL 方言差异：占位符、标识符转义与错误识别。
package dialect

import (
	"strconv"
	"strings"

	core "gensvc/data/db"
)

// Name 标准化的数据库方言名称
type Name string

const (
	NameMySQL    Name = "mysql"
	NameSQLite   Name = "sqlite"
	NamePostgres Name = "postgres"
	NameUnknown  Name = ""
)

// Dialect 当前数据库的方言能力
type Dialect struct {
	name Name
}

// New 根据驱动名构造方言（大小写不敏感）
func New(name string) Dialect {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return Dialect{name: NameMySQL}
	case "sqlite", "sqlite3":
		return Dialect{name: NameSQLite}
	case "postgres", "postgresql", "pgx":
		return Dialect{name: NamePostgres}
	default:
		return Dialect{name: NameUnknown}
	}
}

// FromDatabase 从 IDatabase 推断方言，未实现 IDialectNameProvider 时为 Unknown
func FromDatabase(db core.IDatabase) Dialect {
	if p, ok := db.(core.IDialectNameProvider); ok {
		return New(p.GetDialectName())
	}
	return Dialect{name: NameUnknown}
}

func (d Dialect) Name() Name { return d.name }

// QuoteIdentifier 按方言转义标识符，table.column 形式逐段处理。
// 只负责加引号，不校验语法。
func (d Dialect) QuoteIdentifier(name string) string {
	if name == "" {
		return ""
	}
	var open, close string
	switch d.name {
	case NameMySQL:
		open, close = "`", "`"
	case NameSQLite, NamePostgres:
		open, close = `"`, `"`
	default:
		return name
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p != "" {
			parts[i] = open + p + close
		}
	}
	return strings.Join(parts, ".")
}

// Rebind 将 ? 占位符转换为方言形式，目前只有 Postgres 需要 ($1, $2 ...)。
// 简单字符扫描：字符串字面量中的 ? 也会被替换，SQL 中的值一律走参数。
func (d Dialect) Rebind(query string) string {
	if d.name != NamePostgres || !strings.Contains(query, "?") {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			n++
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

// SupportsDeleteLimit 是否支持 DELETE ... LIMIT
func (d Dialect) SupportsDeleteLimit() bool {
	return d.name == NameMySQL
}

// IsUniqueViolation 通过错误文本识别唯一键/主键冲突
//
//   - MySQL: "Duplicate entry" (1062)
//   - SQLite: "UNIQUE constraint failed"
//   - Postgres: "duplicate key value violates unique constraint" (23505)
func (d Dialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch d.name {
	case NameMySQL:
		return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "duplicate key")
	case NameSQLite:
		return strings.Contains(msg, "unique constraint failed") ||
			strings.Contains(msg, "primary key must be unique")
	default:
		return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
	}
}
