// Package db 定义持久化上下文使用的最小数据库抽象。
//
// ormctx 只通过这里的接口访问数据库，具体驱动（sqlite 等）由调用方空导入注册。
package db

import (
	"context"
	"database/sql"
)

// IDatabase 通用数据库接口
type IDatabase interface {
	Query(ctx context.Context, query string, args ...any) (IRows, error)
	QueryRow(ctx context.Context, query string, args ...any) IRow
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)

	// Begin 开启事务；事务对象本身也是 IDatabase，可直接交给 SQL 构建器
	Begin(ctx context.Context) (ITransaction, error)

	Ping(ctx context.Context) error
	Close() error
}

// IDialectNameProvider 可选接口：返回底层驱动名（sqlite、mysql、postgres）
type IDialectNameProvider interface {
	GetDialectName() string
}

// ITransaction 事务接口
type ITransaction interface {
	IDatabase

	Commit() error
	Rollback() error
}

// IRows 查询结果集接口
type IRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
	Columns() ([]string, error)
}

// IRow 单行结果接口
type IRow interface {
	Scan(dest ...any) error
}

// DBConfig 数据库配置
type DBConfig struct {
	Driver string // sqlite, mysql, postgres
	// DSN 直接传给 sql.Open；sqlite 下可为文件路径或 ":memory:"
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒

	// PingTimeout 打开连接后的可用性检查超时（秒），默认 3
	PingTimeout int
}

// DefaultSQLiteConfig 返回内存 sqlite 配置。
// 内存库按连接隔离，因此固定为单连接。
func DefaultSQLiteConfig() DBConfig {
	return DBConfig{
		Driver:       "sqlite",
		DSN:          ":memory:",
		MaxOpenConns: 1,
	}
}
