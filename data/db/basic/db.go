package basic

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	core "gensvc/data/db"
	"gensvc/data/db/dialect"
)

// DB 基于 database/sql 的 core.IDatabase 实现
type DB struct {
	db      *sql.DB
	driver  string
	dialect dialect.Dialect
}

// New 根据 core.DBConfig 打开数据库。
// 驱动需由调用方空导入注册（例如 `_ "modernc.org/sqlite"`）。
func New(config core.DBConfig) (*DB, error) {
	driver := config.Driver
	if driver == "" {
		driver = "sqlite"
	}

	sqlDB, err := sql.Open(driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("basic.New: open %s: %w", driver, err)
	}

	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(config.ConnMaxLifetime) * time.Second)
	}
	if config.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(config.ConnMaxIdleTime) * time.Second)
	}

	timeout := 3 * time.Second
	if config.PingTimeout > 0 {
		timeout = time.Duration(config.PingTimeout) * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("basic.New: ping %s: %w", driver, err)
	}

	return &DB{db: sqlDB, driver: driver, dialect: dialect.New(driver)}, nil
}

func (d *DB) Query(ctx context.Context, query string, args ...any) (core.IRows, error) {
	rows, err := d.db.QueryContext(ctx, d.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows}, nil
}

func (d *DB) QueryRow(ctx context.Context, query string, args ...any) core.IRow {
	return d.db.QueryRowContext(ctx, d.dialect.Rebind(query), args...)
}

func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, d.dialect.Rebind(query), args...)
}

func (d *DB) Begin(ctx context.Context) (core.ITransaction, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{db: d.db, tx: tx, dialect: d.dialect}, nil
}

func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }
func (d *DB) Close() error                   { return d.db.Close() }

// GetDialectName 实现 core.IDialectNameProvider
func (d *DB) GetDialectName() string { return d.driver }

// ExecDDL 执行建表等 DDL 语句（测试与示例使用）
func (d *DB) ExecDDL(ctx context.Context, statements ...string) error {
	for _, stmt := range statements {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("basic.ExecDDL: %w", err)
		}
	}
	return nil
}
