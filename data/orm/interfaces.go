package orm

import (
	"context"

	"gensvc/data/db"
)

// IOrm ORM 适配器入口，具体实现以适配器形式注入
type IOrm interface {
	Capabilities() Capabilities
	// Model 返回指定模型的操作入口
	Model(meta *ModelMeta) IModel
	// Begin 开启事务会话
	Begin(ctx context.Context) (IOrmSession, error)
	// Database 返回适配器绑定的通用数据库
	Database() db.IDatabase
}

// IOrmSession 事务会话
type IOrmSession interface {
	IOrm
	Commit() error
	Rollback() error
}

// IModel 模型级别的基础操作。
// dest/entity 均为指向 Meta().Type 的指针（Find 为指向切片的指针）。
type IModel interface {
	Meta() *ModelMeta

	First(ctx context.Context, dest any, opts ...QueryOption) error
	Find(ctx context.Context, dest any, opts ...QueryOption) error
	Count(ctx context.Context, opts ...QueryOption) (int64, error)

	// Create 插入单条记录；自增主键在适配器支持时回填到 entity
	Create(ctx context.Context, entity any) error
	// Save 按主键更新全部非主键列
	Save(ctx context.Context, entity any) error
	// Delete 按主键删除
	Delete(ctx context.Context, entity any) error
}
