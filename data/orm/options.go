package orm

// Condition 等值查询条件，Column 为数据库列名
type Condition struct {
	Column string
	Value  any
}

// OrderBy 排序字段
type OrderBy struct {
	Column string
	Desc   bool
}

// QueryOptions 查询的通用选项
type QueryOptions struct {
	Where   []Condition
	OrderBy []OrderBy
	Limit   int
	Offset  int
}

// QueryOption 用于配置 QueryOptions
type QueryOption func(*QueryOptions)

// WithEquals 追加 column = value 条件，value 为 nil 时为 IS NULL
func WithEquals(column string, value any) QueryOption {
	return func(opts *QueryOptions) {
		if column == "" {
			return
		}
		opts.Where = append(opts.Where, Condition{Column: column, Value: value})
	}
}

// WithOrderBy 追加排序
func WithOrderBy(column string, desc bool) QueryOption {
	return func(opts *QueryOptions) {
		if column == "" {
			return
		}
		opts.OrderBy = append(opts.OrderBy, OrderBy{Column: column, Desc: desc})
	}
}

// WithLimit 设置查询条数上限
func WithLimit(limit int) QueryOption {
	return func(opts *QueryOptions) {
		if limit > 0 {
			opts.Limit = limit
		}
	}
}

// WithOffset 设置查询偏移
func WithOffset(offset int) QueryOption {
	return func(opts *QueryOptions) {
		if offset > 0 {
			opts.Offset = offset
		}
	}
}

// CollectQueryOptions 聚合 QueryOption，方便适配器读取
func CollectQueryOptions(options ...QueryOption) QueryOptions {
	var opts QueryOptions
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	return opts
}
