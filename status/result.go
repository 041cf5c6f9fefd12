package status

// Result 携带类型化负载的结果，只在成功路径上设置负载
type Result[T any] struct {
	*SuccessOrErrors
	result    T
	hasResult bool
}

// NewResult 创建空的有效类型化结果
func NewResult[T any]() *Result[T] {
	return &Result[T]{SuccessOrErrors: New()}
}

// Failed 把无效的非类型化结果转换为类型化结果，错误原样保留
func Failed[T any](s *SuccessOrErrors) *Result[T] {
	return &Result[T]{SuccessOrErrors: New().Combine(s)}
}

// ResultFrom 以 s 的状态构造类型化结果；s 有效时携带 value
func ResultFrom[T any](s *SuccessOrErrors, value T) *Result[T] {
	r := &Result[T]{SuccessOrErrors: s}
	if s.IsValid() {
		r.result = value
		r.hasResult = true
	}
	return r
}

// SetResult 设置负载；无效结果上调用会 panic
func (r *Result[T]) SetResult(value T) *Result[T] {
	if !r.IsValid() {
		panic("status: cannot set a result on an invalid result: " + r.ErrorsAsString())
	}
	r.result = value
	r.hasResult = true
	return r
}

// Result 返回负载，未设置时为零值
func (r *Result[T]) Result() T { return r.result }

// HasResult 是否设置了负载
func (r *Result[T]) HasResult() bool { return r.hasResult && r.IsValid() }

// Status 返回不带负载的结果部分
func (r *Result[T]) Status() *SuccessOrErrors { return r.SuccessOrErrors }
