// Package core 定义服务层共用的基础类型：能力标志、解析期望、过滤条件与配置错误。
package core

import "strings"

// ServiceFunctions DTO 声明的可支持操作集合，不可变值类型
type ServiceFunctions uint16

const (
	FuncNone   ServiceFunctions = 0
	FuncCreate ServiceFunctions = 1 << iota
	FuncUpdate
	FuncDelete
	FuncReadList
	FuncReadSingle
	// FuncDoesNotNeedSetup 表示 DTO 没有需要准备的辅助数据，跳过 SetupSecondaryData
	FuncDoesNotNeedSetup
)

const (
	FuncAllCrud          = FuncCreate | FuncUpdate | FuncDelete | FuncReadList | FuncReadSingle
	FuncAllCrudButCreate = FuncAllCrud &^ FuncCreate
	FuncAllCrudButList   = FuncAllCrud &^ FuncReadList
)

var functionNames = []struct {
	f    ServiceFunctions
	name string
}{
	{FuncCreate, "Create"},
	{FuncUpdate, "Update"},
	{FuncDelete, "Delete"},
	{FuncReadList, "ReadList"},
	{FuncReadSingle, "ReadSingle"},
	{FuncDoesNotNeedSetup, "DoesNotNeedSetup"},
}

// NewServiceFunctions 合并多个标志
func NewServiceFunctions(fs ...ServiceFunctions) ServiceFunctions {
	var out ServiceFunctions
	for _, f := range fs {
		out |= f
	}
	return out
}

// Supports 是否包含 f 中的全部标志；FuncNone 恒为 true
func (s ServiceFunctions) Supports(f ServiceFunctions) bool { return s&f == f }

// With 返回加入 f 后的新集合
func (s ServiceFunctions) With(f ServiceFunctions) ServiceFunctions { return s | f }

// Without 返回去掉 f 后的新集合
func (s ServiceFunctions) Without(f ServiceFunctions) ServiceFunctions { return s &^ f }

// NeedsSetup 未声明 DoesNotNeedSetup 时需要调用 SetupSecondaryData
func (s ServiceFunctions) NeedsSetup() bool { return !s.Supports(FuncDoesNotNeedSetup) }

func (s ServiceFunctions) String() string {
	if s == FuncNone {
		return "None"
	}
	var names []string
	for _, fn := range functionNames {
		if s.Supports(fn.f) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}
