package core

import "strings"

// WhatItShouldBe 调用点可接受的类型形态，以及（可选）DTO 必须声明的能力
type WhatItShouldBe struct {
	shapes   shape
	requires ServiceFunctions
}

type shape uint8

const (
	shapeEntity shape = 1 << iota
	shapeDto
)

var (
	// ExpectEntity 只接受实体类型
	ExpectEntity = WhatItShouldBe{shapes: shapeEntity}
	// ExpectDto 只接受 DTO 类型
	ExpectDto = WhatItShouldBe{shapes: shapeDto}
	// ExpectAnything 实体或任意 DTO
	ExpectAnything = WhatItShouldBe{shapes: shapeEntity | shapeDto}
)

// Requiring 返回附加能力要求的副本，DTO 未声明这些能力时解析即失败
func (w WhatItShouldBe) Requiring(fs ServiceFunctions) WhatItShouldBe {
	w.requires |= fs
	return w
}

func (w WhatItShouldBe) AcceptsEntity() bool { return w.shapes&shapeEntity != 0 }
func (w WhatItShouldBe) AcceptsDto() bool    { return w.shapes&shapeDto != 0 }

// Required 返回要求的 DTO 能力
func (w WhatItShouldBe) Required() ServiceFunctions { return w.requires }

func (w WhatItShouldBe) String() string {
	var parts []string
	if w.AcceptsEntity() {
		parts = append(parts, "entity")
	}
	if w.AcceptsDto() {
		parts = append(parts, "dto")
	}
	s := strings.Join(parts, " or ")
	if w.requires != FuncNone {
		s += " supporting " + w.requires.String()
	}
	return s
}
