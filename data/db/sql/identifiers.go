package sql

import "strings"

// isSafeIdentifier 校验 foo、table.column 形式的 ASCII 标识符：
// 每段非空，首字符为字母或下划线，其余为字母、数字或下划线。
func isSafeIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return false
		}
		for i := 0; i < len(part); i++ {
			ch := part[i]
			letter := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
			digit := ch >= '0' && ch <= '9'
			if !letter && (i == 0 || !digit) {
				return false
			}
		}
	}
	return true
}
