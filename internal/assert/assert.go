// Package assert 提供不变量检查：Release 始终生效，Debug 仅在调试构建中生效。
// 违反不变量意味着程序缺陷而非运行时条件，因此直接 panic 并带上可诊断的信息。
package assert

import "fmt"

// Failure 是断言失败时 panic 的值
type Failure struct {
	Condition string
	Details   string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("assert failure: %s. Details: %s", f.Condition, f.Details)
}

// Release 在 cond 为 false 时 panic（所有构建）
func Release(cond bool, condition string, format string, args ...any) {
	if cond {
		return
	}
	panic(&Failure{Condition: condition, Details: fmt.Sprintf(format, args...)})
}

// Debug 与 Release 相同，但在 envoy_ndebug 构建中为空操作
func Debug(cond bool, condition string, format string, args ...any) {
	if !Enabled || cond {
		return
	}
	panic(&Failure{Condition: condition, Details: fmt.Sprintf(format, args...)})
}
