// Package netutil 封装 socket 选项设置。
package netutil

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
