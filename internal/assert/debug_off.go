//go:build envoy_ndebug

package assert

// Enabled 表示 Debug 断言是否生效
const Enabled = false
