//go:build !windows

package service

// TryRunAsService 在非 Windows 平台上总是返回 false，调用方以控制台模式运行
func TryRunAsService(name string, h *Host) (bool, error) {
	return false, nil
}
