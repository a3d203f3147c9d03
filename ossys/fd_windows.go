//go:build windows

package ossys

import "golang.org/x/sys/windows"

// Fd 为平台 socket 句柄
type Fd = windows.Handle

const InvalidFd Fd = windows.InvalidHandle
