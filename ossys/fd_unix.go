//go:build linux || darwin

package ossys

// Fd 为平台 socket 描述符
type Fd = int

const InvalidFd Fd = -1
