//go:build linux || darwin

package netutil

import (
	"golang.org/x/sys/unix"
)

func SetNonblock(fd int, nonblock bool) error {
	return unix.SetNonblock(fd, nonblock)
}

func SetReuseAddr(fd int, enable bool) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, boolInt(enable))
}

func SetNoDelay(fd int, enable bool) error {
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, boolInt(enable))
}

// SetCloseOnExec 防止 fd 泄漏到子进程
func SetCloseOnExec(fd int) {
	unix.CloseOnExec(fd)
}

// Prepare 将新建的 socket 设置为非阻塞 + close-on-exec
func Prepare(fd int) error {
	SetCloseOnExec(fd)
	return SetNonblock(fd, true)
}
