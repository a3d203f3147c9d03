//go:build windows

package netutil

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// x/sys/windows 未导出 ioctlsocket
var (
	modws2_32       = windows.NewLazySystemDLL("ws2_32.dll")
	procIoctlsocket = modws2_32.NewProc("ioctlsocket")
)

const fionbio = 0x8004667e

func SetNonblock(fd windows.Handle, nonblock bool) error {
	arg := uint32(boolInt(nonblock))
	r, _, err := procIoctlsocket.Call(uintptr(fd), uintptr(fionbio), uintptr(unsafe.Pointer(&arg)))
	if r != 0 {
		return err
	}
	return nil
}

func SetReuseAddr(fd windows.Handle, enable bool) error {
	return windows.SetsockoptInt(fd, windows.SOL_SOCKET, windows.SO_REUSEADDR, boolInt(enable))
}

func SetNoDelay(fd windows.Handle, enable bool) error {
	return windows.SetsockoptInt(fd, windows.IPPROTO_TCP, windows.TCP_NODELAY, boolInt(enable))
}

// Prepare 将新建的 socket 设置为非阻塞；winsock 句柄默认不被子进程继承
func Prepare(fd windows.Handle) error {
	return SetNonblock(fd, true)
}
