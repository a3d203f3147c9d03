//go:build windows

package ossys

import (
	"net/netip"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/davinci26/envoy/internal/netutil"
)

// windows.Accept 只是占位实现
var procAccept = windows.NewLazySystemDLL("ws2_32.dll").NewProc("accept")

type sysCalls struct{}

func (sysCalls) Readv(fd Fd, bufs [][]byte) (int, error) {
	wb := wsaBufs(bufs)
	if len(wb) == 0 {
		return 0, nil
	}
	var n, flags uint32
	if err := windows.WSARecv(fd, &wb[0], uint32(len(wb)), &n, &flags, nil, nil); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (sysCalls) Writev(fd Fd, bufs [][]byte) (int, error) {
	wb := wsaBufs(bufs)
	if len(wb) == 0 {
		return 0, nil
	}
	var n uint32
	if err := windows.WSASend(fd, &wb[0], uint32(len(wb)), &n, 0, nil, nil); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s sysCalls) Sendmsg(fd Fd, bufs [][]byte, to netip.AddrPort) (int, error) {
	if !to.IsValid() {
		return s.Writev(fd, bufs)
	}
	wb := wsaBufs(bufs)
	if len(wb) == 0 {
		return 0, nil
	}
	rsa, rsaLen, err := rawSockaddr(to)
	if err != nil {
		return 0, err
	}
	var n uint32
	if err := windows.WSASendTo(fd, &wb[0], uint32(len(wb)), &n, 0, rsa, rsaLen, nil, nil); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (sysCalls) Recvmsg(fd Fd, bufs [][]byte) (int, netip.AddrPort, error) {
	wb := wsaBufs(bufs)
	if len(wb) == 0 {
		return 0, netip.AddrPort{}, nil
	}
	var (
		n, flags uint32
		rsa      windows.RawSockaddrAny
		rsaLen   = int32(unsafe.Sizeof(rsa))
	)
	if err := windows.WSARecvFrom(fd, &wb[0], uint32(len(wb)), &n, &flags, &rsa, &rsaLen, nil, nil); err != nil {
		return 0, netip.AddrPort{}, err
	}
	var from netip.AddrPort
	if sa, err := rsa.Sockaddr(); err == nil {
		from = addrPort(sa)
	}
	return int(n), from, nil
}

func (sysCalls) Bind(fd Fd, addr netip.AddrPort) error {
	sa, err := sockaddr(addr)
	if err != nil {
		return err
	}
	return windows.Bind(fd, sa)
}

func (sysCalls) Connect(fd Fd, addr netip.AddrPort) error {
	sa, err := sockaddr(addr)
	if err != nil {
		return err
	}
	return windows.Connect(fd, sa)
}

func (sysCalls) Listen(fd Fd, backlog int) error {
	return windows.Listen(fd, backlog)
}

func (sysCalls) Accept(fd Fd) (Fd, netip.AddrPort, error) {
	var (
		rsa    windows.RawSockaddrAny
		rsaLen = int32(unsafe.Sizeof(rsa))
	)
	r, _, err := procAccept.Call(uintptr(fd), uintptr(unsafe.Pointer(&rsa)), uintptr(unsafe.Pointer(&rsaLen)))
	nfd := Fd(r)
	if nfd == InvalidFd {
		return InvalidFd, netip.AddrPort{}, err
	}
	if err := netutil.Prepare(nfd); err != nil {
		windows.Closesocket(nfd)
		return InvalidFd, netip.AddrPort{}, err
	}
	var from netip.AddrPort
	if sa, err := rsa.Sockaddr(); err == nil {
		from = addrPort(sa)
	}
	return nfd, from, nil
}

func (sysCalls) LocalAddr(fd Fd) (netip.AddrPort, error) {
	sa, err := windows.Getsockname(fd)
	if err != nil {
		return netip.AddrPort{}, err
	}
	return addrPort(sa), nil
}

func (sysCalls) SetNonblock(fd Fd, nonblock bool) error {
	return netutil.SetNonblock(fd, nonblock)
}

// TCPInfo 在 windows 上不可用
func (sysCalls) TCPInfo(fd Fd) (TCPInfo, error) {
	return TCPInfo{}, windows.WSAEOPNOTSUPP
}

func (sysCalls) Close(fd Fd) error {
	return windows.Closesocket(fd)
}

// Socket 创建非阻塞 socket，network 取值与 net 包一致：tcp4/tcp6/udp4/udp6
func Socket(network string) (Fd, error) {
	var domain, typ, proto int
	switch network {
	case "tcp4":
		domain, typ, proto = windows.AF_INET, windows.SOCK_STREAM, windows.IPPROTO_TCP
	case "tcp6":
		domain, typ, proto = windows.AF_INET6, windows.SOCK_STREAM, windows.IPPROTO_TCP
	case "udp4":
		domain, typ, proto = windows.AF_INET, windows.SOCK_DGRAM, windows.IPPROTO_UDP
	case "udp6":
		domain, typ, proto = windows.AF_INET6, windows.SOCK_DGRAM, windows.IPPROTO_UDP
	default:
		return InvalidFd, ErrUnsupportedNetwork
	}
	fd, err := windows.Socket(domain, typ, proto)
	if err != nil {
		return InvalidFd, err
	}
	if err := netutil.Prepare(fd); err != nil {
		windows.Closesocket(fd)
		return InvalidFd, err
	}
	return fd, nil
}

// SocketPair 以两个互相 connect 的回环 UDP socket 模拟 socketpair
func SocketPair() ([2]Fd, error) {
	fds := [2]Fd{InvalidFd, InvalidFd}
	fail := func(err error) ([2]Fd, error) {
		for _, fd := range fds {
			if fd != InvalidFd {
				windows.Closesocket(fd)
			}
		}
		return [2]Fd{InvalidFd, InvalidFd}, err
	}
	var addrs [2]windows.Sockaddr
	for i := range fds {
		fd, err := Socket("udp4")
		if err != nil {
			return fail(err)
		}
		fds[i] = fd
		if err := windows.Bind(fd, &windows.SockaddrInet4{Addr: [4]byte{127, 0, 0, 1}}); err != nil {
			return fail(err)
		}
		if addrs[i], err = windows.Getsockname(fd); err != nil {
			return fail(err)
		}
	}
	if err := windows.Connect(fds[0], addrs[1]); err != nil {
		return fail(err)
	}
	if err := windows.Connect(fds[1], addrs[0]); err != nil {
		return fail(err)
	}
	return fds, nil
}

func wsaBufs(bufs [][]byte) []windows.WSABuf {
	out := make([]windows.WSABuf, 0, len(bufs))
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		out = append(out, windows.WSABuf{Len: uint32(len(b)), Buf: &b[0]})
	}
	return out
}

func sockaddr(ap netip.AddrPort) (windows.Sockaddr, error) {
	addr := ap.Addr()
	switch {
	case addr.Is4():
		return &windows.SockaddrInet4{Port: int(ap.Port()), Addr: addr.As4()}, nil
	case addr.Is6():
		return &windows.SockaddrInet6{Port: int(ap.Port()), Addr: addr.As16()}, nil
	}
	return nil, ErrUnsupportedAddress
}

func rawSockaddr(ap netip.AddrPort) (*windows.RawSockaddrAny, int32, error) {
	var rsa windows.RawSockaddrAny
	addr, port := ap.Addr(), ap.Port()
	switch {
	case addr.Is4():
		sa := (*windows.RawSockaddrInet4)(unsafe.Pointer(&rsa))
		sa.Family = windows.AF_INET
		p := (*[2]byte)(unsafe.Pointer(&sa.Port))
		p[0], p[1] = byte(port>>8), byte(port)
		sa.Addr = addr.As4()
		return &rsa, int32(unsafe.Sizeof(*sa)), nil
	case addr.Is6():
		sa := (*windows.RawSockaddrInet6)(unsafe.Pointer(&rsa))
		sa.Family = windows.AF_INET6
		p := (*[2]byte)(unsafe.Pointer(&sa.Port))
		p[0], p[1] = byte(port>>8), byte(port)
		sa.Addr = addr.As16()
		return &rsa, int32(unsafe.Sizeof(*sa)), nil
	}
	return nil, 0, ErrUnsupportedAddress
}

func addrPort(sa windows.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *windows.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *windows.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(sa.Addr), uint16(sa.Port))
	}
	return netip.AddrPort{}
}
