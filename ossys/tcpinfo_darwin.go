package ossys

import (
	"time"

	"golang.org/x/sys/unix"
)

func tcpInfo(fd Fd) (TCPInfo, error) {
	info, err := unix.GetsockoptTCPConnectionInfo(fd, unix.IPPROTO_TCP, unix.TCP_CONNECTION_INFO)
	if err != nil {
		return TCPInfo{}, err
	}
	// tcpi_srtt 单位为毫秒
	return TCPInfo{RTT: time.Duration(info.Srtt) * time.Millisecond}, nil
}
