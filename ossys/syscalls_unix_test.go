//go:build linux || darwin

package ossys_test

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/davinci26/envoy/ossys"
)

func TestSocketPairVectoredIO(t *testing.T) {
	sys := ossys.Default()
	fds, err := ossys.SocketPair()
	require.NoError(t, err)
	defer sys.Close(fds[0])
	defer sys.Close(fds[1])

	n, err := sys.Writev(fds[0], [][]byte{[]byte("hello, "), []byte("world")})
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	a, b := make([]byte, 5), make([]byte, 16)
	n, err = sys.Readv(fds[1], [][]byte{a, b})
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, "hello", string(a))
	assert.Equal(t, ", world", string(b[:7]))

	_, err = sys.Readv(fds[1], [][]byte{b})
	assert.ErrorIs(t, err, unix.EAGAIN)
}

func TestUDPSendmsgRecvmsg(t *testing.T) {
	sys := ossys.Default()
	loopback := netip.MustParseAddrPort("127.0.0.1:0")

	rx, err := ossys.Socket("udp4")
	require.NoError(t, err)
	defer sys.Close(rx)
	require.NoError(t, sys.Bind(rx, loopback))
	rxAddr, err := sys.LocalAddr(rx)
	require.NoError(t, err)
	assert.NotZero(t, rxAddr.Port())

	tx, err := ossys.Socket("udp4")
	require.NoError(t, err)
	defer sys.Close(tx)
	require.NoError(t, sys.Bind(tx, loopback))
	txAddr, err := sys.LocalAddr(tx)
	require.NoError(t, err)

	n, err := sys.Sendmsg(tx, [][]byte{[]byte("ping")}, rxAddr)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	buf := make([]byte, 64)
	require.Eventually(t, func() bool {
		n, from, err := sys.Recvmsg(rx, [][]byte{buf})
		if err != nil {
			return false
		}
		assert.Equal(t, "ping", string(buf[:n]))
		assert.Equal(t, txAddr, from)
		return true
	}, time.Second, 5*time.Millisecond)
}
