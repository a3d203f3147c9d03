package ioerr_test

import (
	"errors"
	"fmt"
	"strconv"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	iassert "github.com/davinci26/envoy/internal/assert"
	"github.com/davinci26/envoy/ioerr"
)

func TestAgainIsSingleton(t *testing.T) {
	a := ioerr.Again()
	b := ioerr.Again()
	require.Same(t, a, b)
	assert.Equal(t, ioerr.CodeAgain, a.Code())
	assert.True(t, ioerr.IsAgain(a))
	assert.True(t, a.Temporary())
	assert.NotEmpty(t, a.Details())
}

func TestUnknownCode(t *testing.T) {
	errno := syscall.Errno(123)
	e := ioerr.New(errno)
	assert.Equal(t, ioerr.CodeUnknown, e.Code())
	assert.Equal(t, errno, e.Errno())
	assert.NotEmpty(t, e.Details())
	assert.Contains(t, e.Details(), "123")
	assert.False(t, ioerr.IsAgain(e))
	assert.True(t, errors.Is(e, errno))
}

func TestFromErrorWrapsErrno(t *testing.T) {
	wrapped := fmt.Errorf("writev: %w", retryErrno)
	assert.Same(t, ioerr.Again(), ioerr.FromError(wrapped))

	inner := ioerr.New(syscall.Errno(123))
	assert.Same(t, inner, ioerr.FromError(fmt.Errorf("op: %w", inner)))

	plain := errors.New("boom")
	got := ioerr.FromError(plain)
	require.NotNil(t, got)
	assert.Equal(t, ioerr.CodeUnknown, got.Code())
	assert.Contains(t, got.Error(), "boom")
	assert.ErrorIs(t, got, plain)

	assert.Nil(t, ioerr.FromError(nil))
}

func TestFromErrnoUsesSingleton(t *testing.T) {
	assert.Same(t, ioerr.Again(), ioerr.FromErrno(retryErrno))
}

func TestNewWithRetryErrnoTripsAssertion(t *testing.T) {
	if !iassert.Enabled {
		t.Skip("debug assertions disabled")
	}
	e := ioerr.New(retryErrno)
	assert.PanicsWithError(t,
		"assert failure: e == ioerr.Again(). Details: Didn't use ioerr.Again() to generate `Again`.",
		func() { _ = e.Code() })
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "MessageTooBig", ioerr.CodeMessageTooBig.String())
	assert.Equal(t, "Code(42)", ioerr.Code(42).String())
}

func TestDetailsFormat(t *testing.T) {
	for errno, code := range mappedCodes {
		t.Run(code.String(), func(t *testing.T) {
			assert.Equal(t, code, ioerr.Classify(errno))
			d := ioerr.Details(errno)
			assert.Contains(t, d, code.String())
			assert.Contains(t, d, strconv.Itoa(int(errno)))
		})
	}
}

func TestTemporary(t *testing.T) {
	for errno, code := range mappedCodes {
		if code == ioerr.CodeAgain {
			continue
		}
		e := ioerr.New(errno)
		assert.Equal(t, code == ioerr.CodeInterrupt, e.Temporary(), code.String())
	}
}
