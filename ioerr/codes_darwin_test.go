package ioerr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"

	"github.com/davinci26/envoy/ioerr"
)

func TestClassifyNotSup(t *testing.T) {
	assert.Equal(t, ioerr.CodeNoSupport, ioerr.Classify(unix.ENOTSUP))
	assert.Equal(t, ioerr.CodeNoSupport, ioerr.Classify(unix.EOPNOTSUPP))
	assert.Equal(t, ioerr.CodeNoSupport, ioerr.New(unix.ENOTSUP).Code())
}
