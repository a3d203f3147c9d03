package service_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davinci26/envoy/service"
)

func TestExitCodeWin32Facility(t *testing.T) {
	assert.True(t, service.ExitInvalidArgs.Failed())
	assert.True(t, service.ExitInvalidArgs.IsWin32())
	assert.Equal(t, uint32(0x57), service.ExitInvalidArgs.Win32())

	assert.True(t, service.ExitFailure.Failed())
	assert.False(t, service.ExitFailure.IsWin32())

	assert.False(t, service.ExitOK.Failed())
	assert.False(t, service.ExitOK.IsWin32())
}

func TestExitCodeProcessCode(t *testing.T) {
	assert.Equal(t, 0, service.ExitOK.ProcessCode())
	assert.Equal(t, 64, service.ExitInvalidArgs.ProcessCode())
	assert.Equal(t, 1, service.ExitFailure.ProcessCode())
	assert.Equal(t, 1, service.ExitCode(0x80070005).ProcessCode())
}

func TestExitCodeString(t *testing.T) {
	assert.Equal(t, "E_INVALIDARG", service.ExitInvalidArgs.String())
	assert.Equal(t, "0x80070005", service.ExitCode(0x80070005).String())
}

func TestStartupError(t *testing.T) {
	cause := errors.New("missing value for --mode")
	err := error(service.NewStartupError(service.MalformedArgs, cause))

	var se *service.StartupError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, service.MalformedArgs, se.Kind)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "malformed arguments: missing value for --mode", err.Error())
	assert.Equal(t, "no serving", service.NewStartupError(service.NoServing, nil).Error())
}
