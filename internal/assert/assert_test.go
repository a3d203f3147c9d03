package assert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	envoyassert "github.com/davinci26/envoy/internal/assert"
)

func TestRelease(t *testing.T) {
	assert.NotPanics(t, func() { envoyassert.Release(true, "x == 1", "unused") })

	defer func() {
		r := recover()
		require.NotNil(t, r)
		f, ok := r.(*envoyassert.Failure)
		require.True(t, ok)
		assert.Equal(t, "assert failure: fd >= 0. Details: bad fd -1", f.Error())
	}()
	envoyassert.Release(false, "fd >= 0", "bad fd %d", -1)
}

func TestDebug(t *testing.T) {
	if !envoyassert.Enabled {
		assert.NotPanics(t, func() { envoyassert.Debug(false, "cond", "details") })
		return
	}
	assert.PanicsWithError(t, "assert failure: cond. Details: details", func() {
		envoyassert.Debug(false, "cond", "details")
	})
}
