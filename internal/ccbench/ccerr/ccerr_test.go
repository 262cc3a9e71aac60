package ccerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessagesIncludeOpAndMsg(t *testing.T) {
	assert.Contains(t, NewConfigError("op", "bad %d", 1).Error(), "op")
	assert.Contains(t, NewConfigError("op", "bad %d", 1).Error(), "bad 1")
	assert.Contains(t, NewAllocError("alloc.Op", "no memory").Error(), "no memory")
	assert.Contains(t, NewSystemError("sys.Op", "pin failed").Error(), "pin failed")
}

func TestConfigErrorWithoutOp(t *testing.T) {
	e := &ConfigError{Msg: "bare"}
	assert.Equal(t, "config error: bare", e.Error())
}

func TestKernelInternalError(t *testing.T) {
	e := &KernelInternal{Rank: 2, TestID: 99}
	assert.Contains(t, e.Error(), "rank 2")
	assert.Contains(t, e.Error(), "99")
}

func TestTypedErrorsAreDistinctTypes(t *testing.T) {
	var err error = NewConfigError("x", "y")
	_, isConfig := err.(*ConfigError)
	_, isAlloc := err.(*AllocError)
	assert.True(t, isConfig)
	assert.False(t, isAlloc)
}
