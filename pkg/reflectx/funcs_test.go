package reflectx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func namedFunction() int { return 42 }

type receiverType struct{}

func (receiverType) Method() string { return "method" }

func TestIsFunction(t *testing.T) {
	assert.True(t, IsFunction(namedFunction))
	assert.True(t, IsFunction(func() {}))
	assert.False(t, IsFunction(nil))
	assert.False(t, IsFunction(42))
	assert.False(t, IsFunction("not a function"))
}

func TestPointer(t *testing.T) {
	t.Run("stable for the same function", func(t *testing.T) {
		assert.Equal(t, Pointer(namedFunction), Pointer(namedFunction))
	})

	t.Run("distinct for distinct literals", func(t *testing.T) {
		a := func() int { return 1 }
		b := func() int { return 2 }
		assert.NotEqual(t, Pointer(a), Pointer(b))
	})

	t.Run("zero for non-functions", func(t *testing.T) {
		assert.Zero(t, Pointer(nil))
		assert.Zero(t, Pointer("nope"))
	})
}

func TestFunctionName(t *testing.T) {
	assert.Equal(t, "namedFunction", FunctionName(namedFunction))
	assert.Empty(t, FunctionName(nil))

	var r receiverType
	name := FunctionName(r.Method)
	assert.Equal(t, "Method", name)
	assert.False(t, strings.HasSuffix(name, "-fm"))
}
