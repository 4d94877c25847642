package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassString(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(42).String())
}

func TestWrapNilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(nil, "c", "m", "a"))
	assert.Nil(t, WrapTransient(nil, "c", "m", "a"))
	assert.Nil(t, WrapInvalid(nil, "c", "m", "a"))
	assert.Nil(t, WrapFatal(nil, "c", "m", "a"))
}

func TestWrapFormat(t *testing.T) {
	base := stderrors.New("boom")
	err := Wrap(base, "Engine", "Index", "build store")
	require.Error(t, err)
	assert.Equal(t, "Engine.Index: build store failed: boom", err.Error())
	assert.True(t, stderrors.Is(err, base))
}

func TestClassifiedWrappers(t *testing.T) {
	base := stderrors.New("boom")

	tests := []struct {
		name string
		wrap func(error, string, string, string) error
		want ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wrap(base, "Store", "Merge", "append items")

			var ce *ClassifiedError
			require.True(t, stderrors.As(err, &ce))
			assert.Equal(t, tt.want, ce.Class)
			assert.Equal(t, "Store", ce.Component)
			assert.Equal(t, "Merge", ce.Operation)
			assert.True(t, stderrors.Is(err, base))
			assert.Equal(t, tt.want, Classify(err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(ErrConnectionLost))
	assert.True(t, IsTransient(ErrRateLimited))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(fmt.Errorf("nats: connection refused")))
	assert.False(t, IsTransient(stderrors.New("entity malformed")))
}

func TestIsInvalid(t *testing.T) {
	assert.True(t, IsInvalid(ErrNoEntityID))
	assert.True(t, IsInvalid(ErrParsingFailed))
	assert.True(t, IsInvalid(WrapInvalid(stderrors.New("x"), "c", "m", "a")))
	assert.False(t, IsInvalid(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrInvalidConfig))
	assert.True(t, IsFatal(ErrMissingConfig))
	assert.False(t, IsFatal(ErrKeyNotFound))
	assert.False(t, IsFatal(nil))
}

func TestClassifyDefaultsToTransient(t *testing.T) {
	assert.Equal(t, ErrorTransient, Classify(stderrors.New("something odd")))
	assert.Equal(t, ErrorTransient, Classify(nil))
}
