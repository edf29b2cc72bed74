package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportError_KindsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		kind     TransportKind
		sentinel error
		message  string
	}{
		{name: "authentication", kind: KindAuthentication, sentinel: ErrAuthentication, message: "anthropic authentication failed: invalid x-api-key"},
		{name: "rate limit", kind: KindRateLimit, sentinel: ErrRateLimited, message: "anthropic rate limit exceeded: invalid x-api-key"},
		{name: "api", kind: KindAPI, sentinel: ErrAPI, message: "anthropic API error: invalid x-api-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cause := errors.New("invalid x-api-key")
			err := Transport(tt.kind, "anthropic", 0, cause)

			assert.True(t, errors.Is(err, tt.sentinel))
			assert.True(t, errors.Is(err, cause))
			assert.Equal(t, tt.message, err.Error())

			te, ok := IsTransport(fmt.Errorf("generate: %w", err))
			require.True(t, ok)
			assert.Equal(t, tt.kind, te.Kind)
		})
	}
}

func TestKindFromStatus(t *testing.T) {
	assert.Equal(t, KindAuthentication, KindFromStatus(401))
	assert.Equal(t, KindAuthentication, KindFromStatus(403))
	assert.Equal(t, KindRateLimit, KindFromStatus(429))
	assert.Equal(t, KindAPI, KindFromStatus(500))
	assert.Equal(t, KindAPI, KindFromStatus(0))
}

func TestMapError(t *testing.T) {
	m := NewDefaultErrorMapper()

	assert.Nil(t, m.MapError(nil))
	assert.ErrorIs(t, m.MapError(context.Canceled), context.Canceled)
	assert.ErrorIs(t, m.MapError(context.DeadlineExceeded), ErrTransient)
	assert.ErrorIs(t, m.MapError(errors.New("course does not exist")), ErrNotFound)
	assert.ErrorIs(t, m.MapError(errors.New("too many requests")), ErrRateLimited)
	assert.ErrorIs(t, m.MapError(errors.New("workspace is locked")), ErrConflict)
	assert.ErrorIs(t, m.MapError(errors.New("boom")), ErrInternal)

	transport := Transport(KindAuthentication, "openai", 401, errors.New("bad key"))
	assert.Same(t, transport, m.MapError(transport))
}

func TestCategoryAndRetryable(t *testing.T) {
	m := NewDefaultErrorMapper()

	rateLimited := Transport(KindRateLimit, "anthropic", 429, errors.New("slow down"))
	assert.Equal(t, "ErrRateLimited", m.Category(rateLimited))
	assert.True(t, m.IsRetryable(rateLimited))

	auth := Transport(KindAuthentication, "anthropic", 401, errors.New("nope"))
	assert.Equal(t, "ErrAuthentication", m.Category(auth))
	assert.False(t, m.IsRetryable(auth))

	assert.Equal(t, "ErrNotFound", m.Category(NotFound("course")))
	assert.Equal(t, "Unknown", m.Category(errors.New("plain")))
	assert.Equal(t, "", m.Category(nil))
}

func TestWrapWithCategory_KeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapWithCategory(cause, "save course index", ErrInternal)

	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, WrapWithCategory(nil, "noop", ErrInternal))
}
