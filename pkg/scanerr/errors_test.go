package scanerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFatal(t *testing.T) {
	tests := []struct {
		kind  Kind
		fatal bool
	}{
		{ConfigError, true},
		{AuthError, true},
		{RegionCatalogError, true},
		{SourceError, false},
		{FetchError, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := New(tt.kind, "op", "subject", errors.New("boom"))
			assert.Equal(t, tt.fatal, err.Fatal())
			assert.Equal(t, tt.fatal, IsFatal(err))
			assert.Equal(t, tt.fatal, IsFatal(fmt.Errorf("wrapped: %w", err)))
		})
	}
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(FetchError, "GetLogEvents", "us-east-1:g/s", nil))
	assert.Equal(t, FetchError, KindOf(err))
	assert.True(t, Is(err, FetchError))
	assert.False(t, Is(err, SourceError))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, Is(nil, FetchError))
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("token has expired")
	err := New(AuthError, "GetCallerIdentity", "default", cause).WithReason("expired")

	msg := err.Error()
	assert.Contains(t, msg, "AuthError")
	assert.Contains(t, msg, "GetCallerIdentity")
	assert.Contains(t, msg, "(expired)")
	assert.Contains(t, msg, "token has expired")
	assert.Equal(t, "expired", ReasonOf(err))
	require.ErrorIs(t, err, cause)
}

func TestConfig(t *testing.T) {
	err := Config("patterns.json", "entry %d invalid", 3)
	assert.Equal(t, ConfigError, err.Kind)
	assert.Contains(t, err.Error(), "patterns.json")
	assert.Contains(t, err.Error(), "entry 3 invalid")
}
