package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimitPolicy(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		policy, err := NewLimitPolicy(10, 50)
		require.NoError(t, err)
		assert.Equal(t, 50, policy.Max())
	})

	t.Run("zero default", func(t *testing.T) {
		_, err := NewLimitPolicy(0, 50)
		require.ErrorIs(t, err, ErrInvalidLimitPolicy)
	})

	t.Run("ceiling below default", func(t *testing.T) {
		_, err := NewLimitPolicy(20, 10)
		require.ErrorIs(t, err, ErrInvalidLimitPolicy)
	})
}

func TestLimitPolicy_Resolve(t *testing.T) {
	policy, err := NewLimitPolicy(10, 50)
	require.NoError(t, err)

	tests := []struct {
		name      string
		requested int
		limit     int
		source    LimitSource
	}{
		{"zero uses default", 0, 10, LimitSourceDefault},
		{"negative uses default", -5, 10, LimitSourceDefault},
		{"within range", 25, 25, LimitSourceExplicit},
		{"exactly ceiling", 50, 50, LimitSourceExplicit},
		{"above ceiling clamps", 500, 50, LimitSourceClamped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := policy.Resolve(tt.requested)
			assert.Equal(t, tt.limit, d.Limit)
			assert.Equal(t, tt.source, d.Source)
			assert.Equal(t, tt.requested, d.Requested)
		})
	}
}
