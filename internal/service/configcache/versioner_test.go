package configcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/neighborcast/neighborcast-api/internal/mocks"
)

func TestVersioner_CurrentDefaultsToInitial(t *testing.T) {
	v := NewVersioner(newMemShared(), "", nil)

	got, err := v.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0", got)
}

func TestVersioner_BumpIsVisibleToOtherInstances(t *testing.T) {
	shared := newMemShared()
	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	a := NewVersioner(shared, "v", clk.Now)
	b := NewVersioner(shared, "v", clk.Now)
	ctx := context.Background()

	first, err := a.Bump(ctx)
	require.NoError(t, err)
	got, err := b.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	// Same clock tick still yields a distinct version.
	second, err := b.Bump(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	got, err = a.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestVersioner_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	shared := mocks.NewMockCacheRepository(ctrl)
	v := NewVersioner(shared, "v", nil)
	ctx := context.Background()

	shared.EXPECT().Get(gomock.Any(), "v").Return(nil, errors.New("refused"))
	_, err := v.Current(ctx)
	assert.ErrorContains(t, err, "read cache version")

	shared.EXPECT().Set(gomock.Any(), "v", gomock.Any(), time.Duration(0)).Return(errors.New("refused"))
	_, err = v.Bump(ctx)
	assert.ErrorContains(t, err, "bump cache version")
}
