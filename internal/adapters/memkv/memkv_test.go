package memkv_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"hotelstay/internal/adapters/memkv"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := memkv.New()

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)

	require.NoError(t, s.Delete(ctx, "k"))
	_, ok = s.Raw("k")
	require.False(t, ok)
	require.Zero(t, s.Len())
}

func TestStore_Hooks(t *testing.T) {
	ctx := context.Background()
	s := memkv.New()
	boom := errors.New("disk full")
	s.SetErr = func(key, value string) error { return boom }
	s.DelErr = func(key string) error { return boom }
	s.Put("k", "seed")

	require.ErrorIs(t, s.Set(ctx, "k", "v"), boom)
	require.ErrorIs(t, s.Delete(ctx, "k"), boom)
	v, ok := s.Raw("k")
	require.True(t, ok)
	require.Equal(t, "seed", v)
}
