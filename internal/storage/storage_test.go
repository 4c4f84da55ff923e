package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.RecordRound(ctx, RoundRecord{
			Room:    "main",
			Round:   i,
			PlayerA: "a",
			PlayerB: "b",
			HealthA: 100 - i,
			HealthB: 50,
			Winner:  0,
			Turns:   6,
			EndedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.RecordRound(ctx, RoundRecord{Room: "other", Round: 1, EndedAt: base}))

	got, err := s.RecentRounds(ctx, "main", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 3, got[0].Round)
	require.Equal(t, 2, got[1].Round)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mongo", "whatever")
	require.True(t, errors.Is(err, ErrUnsupportedDriver), "got %v", err)
}
