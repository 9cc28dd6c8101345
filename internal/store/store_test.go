package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	require.NoError(t, s.Record(ctx, BuildRecord{
		BuildID: "b1", Profile: "default", Timestamp: now,
		DurationMS: 120, Written: 5, Skipped: 1, Errored: 0,
	}))
	require.NoError(t, s.Record(ctx, BuildRecord{
		BuildID: "b2", Profile: "publish", Timestamp: now.Add(time.Minute),
		DurationMS: 80, Written: 2, Skipped: 4, Errored: 1,
	}))

	records, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "b2", records[0].BuildID)
	require.Equal(t, "b1", records[1].BuildID)
}

func TestRecentRespectsLimit(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, BuildRecord{BuildID: "b", Profile: "default", Timestamp: time.Unix(int64(i), 0)}))
	}

	records, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
}
