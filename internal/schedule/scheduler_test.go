package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEveryRebuildSchedulesJob(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	err = s.EveryRebuild(time.Hour, func() error { return nil })
	require.NoError(t, err)
}

func TestEveryRebuildSwallowsRebuildError(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	called := make(chan struct{}, 1)
	err = s.EveryRebuild(time.Millisecond, func() error {
		select {
		case called <- struct{}{}:
		default:
		}
		return errors.New("boom")
	})
	require.NoError(t, err)

	s.Start()
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("scheduled rebuild never ran")
	}
}
