package procerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindConstructors(t *testing.T) {
	require.True(t, Is(Fatal("bad config"), KindFatal))
	require.True(t, Is(Recoverable("bad asset"), KindRecoverable))
	require.True(t, Is(Deferred("needs data"), KindDeferred))
}

func TestIsRejectsOtherErrorTypes(t *testing.T) {
	require.False(t, Is(errors.New("plain"), KindFatal))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapFatal(cause, "failed to write")
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "disk full")
	require.Contains(t, err.Error(), "failed to write")
}

func TestErrorMessageIncludesProcessor(t *testing.T) {
	err := &Error{Kind: KindRecoverable, Processor: "scss", Message: "compile failed"}
	require.Contains(t, err.Error(), "scss")
	require.Contains(t, err.Error(), "compile failed")
}
