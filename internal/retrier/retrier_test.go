package retrier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydaemon/ffwdd/internal/ffwdtest"
)

func TestDoSucceedsEventually(t *testing.T) {
	r := New(Config{InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}, ffwdtest.NewLogger())

	attempts := 0
	err := r.Do(context.Background(), "bind", func(_ context.Context, attempt int) error {
		attempts++
		if attempt < 3 {
			return errors.New("port busy")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoRespectsTimeout(t *testing.T) {
	r := New(Config{InitialDelay: 2 * time.Millisecond, MaxDelay: 2 * time.Millisecond, Timeout: 10 * time.Millisecond}, ffwdtest.NewLogger())

	err := r.Do(context.Background(), "bind", func(_ context.Context, _ int) error {
		return errors.New("still busy")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
