package reveal

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	name string
	args []string
}

func recordingRunner(calls *[]recordedCall, result error) runnerFunc {
	return func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, recordedCall{name: name, args: args})
		return result
	}
}

func TestForOS(t *testing.T) {
	tests := []struct {
		goos    string
		command string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"freebsd", "xdg-open"},
		{"windows", "explorer"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			var calls []recordedCall
			revealer, err := ForOS(tt.goos, withRunner(recordingRunner(&calls, nil)))
			require.NoError(t, err)

			require.NoError(t, revealer.Reveal(context.Background(), "/some/skill"))
			require.Len(t, calls, 1)
			assert.Equal(t, tt.command, calls[0].name)
			assert.Equal(t, []string{"/some/skill"}, calls[0].args)
		})
	}

	t.Run("unsupported platform", func(t *testing.T) {
		_, err := ForOS("plan9")
		assert.Error(t, err)
	})
}

func TestRevealCommandFailure(t *testing.T) {
	var calls []recordedCall
	revealer, err := ForOS("linux", withRunner(recordingRunner(&calls, errors.New("exec: \"xdg-open\": executable file not found"))))
	require.NoError(t, err)

	err = revealer.Reveal(context.Background(), "/some/skill")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open folder")
}

func TestRevealTimeout(t *testing.T) {
	blocking := func(ctx context.Context, _ string, _ ...string) error {
		<-ctx.Done()
		return ctx.Err()
	}

	revealer, err := ForOS("darwin", withRunner(blocking), WithTimeout(10*time.Millisecond))
	require.NoError(t, err)

	err = revealer.Reveal(context.Background(), "/some/skill")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "reveal timed out")
}

func TestExplorerIgnoresExitCode(t *testing.T) {
	// explorer exits nonzero even on success; reproduce with a real ExitError
	exitErr := exec.Command("false").Run()
	require.Error(t, exitErr)

	var calls []recordedCall
	revealer, err := ForOS("windows", withRunner(recordingRunner(&calls, exitErr)))
	require.NoError(t, err)

	assert.NoError(t, revealer.Reveal(context.Background(), `C:\skills\some-skill`))
}

func TestNewSelectsCurrentPlatform(t *testing.T) {
	revealer, err := New()
	require.NoError(t, err)
	assert.NotNil(t, revealer)
}
