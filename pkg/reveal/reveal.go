// Package reveal opens skill folders in the platform file manager. The
// opener variant is selected once at startup, so request handlers never
// branch on the platform.
package reveal

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// DefaultTimeout bounds a single reveal invocation
const DefaultTimeout = 5 * time.Second

// Revealer opens a directory in the platform file manager
type Revealer interface {
	Reveal(ctx context.Context, path string) error
}

type runnerFunc func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

type config struct {
	timeout time.Duration
	run     runnerFunc
}

// Option configures a revealer
type Option func(*config)

// WithTimeout overrides the default reveal timeout
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

func withRunner(run runnerFunc) Option {
	return func(c *config) {
		c.run = run
	}
}

// New returns the revealer for the current platform
func New(opts ...Option) (Revealer, error) {
	return ForOS(runtime.GOOS, opts...)
}

// ForOS returns the revealer for the named platform
func ForOS(goos string, opts ...Option) (Revealer, error) {
	cfg := &config{
		timeout: DefaultTimeout,
		run:     runCommand,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch goos {
	case "darwin":
		return &finderRevealer{cfg: cfg}, nil
	case "windows":
		return &explorerRevealer{cfg: cfg}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return &xdgRevealer{cfg: cfg}, nil
	default:
		return nil, pkgerrors.Errorf("unsupported platform %q for revealing folders", goos)
	}
}

// finderRevealer opens folders with macOS Finder
type finderRevealer struct {
	cfg *config
}

func (r *finderRevealer) Reveal(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.timeout)
	defer cancel()

	if err := r.cfg.run(ctx, "open", path); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pkgerrors.Wrap(ctxErr, "reveal timed out")
		}
		return pkgerrors.Wrap(err, "failed to open folder in Finder")
	}
	return nil
}

// xdgRevealer opens folders through xdg-open on Linux and the BSDs
type xdgRevealer struct {
	cfg *config
}

func (r *xdgRevealer) Reveal(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.timeout)
	defer cancel()

	if err := r.cfg.run(ctx, "xdg-open", path); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pkgerrors.Wrap(ctxErr, "reveal timed out")
		}
		return pkgerrors.Wrap(err, "failed to open folder in file manager")
	}
	return nil
}

// explorerRevealer opens folders with Windows Explorer. Explorer reports a
// nonzero exit code even when the window opens, so exit errors are ignored.
type explorerRevealer struct {
	cfg *config
}

func (r *explorerRevealer) Reveal(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.timeout)
	defer cancel()

	err := r.cfg.run(ctx, "explorer", path)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return pkgerrors.Wrap(ctxErr, "reveal timed out")
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return pkgerrors.Wrap(err, "failed to open folder in Explorer")
}
