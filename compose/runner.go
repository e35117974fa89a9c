package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lastnameswayne/launchpad/config"
	"github.com/lastnameswayne/launchpad/dispatch"
)

var ErrNoComposeBinary = errors.New("neither docker-compose nor docker found in PATH")

const defaultGracePeriod = 10 * time.Second

var lookPath = exec.LookPath

// DetectBinary prefers the standalone docker-compose and falls back to the
// docker compose plugin.
func DetectBinary() ([]string, error) {
	if p, err := lookPath("docker-compose"); err == nil {
		return []string{p}, nil
	}
	if p, err := lookPath("docker"); err == nil {
		return []string{p, "compose"}, nil
	}
	return nil, ErrNoComposeBinary
}

// ExitError is returned when compose ran but exited non-zero.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("compose exited with code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

type Result struct {
	StartedAt time.Time
	Duration  time.Duration
	ExitCode  int
}

type Runner struct {
	Bin []string
	Dir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// GracePeriod is how long a cancelled child gets between the interrupt
	// and the kill.
	GracePeriod time.Duration

	// BaseEnv is the environment the properties are layered on. Nil means
	// the launcher's own environment.
	BaseEnv []string

	logger *zap.Logger
}

func NewRunner(cfg config.Config, logger *zap.Logger) (*Runner, error) {
	bin := cfg.ComposeBin
	if len(bin) == 0 {
		detected, err := DetectBinary()
		if err != nil {
			return nil, err
		}
		bin = detected
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Bin:         bin,
		Dir:         cfg.Dir,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		GracePeriod: defaultGracePeriod,
		logger:      logger,
	}, nil
}

// Environ is the child's environment: the base environment with the
// invocation entries layered on top.
func (r *Runner) Environ(inv dispatch.Invocation) []string {
	base := r.BaseEnv
	if base == nil {
		base = os.Environ()
	}
	return MergeEnv(base, inv.Env)
}

// CommandLine is the full argv that Run would execute.
func (r *Runner) CommandLine(inv dispatch.Invocation) []string {
	argv := append([]string(nil), r.Bin...)
	return append(argv, inv.Args...)
}

func (r *Runner) Command(ctx context.Context, inv dispatch.Invocation) *exec.Cmd {
	argv := r.CommandLine(inv)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	cmd.Env = r.Environ(inv)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.GracePeriod
	return cmd
}

// Run executes the invocation and blocks until compose exits.
func (r *Runner) Run(ctx context.Context, inv dispatch.Invocation) (Result, error) {
	cmd := r.Command(ctx, inv)
	r.logger.Debug("starting compose",
		zap.String("mode", string(inv.Mode)),
		zap.String("command", strings.Join(cmd.Args, " ")),
		zap.Int("env_overrides", len(inv.Env)))

	res := Result{StartedAt: time.Now()}
	err := cmd.Run()
	res.Duration = time.Since(res.StartedAt)
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode < 0 {
			// killed by a signal
			res.ExitCode = 1
		}
		return res, &ExitError{Code: res.ExitCode, Err: err}
	}
	res.ExitCode = -1
	return res, fmt.Errorf("run %s: %w", cmd.Path, err)
}
