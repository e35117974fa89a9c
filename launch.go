package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lastnameswayne/launchpad/compose"
	"github.com/lastnameswayne/launchpad/config"
	"github.com/lastnameswayne/launchpad/db"
	"github.com/lastnameswayne/launchpad/dispatch"
)

// loadProperties reads the properties file into the session config. A
// missing or malformed file is only fatal in strict mode.
func (s *session) loadProperties() error {
	path := s.cfg.Resolve(s.cfg.PropertiesFile)
	props, err := config.LoadProperties(path)
	switch {
	case err == nil:
		s.cfg.Properties = props
		s.logger.Debug("loaded properties", zap.String("path", path), zap.Int("keys", props.Len()))
		return nil
	case s.cfg.Strict:
		return err
	case errors.Is(err, config.ErrPropertiesNotFound):
		s.logger.Warn("no properties file, using the inherited environment only", zap.String("path", path))
		return nil
	case errors.Is(err, config.ErrMalformedProperties):
		s.logger.Warn("ignoring malformed properties file, using the inherited environment only",
			zap.String("path", path), zap.Error(err))
		return nil
	default:
		return err
	}
}

func launchAction(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.loadProperties(); err != nil {
		return cli.Exit(fmt.Sprintf("%s %v", red("✗"), err), 1)
	}

	inv := dispatch.Plan(s.cfg, c.Args().Slice())
	if len(inv.Dropped) > 0 {
		s.logger.Warn("ignoring extra arguments", zap.Strings("args", inv.Dropped))
	}

	if s.cfg.Strict {
		if err := compose.CheckFile(inv.ComposeFile, inv.Service()); err != nil {
			return cli.Exit(fmt.Sprintf("%s %v", red("✗"), err), 1)
		}
	}

	runner, err := compose.NewRunner(s.cfg, s.logger)
	if err != nil {
		if !s.cfg.DryRun {
			return cli.Exit(fmt.Sprintf("%s %v", red("✗"), err), 127)
		}
		runner = &compose.Runner{Bin: []string{"docker-compose"}, Dir: s.cfg.Dir}
	}
	runner.Stdin = c.App.Reader
	runner.Stdout = c.App.Writer
	runner.Stderr = c.App.ErrWriter

	if s.cfg.DryRun {
		fmt.Fprintln(c.App.Writer, strings.Join(runner.CommandLine(inv), " "))
		for _, key := range s.cfg.Properties.Keys() {
			fmt.Fprintf(c.App.Writer, "  env %s\n", key)
		}
		return nil
	}

	// Ctrl-C reaches compose through the process group, the launcher only
	// has to outlive it. SIGTERM is forwarded through the context.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGTERM)
	defer stop()

	s.logger.Info("launching",
		zap.String("mode", string(inv.Mode)),
		zap.String("compose_file", inv.ComposeFile),
		zap.Strings("forwarded", inv.Forwarded))

	res, runErr := runner.Run(ctx, inv)
	s.record(inv, res, runErr)

	var exitErr *compose.ExitError
	switch {
	case runErr == nil:
		fmt.Fprintf(c.App.ErrWriter, "%s %s stack exited after %s\n", green("✓"), inv.Mode, res.Duration.Round(time.Millisecond))
		return nil
	case errors.As(runErr, &exitErr):
		return cli.Exit(fmt.Sprintf("%s %v", red("✗"), runErr), exitErr.Code)
	default:
		return cli.Exit(fmt.Sprintf("%s %v", red("✗"), runErr), 1)
	}
}

// record appends the launch to the history store. History is best effort
// and never changes the launch outcome.
func (s *session) record(inv dispatch.Invocation, res compose.Result, runErr error) {
	if s.cfg.HistoryFile == "" {
		return
	}
	store, err := db.Open(s.cfg.Resolve(s.cfg.HistoryFile))
	if err != nil {
		s.logger.Warn("failed to open launch history", zap.Error(err))
		return
	}
	defer store.Close()

	rec := db.LaunchRecord{
		Mode:        string(inv.Mode),
		ComposeFile: inv.ComposeFile,
		Args:        inv.Args,
		StartedAt:   res.StartedAt,
		DurationMs:  res.Duration.Milliseconds(),
		ExitCode:    res.ExitCode,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	id, err := store.LogLaunch(rec)
	if err != nil {
		s.logger.Warn("failed to record launch", zap.Error(err))
		return
	}
	s.logger.Debug("recorded launch", zap.Int64("id", id))
}
