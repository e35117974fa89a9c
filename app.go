package main

import (
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lastnameswayne/launchpad/config"
	"github.com/lastnameswayne/launchpad/logging"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

func newApp() *cli.App {
	return &cli.App{
		Name:      "launch",
		Usage:     "bring the application stack up with docker compose",
		UsageText: "launch [global options] [prod | sg | service] [extra-flag]",
		Description: "prod and sg build and start the production or staging stack.\n" +
			"Anything else starts the development stack, forwarding the first two\n" +
			"arguments to compose, e.g. \"launch web --build\".",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Value:   config.DefaultPropertiesFile,
				Usage:   "properties file whose KEY=VALUE pairs are passed to compose",
				EnvVars: []string{"LAUNCH_ENV_FILE"},
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"C"},
				Value:   ".",
				Usage:   "project directory that relative paths are resolved against",
				EnvVars: []string{"LAUNCH_DIR"},
			},
			&cli.StringFlag{
				Name:    "compose-bin",
				Usage:   "compose command, e.g. \"docker compose\" (default: auto-detect)",
				EnvVars: []string{"LAUNCH_COMPOSE_BIN"},
			},
			&cli.StringFlag{Name: "prod-file", Value: config.DefaultProdFile, Usage: "production compose file"},
			&cli.StringFlag{Name: "sg-file", Value: config.DefaultStagingFile, Usage: "staging compose file"},
			&cli.StringFlag{Name: "dev-file", Value: config.DefaultDevFile, Usage: "development compose file"},
			&cli.StringFlag{
				Name:    "history",
				Value:   config.DefaultHistoryFile,
				Usage:   "sqlite file recording launches, empty to disable",
				EnvVars: []string{"LAUNCH_HISTORY"},
			},
			&cli.BoolFlag{
				Name:    "strict",
				Usage:   "fail when the properties or compose file is missing",
				EnvVars: []string{"LAUNCH_STRICT"},
			},
			&cli.BoolFlag{Name: "dry-run", Usage: "print the compose command instead of running it"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging"},
		},
		Action: launchAction,
		Commands: []*cli.Command{
			historyCommand(),
			servicesCommand(),
			doctorCommand(),
			dockerfileCommand(),
		},
	}
}

func configFromFlags(c *cli.Context) (config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Dir = c.String("dir")
	cfg.PropertiesFile = c.String("env-file")
	cfg.ComposeBin = strings.Fields(c.String("compose-bin"))
	cfg.ProdFile = c.String("prod-file")
	cfg.StagingFile = c.String("sg-file")
	cfg.DevFile = c.String("dev-file")
	cfg.HistoryFile = c.String("history")
	cfg.Strict = c.Bool("strict")
	cfg.DryRun = c.Bool("dry-run")
	cfg.Verbose = c.Bool("verbose")
	return cfg.AbsDir()
}

type session struct {
	cfg    config.Config
	logger *zap.Logger
}

func newSession(c *cli.Context) (*session, error) {
	cfg, err := configFromFlags(c)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logging.New(c.App.ErrWriter, cfg.Verbose)}, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}
