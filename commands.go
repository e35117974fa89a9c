package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v2"

	"github.com/lastnameswayne/launchpad/compose"
	"github.com/lastnameswayne/launchpad/config"
	"github.com/lastnameswayne/launchpad/daemon"
	"github.com/lastnameswayne/launchpad/db"
	"github.com/lastnameswayne/launchpad/dispatch"
	"github.com/lastnameswayne/launchpad/dockerfile"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "show recent launches",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20},
		},
		Action: func(c *cli.Context) error {
			cfg, err := configFromFlags(c)
			if err != nil {
				return err
			}
			if cfg.HistoryFile == "" {
				return cli.Exit("launch history is disabled", 1)
			}
			store, err := db.Open(cfg.Resolve(cfg.HistoryFile))
			if err != nil {
				return err
			}
			defer store.Close()

			launches, err := store.Recent(c.Int("limit"))
			if err != nil {
				return err
			}
			if len(launches) == 0 {
				fmt.Fprintln(c.App.Writer, "no launches recorded")
				return nil
			}
			for _, l := range launches {
				mark := green("✓")
				if l.ExitCode != 0 {
					mark = red("✗")
				}
				fmt.Fprintf(c.App.Writer, "%s %4d  %s  %-4s  exit=%-3d %8s  %s\n",
					mark, l.ID, l.StartedAt.Local().Format("2006-01-02 15:04:05"), l.Mode, l.ExitCode,
					time.Duration(l.DurationMs)*time.Millisecond, strings.Join(l.Args, " "))
			}
			return nil
		},
	}
}

func servicesCommand() *cli.Command {
	return &cli.Command{
		Name:      "services",
		Usage:     "list the services declared in a mode's compose file",
		ArgsUsage: "[prod | sg | dev]",
		Action: func(c *cli.Context) error {
			cfg, err := configFromFlags(c)
			if err != nil {
				return err
			}
			path := dispatch.ComposeFile(cfg, dispatch.ParseMode(c.Args().First()))
			names, err := compose.Services(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("%s %v", red("✗"), err), 1)
			}
			for _, name := range names {
				fmt.Fprintln(c.App.Writer, name)
			}
			return nil
		},
	}
}

func doctorCommand() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "check the docker daemon, compose binary, and project files",
		Action: func(c *cli.Context) error {
			s, err := newSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			w := c.App.Writer
			failed := 0
			check := func(ok bool, format string, args ...any) {
				mark := green("✓")
				if !ok {
					mark = red("✗")
					failed++
				}
				fmt.Fprintf(w, "%s %s\n", mark, fmt.Sprintf(format, args...))
			}

			propsPath := s.cfg.Resolve(s.cfg.PropertiesFile)
			props, err := config.LoadProperties(propsPath)
			switch {
			case errors.Is(err, config.ErrPropertiesNotFound) && !s.cfg.Strict:
				fmt.Fprintf(w, "%s properties %s: missing\n", yellow("!"), propsPath)
			case err != nil:
				check(false, "properties: %v", err)
			default:
				s.cfg.Properties = props
				check(true, "properties %s (%d keys)", propsPath, props.Len())
			}

			for _, mode := range []dispatch.Mode{dispatch.ModeProd, dispatch.ModeStaging, dispatch.ModeDev} {
				path := dispatch.ComposeFile(s.cfg, mode)
				names, err := compose.Services(path)
				check(err == nil, "%-4s %s %s", mode, path, describeServices(names, err))
			}

			if bin := s.cfg.ComposeBin; len(bin) > 0 {
				check(true, "compose command %s", strings.Join(bin, " "))
			} else if bin, err := compose.DetectBinary(); err != nil {
				check(false, "compose command: %v", err)
			} else {
				check(true, "compose command %s", strings.Join(bin, " "))
			}

			info, err := pingDaemon(c, w, s)
			if err != nil {
				check(false, "docker daemon: %v", err)
			} else {
				check(true, "docker daemon %s (engine %s, api %s, %s)", info.Host, info.ServerVersion, info.APIVersion, info.OSType)
			}

			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d check(s) failed", failed), 1)
			}
			return nil
		},
	}
}

func pingDaemon(c *cli.Context, w io.Writer, s *session) (daemon.Info, error) {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	sp.Suffix = " Contacting docker daemon..."
	sp.Start()
	defer sp.Stop()
	return daemon.Check(c.Context, s.cfg.Properties)
}

func describeServices(names []string, err error) string {
	if err != nil {
		return err.Error()
	}
	if len(names) == 0 {
		return "(no services)"
	}
	return "(" + strings.Join(names, ", ") + ")"
}

func dockerfileCommand() *cli.Command {
	defaults := dockerfile.DefaultImage()
	return &cli.Command{
		Name:  "dockerfile",
		Usage: "render the develop/staging/prod image definition",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write to this file instead of stdout"},
			&cli.StringFlag{Name: "base-image", Value: defaults.BaseImage},
			&cli.StringSliceFlag{Name: "apt", Value: cli.NewStringSlice(defaults.AptPackages...), Usage: "OS packages to install"},
			&cli.StringFlag{Name: "install", Value: defaults.LockInstall, Usage: "lockfile install command"},
			&cli.StringFlag{Name: "app", Value: defaults.App, Usage: "ASGI application to serve"},
			&cli.IntFlag{Name: "port", Value: defaults.Port},
		},
		Action: func(c *cli.Context) error {
			img := dockerfile.DefaultImage()
			img.BaseImage = c.String("base-image")
			img.AptPackages = c.StringSlice("apt")
			img.LockInstall = c.String("install")
			img.App = c.String("app")
			img.Port = c.Int("port")

			out := c.String("out")
			if out == "" {
				return dockerfile.Render(c.App.Writer, img)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := dockerfile.Render(f, img); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(c.App.ErrWriter, "%s wrote %s\n", green("✓"), out)
			return nil
		},
	}
}
