// Package main provides the CLI entry point for frameplay, which shows the
// video stream of a file in a window.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/framegrab/pkg/adapters/logger"
	"github.com/user/framegrab/pkg/adapters/osfilesystem"
	"github.com/user/framegrab/pkg/adapters/sdlpresenter"
	"github.com/user/framegrab/pkg/config"
	"github.com/user/framegrab/pkg/framegrab"
	"github.com/user/framegrab/pkg/ports"
)

var version = "dev"

func init() {
	// SDL calls must come from the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "frameplay",
		Usage:     l10n.T("Show the video stream of a file in a window"),
		UsageText: "frameplay [flags] <input-path>",
		Version:   version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Usage:    l10n.T("YAML configuration file"),
				Category: l10n.T("Configuration"),
			},
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    l10n.T("Window title"),
				Category: l10n.T("Display"),
			},
			&cli.IntFlag{
				Name:     "width",
				Usage:    l10n.T("Window width (0 = source width)"),
				Category: l10n.T("Display"),
			},
			&cli.IntFlag{
				Name:     "height",
				Usage:    l10n.T("Window height (0 = source height)"),
				Category: l10n.T("Display"),
			},
			&cli.IntFlag{
				Name:     "frames",
				Aliases:  []string{"n"},
				Usage:    l10n.T("Stop after this many frames (0 = all)"),
				Category: l10n.T("Display"),
			},
			&cli.StringFlag{
				Name:     "summary",
				Usage:    l10n.T("Output run summary to file (Markdown format)"),
				Category: l10n.T("Display"),
			},
			&cli.StringFlag{
				Name:     "backend",
				Usage:    l10n.T("Decoding backend (auto, native, libav)"),
				Category: l10n.T("Decoding"),
			},
			&cli.StringFlag{
				Name:     "ffmpeg-path",
				Usage:    l10n.T("Path to ffmpeg executable"),
				Category: l10n.T("Decoding"),
			},
			&cli.StringFlag{
				Name:     "log-level",
				Aliases:  []string{"l"},
				Usage:    l10n.T("Log level (debug, info, warn, error)"),
				Category: l10n.T("Logging"),
			},
			&cli.BoolFlag{
				Name:     "quiet",
				Aliases:  []string{"q"},
				Usage:    l10n.T("Suppress all log output"),
				Category: l10n.T("Logging"),
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		fmt.Fprintln(c.App.Writer, l10n.F("Usage: %s", c.App.UsageText))
		return cli.Exit("", 1)
	}
	input := c.Args().First()

	cfg, err := buildConfig(c)
	if err != nil {
		return cli.Exit(l10n.F("Failed to load config: %s", err), 1)
	}

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(cfg.Level())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	presenter := sdlpresenter.New(log.WithComponent("sdl"))
	runner := framegrab.New(cfg, osfilesystem.New(), log)
	if _, err := runner.Play(ctx, input, presenter); err != nil {
		return cli.Exit("", 1)
	}
	return nil
}

// buildConfig loads the optional config file and applies flag overrides.
// The player shows the whole stream unless --frames is given.
func buildConfig(c *cli.Context) (config.Config, error) {
	base := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return base, err
		}
		base = loaded
	}
	base.MaxFrames = 0

	builder := config.NewBuilder(base)
	if c.IsSet("title") {
		builder.WithWindowTitle(c.String("title"))
	}
	if c.IsSet("width") || c.IsSet("height") {
		builder.WithSize(c.Int("width"), c.Int("height"))
	}
	if c.IsSet("frames") {
		builder.WithMaxFrames(c.Int("frames"))
	}
	if c.IsSet("summary") {
		builder.WithSummary(c.String("summary"))
	}
	if c.IsSet("backend") {
		builder.WithBackend(c.String("backend"))
	}
	if c.IsSet("ffmpeg-path") {
		builder.WithFFmpegPath(c.String("ffmpeg-path"))
	}
	if c.IsSet("log-level") {
		builder.WithLogLevel(c.String("log-level"))
	}
	return builder.Build()
}
