package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/symark/internal"
	pkgconfig "github.com/starford/symark/pkg/config"
)

var version = "dev"

type entrypoint func(ctx context.Context, opts ...internal.Option) error

// loadConfig reads the config file, falling back to defaults when the file
// does not exist, then applies command-line overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("source"); v != "" {
		cfg.Site.Source = v
	}
	if v := cmd.String("output"); v != "" {
		cfg.Site.Output = v
	}
	if v := cmd.Int("port"); v > 0 {
		cfg.App.HTTP.Port = int(v)
	}
	if cmd.Bool("no-watch") {
		cfg.Watch.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func action(run entrypoint, extra ...internal.Option) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := append([]internal.Option{
			internal.WithConfig(cfg),
			internal.WithVersion(version),
		}, extra...)
		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "symark",
		Usage:   "Static site generator for SiYuan notes",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("SYMARK_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Directory holding the .sy notes",
				Sources: cli.EnvVars("SYMARK_SOURCE"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory the site is written to",
				Sources: cli.EnvVars("SYMARK_OUTPUT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Generate the site once",
				Action: action(internal.Build),
			},
			{
				Name:  "serve",
				Usage: "Generate the site, serve it with the API and rebuild on changes",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "HTTP port",
						Sources: cli.EnvVars("SYMARK_PORT"),
					},
					&cli.BoolFlag{
						Name:  "no-watch",
						Usage: "Do not rebuild when sources change",
					},
				},
				Action: action(internal.Run),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the notes as MCP tools over stdio",
				Action: action(internal.ServeMCP, internal.WithLogOutput(os.Stderr)),
			},
		},
		DefaultCommand: "build",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
