package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/muse/internal"
	pkgconfig "github.com/starford/muse/pkg/config"
)

const version = "1.0.0"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	// The flag wins over the file.
	if dir := cmd.String("dir"); dir != "" {
		cfg.Workspace.Dir = dir
	}
	return cfg, nil
}

func action(run func(context.Context, ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.IsSet("port") {
			cfg.Preview.Port = int(cmd.Int("port"))
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithVersion(version),
		}
		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "muse",
		Usage:   "Block-based markdown notes in the terminal",
		Version: version,
		Action:  action(internal.Run),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("MUSE_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Workspace directory (overrides workspace.dir)",
				Sources: cli.EnvVars("MUSE_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Serve rendered previews of the workspace over HTTP",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "Preview server port (overrides preview.port)",
					},
				},
				Action: action(internal.RunServe),
			},
			{
				Name:   "mcp",
				Usage:  "Expose the workspace to MCP clients over stdio",
				Action: action(internal.RunMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
