package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/imagesim/internal"
	"github.com/starford/imagesim/internal/apperr"
	pkgconfig "github.com/starford/imagesim/pkg/config"
)

const defaultConfigFile = "config/config.yaml"

const guidance = `No images given.
Pass the image files to compare, for example:

    imagesim photos/*.jpg

The report is written to similarity.txt.`

// loadConfig reads the config file over the built-in defaults.
// Only the default path may be absent; a file named by the user must exist.
func loadConfig(path string, explicit bool) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if explicit {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		return cfg, nil
	}
	if err := pkgconfig.LoadOptional(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd.IsSet("config"))
	if err != nil {
		return err
	}
	if out := cmd.String("output"); out != "" {
		cfg.Report.Path = out
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithPaths(cmd.Args().Slice()),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		if errors.Is(err, apperr.ErrNoImages) {
			fmt.Println(guidance)
			return nil
		}
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "imagesim",
		Usage:     "Find local peaks of visual similarity across a batch of images",
		ArgsUsage: "IMAGE...",
		Action:    run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file",
				Value:   defaultConfigFile,
				Sources: cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report file (overrides report.path)",
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
