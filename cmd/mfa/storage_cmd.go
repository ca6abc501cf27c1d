package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kbukum/memeforanyone/bootstrap"
	"github.com/kbukum/memeforanyone/config"
	"github.com/kbukum/memeforanyone/observability"
	"github.com/kbukum/memeforanyone/storage"
	"github.com/kbukum/memeforanyone/version"
)

func storageCommand() *cli.Command {
	return &cli.Command{
		Name:  "storage",
		Usage: "Run one storage operation against the configured backend",
		Subcommands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List keys under a prefix",
				ArgsUsage: "[prefix]",
				Action: withStorage(0, func(ctx context.Context, c *cli.Context, s *storage.Storage) error {
					keys, err := s.List(ctx, c.Args().First())
					if err != nil {
						return err
					}
					for _, k := range keys {
						fmt.Fprintln(c.App.Writer, k)
					}
					return nil
				}),
			},
			{
				Name:      "cat",
				Usage:     "Print an object's contents",
				ArgsUsage: "<path>",
				Action: withStorage(1, func(ctx context.Context, c *cli.Context, s *storage.Storage) error {
					data, err := s.Read(ctx, c.Args().First())
					if err != nil {
						return err
					}
					_, err = c.App.Writer.Write(data)
					return err
				}),
			},
			{
				Name:      "put",
				Usage:     "Write a local file, or stdin when the source is -, to a path",
				ArgsUsage: "<path> <file|->",
				Action: withStorage(2, func(ctx context.Context, c *cli.Context, s *storage.Storage) error {
					data, err := readSource(c.App.Reader, c.Args().Get(1))
					if err != nil {
						return err
					}
					return s.Write(ctx, c.Args().First(), data)
				}),
			},
			{
				Name:      "stat",
				Usage:     "Print an object's metadata as JSON",
				ArgsUsage: "<path>",
				Action: withStorage(1, func(ctx context.Context, c *cli.Context, s *storage.Storage) error {
					md, err := s.Stat(ctx, c.Args().First())
					if err != nil {
						return err
					}
					enc := json.NewEncoder(c.App.Writer)
					enc.SetIndent("", "  ")
					return enc.Encode(md)
				}),
			},
			{
				Name:      "exists",
				Usage:     "Print whether an object exists",
				ArgsUsage: "<path>",
				Action: withStorage(1, func(ctx context.Context, c *cli.Context, s *storage.Storage) error {
					ok, err := s.Exists(ctx, c.Args().First())
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.App.Writer, ok)
					return err
				}),
			},
			{
				Name:      "rm",
				Usage:     "Delete an object",
				ArgsUsage: "<path>",
				Action: withStorage(1, func(ctx context.Context, c *cli.Context, s *storage.Storage) error {
					return s.Delete(ctx, c.Args().First())
				}),
			},
		},
	}
}

type storageAction func(ctx context.Context, c *cli.Context, s *storage.Storage) error

// withStorage checks the argument count, then runs fn as a one-shot task
// with the telemetry and storage components started around it. Storage
// errors from fn are reported as application errors so the exit message
// carries a code.
func withStorage(nargs int, fn storageAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.Args().Len() < nargs {
			return fmt.Errorf("usage: mfa storage %s %s", c.Command.Name, c.Command.ArgsUsage)
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		log := initLogger(cfg, true)

		app := bootstrap.NewApp(config.ServiceName, version.Version,
			bootstrap.WithLogger(log),
			bootstrap.WithSummaryOutput(io.Discard),
		)
		store := storage.NewComponent(cfg.Storage, log)
		if err := app.RegisterComponent(observability.NewComponent(cfg.Observability)); err != nil {
			return err
		}
		if err := app.RegisterComponent(store); err != nil {
			return err
		}

		return app.RunTask(c.Context, func(ctx context.Context) error {
			err := fn(ctx, c, store.Storage())
			var se *storage.Error
			if errors.As(err, &se) {
				return storage.ToAppError(err)
			}
			return err
		})
	}
}

func readSource(stdin io.Reader, src string) ([]byte, error) {
	if src == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(src)
}
