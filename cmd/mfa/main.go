// Command mfa runs the MemeforAnyone service and its operator tooling.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kbukum/memeforanyone/config"
	"github.com/kbukum/memeforanyone/logger"
	"github.com/kbukum/memeforanyone/version"

	_ "github.com/kbukum/memeforanyone/storage/local"
	_ "github.com/kbukum/memeforanyone/storage/s3"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "mfa: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "mfa",
		Usage:     "MemeforAnyone service",
		Version:   version.GetVersionInfo().String(),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Usage:   "Directory containing models, default, <run-mode> and local config files",
				Value:   config.DefaultDir,
				EnvVars: []string{"MFA_CONFIG_DIR"},
			},
			&cli.StringFlag{
				Name:  "run-mode",
				Usage: "Run mode selecting config/<run-mode>; overrides " + config.RunModeEnv,
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before the environment is read; empty disables it",
				Value: config.DefaultEnvFile,
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server and block until interrupted",
				Action: serve,
			},
			configCommand(),
			storageCommand(),
			{
				Name:  "version",
				Usage: "Print build information",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprintln(c.App.Writer, version.GetVersionInfo().Full())
					return err
				},
			},
		},
	}
}

// loadConfig resolves the configuration from the global flags.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	opts := []config.Option{
		config.WithDir(c.String("config-dir")),
		config.WithEnvFile(c.String("env-file")),
	}
	if mode := c.String("run-mode"); mode != "" {
		opts = append(opts, config.WithRunMode(mode))
	}
	return config.Load(opts...)
}

// initLogger installs the global logger from cfg. When toStderr is set the
// logger never writes to stdout, keeping command output clean.
func initLogger(cfg *config.AppConfig, toStderr bool) *logger.Logger {
	logCfg := cfg.Logging
	if toStderr {
		logCfg.Output = "stderr"
	}
	logger.Init(&logCfg, config.ServiceName)
	return logger.GetGlobalLogger()
}
