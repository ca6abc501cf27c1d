package main

import (
	"encoding/json"

	"github.com/urfave/cli/v2"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect the resolved configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the resolved configuration as JSON with secrets masked",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					enc := json.NewEncoder(c.App.Writer)
					enc.SetIndent("", "  ")
					return enc.Encode(cfg.Redacted())
				},
			},
		},
	}
}
