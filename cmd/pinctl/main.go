package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "pinctl",
		Version: version,
		Usage:   "Operate a running pin scheduler service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:10001",
				Usage:   "base URL of the pin scheduler service",
				EnvVars: []string{"PINCTL_SERVER"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Pinterest access token, used to look up boards",
				EnvVars: []string{"PINTEREST_ACCESS_TOKEN"},
			},
		},
		Commands: []*cli.Command{
			ListCmd(),
			ImportCmd(),
			PublishDueCmd(),
			AccountsCmd(),
			TemplateCmd(),
		},
	}
}
