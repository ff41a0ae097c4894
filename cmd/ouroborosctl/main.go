// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

// Command ouroborosctl is a small operator devtool that exercises the
// Ouroboros engine end-to-end against in-memory ledger and transport
// doubles, driven by an operator-authored YAML scenario file. It is not
// part of the engine's own contract — networking, the ledger database,
// and account/key management all live in the surrounding node — and
// exists only to make the engine observable outside of its test suite.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "ouroborosctl",
		Usage: "run and inspect Ouroboros consensus engine scenarios",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug-level logging",
			},
		},
		Commands: []*cli.Command{
			runCommand,
			scheduleCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("ouroborosctl")
	}
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "drive an engine through a scenario's configured number of steps",
	ArgsUsage: "<scenario.yaml>",
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:  "steps",
			Usage: "override the scenario's step count",
		},
	},
	Action: func(c *cli.Context) error {
		configureLogging(c)

		path := c.Args().First()
		if path == "" {
			return cli.Exit("ouroborosctl: run requires a scenario path", 1)
		}
		scenario, err := LoadScenario(path)
		if err != nil {
			return cli.Exit(err, 1)
		}
		if c.IsSet("steps") {
			scenario.Steps = c.Uint64("steps")
		}
		if scenario.Steps == 0 {
			scenario.Steps = scenario.SecurityParameterK * 10 * 2 // two full epochs by default
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := runScenario(ctx, scenario); err != nil {
			return cli.Exit(fmt.Sprintf("ouroborosctl: %v", err), 1)
		}
		return nil
	},
}

var scheduleCommand = &cli.Command{
	Name:      "schedule",
	Usage:     "print the genesis leader schedule a scenario would compute, without stepping",
	ArgsUsage: "<scenario.yaml>",
	Action: func(c *cli.Context) error {
		configureLogging(c)

		path := c.Args().First()
		if path == "" {
			return cli.Exit("ouroborosctl: schedule requires a scenario path", 1)
		}
		scenario, err := LoadScenario(path)
		if err != nil {
			return cli.Exit(err, 1)
		}
		if err := printGenesisSchedule(scenario); err != nil {
			return cli.Exit(fmt.Sprintf("ouroborosctl: %v", err), 1)
		}
		return nil
	},
}

func configureLogging(c *cli.Context) {
	if c.Bool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
