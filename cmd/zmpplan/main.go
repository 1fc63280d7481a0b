// Package main plans center of mass trajectories for gait files from the command line.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mohakhalili/towr/logging"
)

const (
	// Flags.
	flagGait   = "gait"
	flagDebug  = "debug"
	flagLog    = "log-file"
	flagLevel  = "log-level"
	flagNLP    = "nlp"
	flagOut    = "out"
	flagDt     = "dt"
	flagWidth  = "width"
	flagHeight = "height"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	var (
		logger  logging.Logger
		logFile *logging.FileAppender
	)

	gaitFlag := &cli.StringFlag{
		Name:     flagGait,
		Aliases:  []string{"g"},
		Usage:    "load the gait request from `FILE`",
		Required: true,
	}
	app := &cli.App{
		Name:  "zmpplan",
		Usage: "plan dynamically stable center of mass trajectories for quadruped gaits",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLevel,
				Usage: "log at `LEVEL` (debug, info, warn or error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  flagLog,
				Usage: "also write logs to `FILE`, rotated every 16MB",
			},
		},
		Before: func(c *cli.Context) error {
			logger = logging.NewLogger("zmpplan")
			level, err := logging.LevelFromString(c.String(flagLevel))
			if err != nil {
				return err
			}
			if c.Bool(flagDebug) {
				level = logging.DEBUG
			}
			logger.SetLevel(level)
			if path := c.String(flagLog); path != "" {
				logFile = logging.NewFileAppender(path, 16, 3)
				logger.AddAppender(logFile)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if logFile == nil {
				return nil
			}
			return logFile.Close()
		},
		Commands: []*cli.Command{
			{
				Name:  "solve",
				Usage: "formulate and solve the trajectory of a gait",
				Flags: []cli.Flag{
					gaitFlag,
					&cli.BoolFlag{
						Name:  flagNLP,
						Usage: "refine the QP solution and the footholds with the nonlinear solver",
					},
				},
				Action: func(c *cli.Context) error {
					return solveAction(c, logger)
				},
			},
			{
				Name:  "plot",
				Usage: "solve a gait and plot the CoM and ZMP paths",
				Flags: []cli.Flag{
					gaitFlag,
					&cli.StringFlag{
						Name:  flagOut,
						Usage: "write the plots into `DIR`",
						Value: "plots",
					},
					&cli.Float64Flag{
						Name:  flagDt,
						Usage: "sample the trajectory every `SECONDS`",
						Value: 0.01,
					},
					&cli.Float64Flag{
						Name:  flagWidth,
						Usage: "plot width in inches",
						Value: 8,
					},
					&cli.Float64Flag{
						Name:  flagHeight,
						Usage: "plot height in inches",
						Value: 6,
					},
					&cli.BoolFlag{
						Name:  flagNLP,
						Usage: "plot the refined solution",
					},
				},
				Action: func(c *cli.Context) error {
					return plotAction(c, logger)
				},
			},
			{
				Name:  "lines",
				Usage: "print the spline sequence and the support triangle lines of a gait",
				Flags: []cli.Flag{gaitFlag},
				Action: func(c *cli.Context) error {
					return linesAction(c, logger)
				},
			},
			{
				Name:   "schema",
				Usage:  "print the json schema of gait files",
				Action: schemaAction,
			},
		},
	}
	return app
}
