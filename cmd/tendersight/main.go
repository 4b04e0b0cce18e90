// Command tendersight scores procurement awards for favoritism and market
// distortion patterns.
//
// Usage:
//
//	tendersight analyze [--records snapshot.json] [--bolt findings.db] [--dry-run]
//	tendersight serve
//	tendersight migrate
//	tendersight stats [--since-days 7]
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "tendersight",
		Usage:   "Anomaly scoring for public procurement awards",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			analyzeCommand(),
			serveCommand(),
			migrateCommand(),
			statsCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
