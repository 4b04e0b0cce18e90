package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	httpadapter "tendersight/internal/adapters/http"
	"tendersight/internal/domain"
	"tendersight/internal/services/analysis"
	"tendersight/internal/services/detectors"
	"tendersight/internal/workers/analysisrunner"
)

var storeFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "records",
		Usage: "Read records from a JSON snapshot instead of Postgres",
	},
	&cli.StringFlag{
		Name:    "bolt",
		Usage:   "Store findings in an embedded bbolt file instead of Postgres",
		EnvVars: []string{"BOLT_PATH"},
	},
}

func storeOpts(c *cli.Context) storeOptions {
	return storeOptions{
		recordsPath: c.String("records"),
		boltPath:    c.String("bolt"),
		dryRun:      c.Bool("dry-run"),
	}
}

func newEngine(a *app, st *stores, topN int) *analysis.Engine {
	return analysis.New(st.source, st.sink, detectors.All(a.cfg.Detectors, nil),
		analysis.WithTimeout(a.cfg.AnalysisTimeout),
		analysis.WithTopN(topN),
		analysis.WithFilter(a.cfg.RecordFilter()),
		analysis.WithLogger(a.logger),
	)
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Run one scoring pass and print the report as JSON",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Keep findings in memory only",
			},
			&cli.IntFlag{
				Name:    "top",
				Value:   20,
				Usage:   "Number of ranked findings in the report",
				EnvVars: []string{"REPORT_TOP_N"},
			},
		}, storeFlags...),
		Action: func(c *cli.Context) error {
			a := fromContext(c)
			st, err := openStores(c.Context, a.cfg, storeOpts(c))
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := newEngine(a, st, c.Int("top")).Run(c.Context)
			var partial *domain.PartialPersistenceError
			if err != nil && !errors.As(err, &partial) {
				return err
			}
			if encErr := printJSON(report); encErr != nil {
				return encErr
			}
			if partial != nil {
				return cli.Exit(partial.Error(), 3)
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the control API and optionally drain the run queue",
		Flags: storeFlags,
		Action: func(c *cli.Context) error {
			a := fromContext(c)
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStores(ctx, a.cfg, storeOpts(c))
			if err != nil {
				return err
			}
			defer st.Close()

			engine := newEngine(a, st, a.cfg.ReportTopN)
			srv := &http.Server{
				Addr:              a.cfg.ListenAddr,
				Handler:           httpadapter.New(st.runs, engine, st.reader, a.logger).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			if a.cfg.AnalysisWorker {
				go analysisrunner.Run(ctx, st.runs, engine, a.cfg.PollInterval)
				a.logger.Info().Dur("poll_interval", a.cfg.PollInterval).Msg("analysis worker started")
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			a.logger.Info().Str("addr", a.cfg.ListenAddr).Msg("listening")

			select {
			case <-ctx.Done():
				a.logger.Info().Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database schema migrations",
		Action: func(c *cli.Context) error {
			a := fromContext(c)
			st, err := openStores(c.Context, a.cfg, storeOptions{})
			if err != nil {
				return err
			}
			defer st.Close()
			return st.database.Migrate(c.Context)
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Summarize stored findings",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "since-days",
				Value: 7,
				Usage: "Window for the recent findings count",
			},
			&cli.StringFlag{
				Name:    "bolt",
				Usage:   "Read findings from an embedded bbolt file",
				EnvVars: []string{"BOLT_PATH"},
			},
		},
		Action: func(c *cli.Context) error {
			a := fromContext(c)
			opts := storeOptions{boltPath: c.String("bolt"), findingsOnly: true}
			st, err := openStores(c.Context, a.cfg, opts)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := st.reader.Stats(c.Context, time.Now().AddDate(0, 0, -c.Int("since-days")))
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
