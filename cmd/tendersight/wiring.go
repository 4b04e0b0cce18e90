package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"tendersight/internal/adapters/bolt"
	"tendersight/internal/adapters/jsonfile"
	"tendersight/internal/adapters/memory"
	"tendersight/internal/adapters/postgres"
	"tendersight/internal/config"
	"tendersight/internal/ports"
	"tendersight/internal/telemetry"
)

var (
	_ ports.RecordSource  = (*postgres.DB)(nil)
	_ ports.FindingSink   = (*postgres.DB)(nil)
	_ ports.FindingReader = (*postgres.DB)(nil)
	_ ports.RunRepository = (*postgres.DB)(nil)
	_ ports.FindingSink   = (*bolt.Store)(nil)
	_ ports.FindingReader = (*bolt.Store)(nil)
	_ ports.RecordSource  = (*jsonfile.Records)(nil)
	_ ports.RunRepository = (*memory.Runs)(nil)
)

type appKey struct{}

// app is the per-invocation state built in setup.
type app struct {
	cfg    config.Config
	logger zerolog.Logger
}

func setup(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return cli.Exit(fmt.Sprintf("configuration: %v", err), 2)
	}
	logger, err := telemetry.NewLogger(os.Stderr, cfg.Env, c.String("log-level"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	c.Context = context.WithValue(logger.WithContext(c.Context), appKey{}, &app{cfg: cfg, logger: logger})
	return nil
}

func fromContext(c *cli.Context) *app { return c.Context.Value(appKey{}).(*app) }

// stores holds the adapters chosen for one command and closes them.
type stores struct {
	source   ports.RecordSource
	sink     ports.FindingSink
	reader   ports.FindingReader
	runs     ports.RunRepository
	closers  []io.Closer
	database *postgres.DB
}

func (s *stores) Close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
	if s.database != nil {
		s.database.Close()
	}
}

type storeOptions struct {
	recordsPath  string
	boltPath     string
	dryRun       bool
	findingsOnly bool
}

// openStores picks adapters: a JSON snapshot or Postgres for records; the
// memory store, bbolt or Postgres for findings; Postgres or memory for runs.
func openStores(ctx context.Context, cfg config.Config, opts storeOptions) (*stores, error) {
	s := &stores{}
	needDB := (!opts.findingsOnly && opts.recordsPath == "") || (!opts.dryRun && opts.boltPath == "")
	if needDB {
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required unless --records and --bolt or --dry-run are given")
		}
		db, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		s.database = db
	}

	switch {
	case opts.recordsPath != "":
		s.source = jsonfile.New(opts.recordsPath)
	case s.database != nil:
		s.source = s.database
	}

	switch {
	case opts.dryRun:
		mem := memory.NewFindings()
		s.sink, s.reader = mem, mem
	case opts.boltPath != "":
		store, err := bolt.Open(opts.boltPath)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, store)
		s.sink, s.reader = store, store
	default:
		s.sink, s.reader = s.database, s.database
	}

	if s.database != nil {
		s.runs = s.database
	} else {
		s.runs = memory.NewRuns()
	}
	return s, nil
}
