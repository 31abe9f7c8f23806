package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/fxloop/broker/oanda"
	"github.com/rustyeddy/fxloop/config"
	"github.com/rustyeddy/fxloop/journal"
	"github.com/rustyeddy/fxloop/logging"
	"github.com/rustyeddy/fxloop/loop"
	"github.com/rustyeddy/fxloop/metrics"
	"github.com/rustyeddy/fxloop/model"
	"github.com/rustyeddy/fxloop/strategies"
)

// app is everything a command needs to run cycles against OANDA.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	client *oanda.Client
	engine *loop.Engine

	cleanup []func() error
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newApp(cfg *config.Config, withMetrics bool) (*app, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	a.log = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr).
		With().Str("instrument", cfg.Trading.Instrument).Logger()

	opts := cfg.OandaOptions()
	opts.Logger = a.log
	client, err := oanda.NewClient(cfg.Broker.Token, cfg.Broker.AccountID, opts)
	if err != nil {
		return nil, fmt.Errorf("oanda client: %w", err)
	}
	a.client = client

	strat, err := a.strategy()
	if err != nil {
		a.Close()
		return nil, err
	}

	reporters := loop.MultiReporter{loop.LogReporter{Log: a.log}}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		a.Close()
		return nil, err
	}
	if j != nil {
		a.cleanup = append(a.cleanup, j.Close)
		reporters = append(reporters, journal.Reporter{J: j})
	}

	if withMetrics && cfg.Metrics.Enabled {
		m := metrics.New()
		srv := m.Serve(cfg.Metrics.Addr, a.log)
		a.cleanup = append(a.cleanup, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		})
		reporters = append(reporters, metrics.Reporter{M: m})
		a.log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics listening")
	}

	engine, err := loop.New(cfg.LoopConfig(), loop.Deps{
		Broker:   client,
		Strategy: strat,
		Guard:    cfg.GuardParams(),
		Reporter: reporters,
		Logger:   a.log,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	a.engine = engine
	return a, nil
}

func (a *app) strategy() (strategies.Strategy, error) {
	var pred strategies.Predictor
	if a.cfg.Strategy.Name == "predictive" {
		m, err := model.Open(a.cfg.Strategy.Model, len(strategies.FeatureNames))
		if err != nil {
			return nil, fmt.Errorf("open model: %w", err)
		}
		a.cleanup = append(a.cleanup, m.Close)
		pred = m
	}
	s, err := strategies.ByName(a.cfg.StrategyConfig(), pred)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	return s, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		errs = append(errs, a.cleanup[i]())
	}
	a.cleanup = nil
	return errors.Join(errs...)
}

// openJournal returns nil when journaling is off.
func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "none":
		return nil, nil
	case "", "sqlite":
		j, err := journal.NewSQLite(jc.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		return j, nil
	case "csv":
		c, err := openCSV(jc.Path)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "both":
		db, err := journal.NewSQLite(jc.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		csvPath := jc.CSVPath
		if csvPath == "" {
			csvPath = strings.TrimSuffix(jc.Path, filepath.Ext(jc.Path)) + ".csv"
		}
		c, err := openCSV(csvPath)
		if err != nil {
			db.Close()
			return nil, err
		}
		return journal.Multi{db, c}, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q", jc.Type)
	}
}

// openCSV writes cycles to path and orders next to it.
func openCSV(path string) (*journal.CSVJournal, error) {
	orders := strings.TrimSuffix(path, filepath.Ext(path)) + "_orders.csv"
	j, err := journal.NewCSV(path, orders)
	if err != nil {
		return nil, fmt.Errorf("open csv journal: %w", err)
	}
	return j, nil
}
