package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobrec/internal/config"
	"jobrec/internal/corpus"
	"jobrec/internal/domain"
	"jobrec/internal/embedding"
	"jobrec/internal/logger"
	"jobrec/internal/refresh"
	"jobrec/internal/service"
	"jobrec/internal/snippet"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          "jobrec",
		Short:        "jobrec recommends jobs for a set of skills by similarity search",
		SilenceUsage: true,
	}
)

func init() {
	cobra.OnInitialize(func() { _ = godotenv.Load() })
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"path to YAML config file (default ./config.yaml or ~/.config/jobrec/config.yaml)")
}

func loadConfig() (*config.AppConfig, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

// app wires the recommendation pipeline from config.
type app struct {
	cfg       *config.AppConfig
	logger    *zap.Logger
	rec       *service.Recommender
	provider  domain.CorpusProvider
	refresher *refresh.Refresher
	snippets  *snippet.Extractor
	closers   []func()
}

// newApp loads config and builds every component. quiet discards logs.
func newApp(ctx context.Context, quiet bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := zap.NewNop()
	if !quiet {
		if log, err = logger.New(cfg.Logging.Env, cfg.Logging.Level); err != nil {
			return nil, err
		}
	}

	a := &app{cfg: cfg, logger: log, snippets: snippet.New(cfg.Display.MaxSentences)}

	strategy, closeStrategy, err := embedding.NewStrategy(ctx, cfg.Encoder, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStrategy)

	switch cfg.Corpus.Source {
	case "postgres":
		pg, err := corpus.OpenPostgres(ctx, corpus.PostgresConfig{
			URLEnv: cfg.Corpus.Postgres.URLEnv,
			Query:  cfg.Corpus.Postgres.Query,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("postgres corpus: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		a.provider = pg
	default:
		a.provider = corpus.NewCSV(cfg.Corpus.CSV.Path)
	}

	a.rec = service.New(strategy)
	a.refresher = refresh.New(a.rec, a.provider, log)
	return a, nil
}

// queryOptions returns the configured query defaults.
func (a *app) queryOptions() []service.Option {
	opts := []service.Option{service.WithMaxResults(a.cfg.Recommend.MaxResults)}
	if a.cfg.Recommend.MinScore != nil {
		opts = append(opts, service.WithMinScore(*a.cfg.Recommend.MinScore))
	}
	return opts
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}
