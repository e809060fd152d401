package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"explorecore/internal/adapters/memory"
	pg "explorecore/internal/adapters/postgres"
	"explorecore/internal/config"
	"explorecore/internal/exertion"
	"explorecore/internal/flow"
	"explorecore/internal/lifecycle"
	"explorecore/internal/ports"
	"explorecore/internal/urlsafety"
	"explorecore/internal/workers/explorerunner"
)

// store is what the server needs from a run store backend.
type store interface {
	ports.RunRepository
	ports.RunStatusStore
	ports.JobRepository
}

type app struct {
	store     store
	validator *urlsafety.Validator
	processor *explorerunner.Processor
	close     func()
}

func openStore(ctx context.Context, c *config.Config) (store, func(), error) {
	switch c.Store.Driver {
	case "memory":
		return memory.New(), func() {}, nil
	case "postgres":
		db, err := pg.Connect(ctx, c.Store.DatabaseURL)
		if err != nil {
			return nil, nil, eris.Wrap(err, "db connect")
		}
		return db, db.Close, nil
	default:
		return nil, nil, eris.Errorf("unknown store driver %q", c.Store.Driver)
	}
}

func newValidator(c *config.Config, log *zap.Logger) *urlsafety.Validator {
	return urlsafety.New(urlsafety.Options{
		Resolver:   urlsafety.NewNetResolver(c.URLSafety.ResolverTimeout(), c.URLSafety.DNSQPS),
		Cache:      urlsafety.NewCache(c.URLSafety.CacheSize, c.URLSafety.CacheTTL(), nil),
		FailClosed: c.URLSafety.FailClosed,
		Logger:     log.Named("urlsafety"),
	})
}

func buildApp(ctx context.Context, c *config.Config, log *zap.Logger) (*app, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	st, closeStore, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}
	validator := newValidator(c, log)
	manager := lifecycle.NewManager(
		lifecycle.NewStoreSink(st),
		lifecycle.WithLogger(log.Named("lifecycle")),
		lifecycle.WithRetry(c.Lifecycle.Retry()),
	)
	agent := explorerunner.ProbeAgent{
		Client: urlsafety.NewHTTPClient(validator, urlsafety.ClientOptions{MaxRedirects: c.URLSafety.MaxRedirects}),
	}
	processor := &explorerunner.Processor{
		Validator: validator,
		Selector:  flow.NewSelector(c.Flow),
		Scorer:    exertion.NewScorer(c.Scoring),
		Lifecycle: manager,
		Agent:     agent,
		Reports:   explorerunner.LogReportSink{Log: log.Named("reports")},
		Log:       log.Named("explorerunner"),
	}
	return &app{store: st, validator: validator, processor: processor, close: closeStore}, nil
}
