package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpadapter "explorecore/internal/adapters/http"
	"explorecore/internal/services/explorer"
	"explorecore/internal/workers/explorerunner"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and exploration workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	log := zap.L()
	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpadapter.New(explorer.New(a.store), a.validator, a.store, a.processor, log.Named("http"))
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	workersDone := make(chan error, 1)
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	if cfg.Workers.Count > 0 {
		go func() {
			workersDone <- explorerunner.Run(workerCtx, a.store, a.processor, cfg.Workers.Count, cfg.Workers.PollInterval())
		}()
		log.Info("exploration workers started", zap.Int("count", cfg.Workers.Count))
	} else {
		workersDone <- nil
	}

	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	log.Info("listening", zap.String("addr", cfg.ListenAddr), zap.String("store", cfg.Store.Driver))

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			cancelWorkers()
			<-workersDone
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	cancelWorkers()
	return <-workersDone
}
