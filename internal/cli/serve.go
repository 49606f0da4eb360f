package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/exam-archive/backend/internal/api"
)

// shutdownTimeout bounds how long in-flight requests may finish after a signal
const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server with the JSON API and the embedded UI.

The server stops on SIGINT or SIGTERM and lets in-flight requests finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, a, version)
		},
	}
}

func serve(ctx context.Context, a *app, version string) error {
	e := api.NewServer(&api.Dependencies{
		Groups:  a.groups,
		Files:   a.files,
		Logger:  a.log,
		Config:  a.cfg,
		Version: version,
	})

	cfg := a.cfg
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      e,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	a.log.Info(ctx, "server starting",
		zap.String("version", version),
		zap.String("config", a.configPath),
		zap.String("listen", cfg.GetServerAddr()),
		zap.String("root", cfg.GetRootDir()),
	)

	errc := make(chan error, 1)
	go func() {
		errc <- s.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.log.Info(context.Background(), "server stopped")

	return nil
}
