package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joelkehle/b2g-transformer/internal/config"
	"github.com/joelkehle/b2g-transformer/internal/logging"
	"github.com/joelkehle/b2g-transformer/internal/site"
	"github.com/joelkehle/b2g-transformer/internal/store"
	"github.com/joelkehle/b2g-transformer/internal/telemetry"
	"github.com/joelkehle/b2g-transformer/internal/valuation"
)

var cfgPath string

func main() {
	v := config.New()
	rootCmd := &cobra.Command{
		Use:   "b2g-site",
		Short: "Serve the B2G landing page and valuation demo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, v)
		},
		SilenceUsage: true,
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&cfgPath, "config", "c", "", "path to a YAML config file")
	flags.String("addr", ":8080", "listen address")
	flags.String("db-driver", "sqlite", "database driver: sqlite or pgx")
	flags.String("db-dsn", "b2g.db", "database DSN or SQLite file path")
	flags.String("log-level", "info", "log level")
	flags.Bool("log-pretty", false, "human readable console logs")
	flags.Duration("stage-delay", valuation.DefaultStageDelay, "delay between valuation stages")
	for key, name := range map[string]string{
		"addr":                  "addr",
		"db.driver":             "db-driver",
		"db.dsn":                "db-dsn",
		"log.level":             "log-level",
		"log.pretty":            "log-pretty",
		"valuation.stage_delay": "stage-delay",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, v *viper.Viper) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, err := config.Load(v, cfgPath)
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Pretty)
	ctx, stop := signal.NotifyContext(logger.WithContext(cmd.Context()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	repo, err := store.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer repo.Close()
	logger.Info().Str("driver", cfg.DB.Driver).Msg("run store ready")

	runs := site.NewRunStore(repo, cfg.Valuation.MaxRuns, logger)
	if n, err := runs.RecoverInterrupted(ctx); err != nil {
		return fmt.Errorf("recover interrupted runs: %w", err)
	} else if n > 0 {
		logger.Warn().Int64("runs", n).Msg("marked unfinished runs as failed")
	}

	gen := valuation.NewGenerator(newCaller(cfg, logger), cfg.Valuation.Timeout, logger)
	srv := site.NewServer(ctx, site.Deps{
		Sequencer: valuation.NewSequencer(gen, cfg.Valuation.StageDelay),
		Runs:      runs,
		PDF:       site.NewChromiumPDFRenderer(cfg.PDF.ChromePath),
		Logger:    logger,
	})

	httpSrv := &http.Server{Addr: cfg.Addr, Handler: srv.Handler()}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("b2g-site listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	srv.Wait()
	return nil
}

// newCaller returns nil when no API key is set or B2G_NO_LLM is on; reports
// then come from the canned fallback.
func newCaller(cfg config.Config, logger zerolog.Logger) valuation.LLMCaller {
	caller, err := valuation.NewAnthropicCallerFromEnv(cfg.Valuation.Model, cfg.Valuation.MaxTokens)
	if err != nil {
		logger.Info().Err(err).Msg("live valuation disabled")
		return nil
	}
	return caller
}
