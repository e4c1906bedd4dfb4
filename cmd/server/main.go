package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mikeolab/devops-real-app/internal/auth"
	"github.com/Mikeolab/devops-real-app/internal/config"
	"github.com/Mikeolab/devops-real-app/internal/logging"
	"github.com/Mikeolab/devops-real-app/internal/metrics"
	"github.com/Mikeolab/devops-real-app/internal/quotes"
	"github.com/Mikeolab/devops-real-app/internal/ratelimit"
	"github.com/Mikeolab/devops-real-app/internal/repository"
	"github.com/Mikeolab/devops-real-app/internal/server"
	"github.com/Mikeolab/devops-real-app/internal/service"
)

func main() {
	os.Exit(submain(context.Background()))
}

func submain(ctx context.Context) int {
	cmd := newRootCommand()
	ctx = withSignalCancel(ctx)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if err != context.Canceled {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "leadsd",
		Short:         "HTTP API that accepts service leads and lists them for operators",
		SilenceErrors: true,
		Example: `
  # Local JSON file storage on port 3000
  leadsd

  # MongoDB storage with a protected read endpoint
  LEADS_BACKEND=mongo MONGO_URI=mongodb://localhost:27017 JWT_SECRET=change-me leadsd
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := config.LoadFile(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a config file (overrides CONFIG_FILE)")
	cmd.AddCommand(newTokenCommand(&configFile))
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logger := logging.New(cfg.Logging).With("app", "leadsd")

	store, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("closing lead store failed", "error", err)
		}
	}()
	logger.Info("lead store ready", "backend", cfg.Storage.Backend)

	var m *metrics.Metrics
	var observer service.LeadObserver
	if cfg.HTTP.MetricsEnabled {
		m = metrics.New(cfg.Storage.Backend)
		observer = m
	}

	leadService := service.NewLeadService(store, observer)

	verifier, err := buildVerifier(logger, cfg.Auth)
	if err != nil {
		return err
	}

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.StoreHealthService{Store: store},
		Leads:            server.NewLeadHandlers(logger, leadService, cfg.HTTP.MaxBodyBytes),
		Quotes:           server.NewQuoteHandlers(logger, quotes.NewClient(cfg.Quotes.URL, cfg.Quotes.Timeout)),
		Metrics:          m,
		Verifier:         verifier,
		ReadAuthMode:     cfg.Auth.ReadMode,
		Limiter:          ratelimit.New(cfg.RateLimit.Window, cfg.RateLimit.Max),
		TrustProxy:       cfg.HTTP.TrustProxy,
		StaticDir:        cfg.HTTP.StaticDir,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: false,
	})

	srv := server.New(logger, cfg.HTTP, router)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped unexpectedly", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

func buildVerifier(logger *slog.Logger, cfg config.AuthConfig) (server.TokenVerifier, error) {
	if cfg.ReadMode == config.AuthModeOff {
		if cfg.JWTSecret == "" {
			logger.Warn("JWT_SECRET is not set; GET /leads is unauthenticated")
		}
		return nil, nil
	}
	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("build token verifier: %w", err)
	}
	logger.Info("lead listing protected", "mode", cfg.ReadMode)
	return verifier, nil
}

func withSignalCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()
	return ctx
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
