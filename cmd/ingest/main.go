package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Mikeolab/devops-real-app/internal/config"
	"github.com/Mikeolab/devops-real-app/internal/logging"
	"github.com/Mikeolab/devops-real-app/internal/repository"
	"github.com/Mikeolab/devops-real-app/internal/service"
)

var errEmptyDataset = errors.New("dataset is empty")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newIngestCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func newIngestCommand() *cobra.Command {
	var (
		configFile string
		workers    int
	)

	cmd := &cobra.Command{
		Use:           "ingest <leads.json>",
		Short:         "Bulk-import lead submissions into the configured store",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := config.LoadFile(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return ingest(cmd.Context(), cfg, args[0], workers)
		},
	}

	addIngestFlags(cmd.Flags(), &configFile, &workers)
	return cmd
}

func addIngestFlags(flags *pflag.FlagSet, configFile *string, workers *int) {
	flags.StringVarP(configFile, "config", "c", "", "path to a config file (overrides CONFIG_FILE)")
	flags.IntVarP(workers, "workers", "w", 4, "number of concurrent workers for ingestion")
}

func ingest(ctx context.Context, cfg config.Config, path string, workers int) error {
	logger := logging.New(cfg.Logging).With("component", "ingest")

	payloads, size, err := loadPayloads(path)
	if err != nil {
		return err
	}
	if len(payloads) == 0 {
		return fmt.Errorf("%w: %s", errEmptyDataset, path)
	}
	logger.Info("dataset loaded", "path", path, "size", humanize.Bytes(uint64(size)), "leads", len(payloads))

	store, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("closing lead store failed", "error", err)
		}
	}()

	svc := service.NewLeadService(store, nil)
	ingestor := service.NewBulkIngestor(svc, workers)

	start := time.Now()
	logger.Info("ingesting leads", "backend", cfg.Storage.Backend, "workers", workers)
	report, err := ingestor.IngestLeads(ctx, payloads)
	logger.Info("ingestion complete",
		"duration", time.Since(start).String(),
		"created", humanize.Comma(int64(report.Created)),
		"rejected", report.Rejected,
		"failed", report.Failed,
	)
	if err != nil {
		return fmt.Errorf("ingest leads: %w", err)
	}
	return nil
}

func loadPayloads(path string) ([]service.Payload, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat %s: %w", path, err)
	}

	var payloads []service.Payload
	if err := json.NewDecoder(file).Decode(&payloads); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return payloads, info.Size(), nil
}
