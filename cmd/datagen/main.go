package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Mikeolab/devops-real-app/internal/generator"
)

func main() {
	if err := newDatagenCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func newDatagenCommand() *cobra.Command {
	cfg := generator.DefaultConfig()
	var (
		outputDir   string
		writeStdout bool
	)

	cmd := &cobra.Command{
		Use:           "datagen",
		Short:         "Generate a synthetic lead dataset for ingest and load testing",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg.InvalidChance = clampProbability(cfg.InvalidChance)
			cfg.NoteChance = clampProbability(cfg.NoteChance)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			payloads, err := generator.New(cfg).Generate(ctx)
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}

			if writeStdout {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payloads)
			}

			path, size, err := generator.WriteDataset(payloads, outputDir)
			if err != nil {
				return fmt.Errorf("write dataset: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Generated %s leads into %s (%s)\n",
				humanize.Comma(int64(len(payloads))), path, humanize.Bytes(uint64(size)))
			return err
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&cfg.NumLeads, "leads", "n", cfg.NumLeads, "number of leads to generate")
	flags.Float64Var(&cfg.InvalidChance, "invalid-chance", cfg.InvalidChance, "probability of emitting a malformed payload")
	flags.Float64Var(&cfg.NoteChance, "note-chance", cfg.NoteChance, "probability of attaching a note")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for deterministic generation")
	flags.StringVarP(&outputDir, "output-dir", "o", "data", "directory to write leads.json")
	flags.BoolVar(&writeStdout, "stdout", false, "write the dataset to stdout instead of a file")
	return cmd
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
