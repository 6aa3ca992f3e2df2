package cli

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"timed-quiz/internal/config"
	"timed-quiz/internal/infra/bank"
	"timed-quiz/internal/infra/postgres"
)

// NewSeedCmd loads question bank files into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [bank files...]",
		Short: "Load question bank files into Postgres",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, args)
		},
	}
}

func runSeed(ctx context.Context, configPath string, paths []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	db, err := openBunDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, path := range paths {
		file, err := bank.ReadFile(path)
		if err != nil {
			return err
		}
		if err := postgres.SeedQuestions(ctx, db, file.Source, file.Questions); err != nil {
			return err
		}
		log.Printf("seeded %d questions for source %s from %s", len(file.Questions), file.Source, path)
	}
	return nil
}
