package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/taskhub/internal/config"
	"github.com/gosuda/taskhub/internal/store/postgres"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(*cobra.Command, []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				return migrateUp(cfg)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			RunE: func(*cobra.Command, []string) error {
				return withMigrator(func(mg *postgres.Migrator) error {
					if err := mg.Down(); err != nil {
						return err
					}
					log.Info().Msg("migrations rolled back")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(func(mg *postgres.Migrator) error {
					version, dirty, ok, err := mg.Version()
					if err != nil {
						return err
					}
					if !ok {
						cmd.Println("no migrations applied")
						return nil
					}
					cmd.Printf("version %d (dirty: %t)\n", version, dirty)
					return nil
				})
			},
		},
	)

	return cmd
}

func withMigrator(fn func(*postgres.Migrator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.StorePostgres {
		return errors.New("migrations require TASKHUB_STORE_DRIVER=postgres")
	}
	mg, err := postgres.NewMigrator(cfg.Database.URL())
	if err != nil {
		return err
	}
	defer func() {
		if err := mg.Close(); err != nil {
			log.Warn().Err(err).Msg("migrator close failed")
		}
	}()
	return fn(mg)
}

func migrateUp(cfg *config.Config) error {
	mg, err := postgres.NewMigrator(cfg.Database.URL())
	if err != nil {
		return err
	}
	defer func() {
		if err := mg.Close(); err != nil {
			log.Warn().Err(err).Msg("migrator close failed")
		}
	}()
	if err := mg.Up(); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	log.Info().Msg("migrations applied")
	return nil
}
