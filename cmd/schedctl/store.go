package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hvac-crew/schedule/backend/internal/config"
	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/repository"
	"github.com/spf13/cobra"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var weeksNamespace string

var weeksCmd = &cobra.Command{
	Use:   "weeks",
	Short: "Inspect stored weeks",
}

var weeksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored keys of a namespace",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(cmd, func(ctx context.Context, repo *repository.Repository) error {
			keys, err := repo.ListBlobKeys(ctx, weeksNamespace)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		})
	},
}

var weeksDumpCmd = &cobra.Command{
	Use:   "dump <weekKey>",
	Short: "Print a stored week as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(cmd, func(ctx context.Context, repo *repository.Repository) error {
			blob, err := repo.GetBlob(ctx, weeksNamespace, args[0])
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%s/%s not found", weeksNamespace, args[0])
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(blob)
		})
	},
}

func init() {
	weeksCmd.PersistentFlags().StringVar(&weeksNamespace, "namespace", domain.NamespaceWeeks, "Store namespace (weeks, persistent, baselines)")
}

func withRepository(cmd *cobra.Command, fn func(ctx context.Context, repo *repository.Repository) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.DSN == "" {
		return repository.ErrStoreNotConfigured
	}

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	repo := repository.NewRepository(cfg, db)
	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return fn(ctx, repo)
}
