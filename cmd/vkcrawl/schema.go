package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create graph store indexes and tables if missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyStoreFlags(cmd, &cfg.Store)
		ctx := cmd.Context()
		store, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		slog.Info("schema ready", slog.String("backend", cfg.Store.Backend))
		return nil
	},
}

func init() {
	addStoreFlags(schemaCmd)
}
