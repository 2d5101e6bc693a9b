package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go-vk/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only JSON API over the graph store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyStoreFlags(cmd, &cfg.Store)
		if cmd.Flags().Changed("addr") {
			cfg.Serve.Addr, _ = cmd.Flags().GetString("addr")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close(context.WithoutCancel(ctx))

		app := server.New(store)
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
		go func() {
			<-ctx.Done()
			if err := app.Shutdown(); err != nil {
				slog.Warn("shutdown", slog.Any("error", err))
			}
		}()

		slog.Info("serving", slog.String("addr", cfg.Serve.Addr), slog.String("backend", cfg.Store.Backend))
		return app.Listen(cfg.Serve.Addr)
	},
}

func init() {
	addStoreFlags(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
}
