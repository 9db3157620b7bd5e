package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio/internal/app"
	"portfolio/internal/config"
	"portfolio/internal/logger"
	"portfolio/internal/services"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the CLI. Running it without a subcommand serves the API.
func newRootCmd() *cobra.Command {
	v := config.New()
	var envFile string

	root := &cobra.Command{
		Use:          "portfolio",
		Short:        "Portfolio content API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				return config.LoadDotEnv(envFile)
			}
			return config.LoadDotEnv()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), v)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default .env)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), v)
		},
	}
	for _, cmd := range []*cobra.Command{root, serveCmd} {
		cmd.Flags().String("port", "", "listen address, e.g. :8080")
		cmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")
		cmd.Flags().String("storage", "", "storage driver (memory, sqlite, postgres)")
	}
	serveCmd.PreRunE = func(cmd *cobra.Command, args []string) error { return bindServeFlags(cmd, v) }
	root.PreRunE = func(cmd *cobra.Command, args []string) error { return bindServeFlags(cmd, v) }

	root.AddCommand(serveCmd, newHashPasswordCmd())
	return root
}

func bindServeFlags(cmd *cobra.Command, v *viper.Viper) error {
	for key, flag := range map[string]string{
		"APP_PORT":       "port",
		"LOG_LEVEL":      "log-level",
		"STORAGE_DRIVER": "storage",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

// newHashPasswordCmd prints a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := services.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func serve(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}

	format := cfg.LogFormat
	if format == "" && cfg.IsProduction() {
		format = "json"
	}
	logger.Init(cfg.LogLevel, format)

	if ctx == nil {
		ctx = context.Background()
	}
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize application")
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- application.Listen(cfg.Port)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("Server failed to start")
			application.Close(ctx)
			return err
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
		return err
	}

	log.Info().Msg("Server gracefully stopped")
	return nil
}
