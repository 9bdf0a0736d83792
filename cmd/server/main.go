package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shiksha-ai/server/internal/auth"
	"github.com/shiksha-ai/server/internal/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	root := &cobra.Command{
		Use:          "shiksha",
		Short:        "Multilingual learning assistant backend",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")

	root.AddCommand(serve, newTokenCommand(&configPath))
	return root
}

func newTokenCommand(configPath *string) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed development token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			tokens, err := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration)
			if err != nil {
				return fmt.Errorf("set JWT_SECRET to issue tokens: %w", err)
			}
			token, expiresAt, err := tokens.GenerateUserToken(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to put in the token")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func runServe(parent context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", zap.Error(err))
		return err
	}
	defer app.Close()

	app.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		if err := app.echo.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	logger.Info("Server started",
		zap.String("addr", cfg.Addr()),
		zap.String("env", cfg.Server.Env),
		zap.String("llm", cfg.LLM.Provider),
		zap.String("speech", cfg.Speech.Provider),
		zap.String("ocr", cfg.OCR.Provider))

	// Wait for interrupt signal to gracefully shutdown the server
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
			return err
		}
	}

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()

	if err := app.echo.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}
