package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/codeforchange/hackportal/internal/config"
	"github.com/codeforchange/hackportal/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "server",
		Short:        "CodeForChange hackathon portal API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServer(cmd.Context(), func(ctx context.Context, srv *Server) error {
				return srv.Run(ctx)
			})
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "promote-admin EMAIL",
		Short: "Grant the admin role to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServer(cmd.Context(), func(ctx context.Context, srv *Server) error {
				if err := srv.Auth.PromoteAdmin(ctx, args[0]); err != nil {
					return err
				}
				srv.log.Info("admin role granted", zap.String("email", args[0]))
				return nil
			})
		},
	})

	return root
}

// withServer поднимает зависимости из окружения и закрывает их после fn
func withServer(ctx context.Context, fn func(context.Context, *Server) error) error {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	srv, err := NewServer(cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	defer srv.Close()

	if err := fn(ctx, srv); err != nil {
		log.Error("command failed", zap.Error(err))
		return err
	}
	return nil
}
