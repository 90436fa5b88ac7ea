package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"webrag/internal/server"
	"webrag/internal/session"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			w, closeLog, err := openLog(cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()
			logger := newLogger(w)

			a, err := buildApp(cfg, logger)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			srv := server.New(session.NewStore(a.ctrl), a.ctrl, a.metrics, logger)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(addr) }()
			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return serve
}
