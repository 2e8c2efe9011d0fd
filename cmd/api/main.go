package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/talent-coach/backend/internal/handler"
	"github.com/zhouzirui/talent-coach/backend/internal/report"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts appOptions

	rootCmd := &cobra.Command{
		Use:           "talent-coach",
		Short:         "Interview coaching backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment")
	rootCmd.Flags().StringVar(&opts.addr, "addr", "", "listen address, overrides PORT")

	rootCmd.AddCommand(serveCmd(&opts))
	rootCmd.AddCommand(migrateCmd(&opts))
	rootCmd.AddCommand(historyCmd(&opts))
	rootCmd.AddCommand(extractCmd(&opts))
	rootCmd.AddCommand(rehearseCmd(&opts))

	return rootCmd
}

func serveCmd(opts *appOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address, overrides PORT")
	return cmd
}

func runServe(parent context.Context, opts appOptions) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, opts, true)
	if err != nil {
		return err
	}
	defer a.Close()

	format, err := report.ParseFormat(a.cfg.Report.Format, report.FormatPDF)
	if err != nil {
		return err
	}

	router := handler.NewRouter(handler.Dependencies{
		Personalities: a.personalities,
		Coach:         a.coach,
		Objects:       a.objects,
		ReportFormat:  format,
	})

	addr := a.cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}
	return startServer(ctx, addr, router)
}

func startServer(ctx context.Context, addr string, router http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("talent coach backend listening")
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
