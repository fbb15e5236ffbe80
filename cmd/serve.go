package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cybershikshax/shiksha-cli/internal/api"
	"github.com/cybershikshax/shiksha-cli/internal/i18n"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API over the same scan, progress and tutor services",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		cfg := appCtx.Config.Serve
		logger := appCtx.Logger.Desugar()
		defer func() {
			_ = logger.Sync()
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		network := appCtx.Services.Network
		go reportConnectivity(cmd.OutOrStdout(), appCtx.Lang, network.Subscribe(ctx))
		go network.Watch(ctx, 30*time.Second, probeConnectivity)

		jobManager := api.NewJobManager(appCtx.Services.ScanService, logger)
		jobManager.SetMaxJobs(cfg.MaxJobs)
		server := api.NewServer(api.Config{
			Scans:       appCtx.Services.ScanService,
			Learn:       appCtx.Services.LearnService,
			Network:     network,
			Jobs:        jobManager,
			Language:    appCtx.Lang,
			AuthToken:   cfg.AuthToken,
			Logger:      logger,
			CORSOrigins: cfg.CORSOrigins,
			RateLimit:   cfg.RateLimit,
			RateBurst:   cfg.RateBurst,
		})
		defer server.Close()

		httpServer := &http.Server{
			Addr:         cfg.Addr,
			Handler:      server,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0, // the job stream is long-lived
			IdleTimeout:  120 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s API server listening on http://%s/api/v1 (data dir: %s)\n", colorInfo("→"), cfg.Addr, appCtx.DataDir)
			fmt.Fprintf(cmd.OutOrStdout(), "%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
			serverErrors <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s Shutting down...\n", colorInfo("→"))
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := jobManager.Shutdown(shutdownCtx); err != nil {
			logger.Warn("scan jobs did not stop in time")
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			if closeErr := httpServer.Close(); closeErr != nil {
				return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
			}
			return fmt.Errorf("failed to gracefully shutdown server: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s Server shutdown complete\n", colorInfo("✓"))
		return nil
	},
}

// reportConnectivity prints a line for every connectivity change until
// updates closes.
func reportConnectivity(w io.Writer, lang i18n.Lang, updates <-chan bool) {
	for online := range updates {
		if online {
			fmt.Fprintf(w, "%s Back online\n", colorSuccess("●"))
			continue
		}
		fmt.Fprintln(w, colorWarn("● "+i18n.Label(lang, i18n.Offline)))
	}
}

func init() {
	serveCmd.Flags().StringVar(&cliConfig.Serve.Addr, "addr", defaultServeAddr, "Address for the API server")
	serveCmd.Flags().StringVar(&cliConfig.Serve.AuthToken, "auth-token", "", "Optional shared secret for API requests")
	serveCmd.Flags().DurationVar(&cliConfig.Serve.ShutdownTimeout, "shutdown-timeout", defaultShutdownTimeout, "Graceful shutdown timeout")
	serveCmd.Flags().StringSliceVar(&cliConfig.Serve.CORSOrigins, "cors-origins", []string{}, "Allowed CORS origins (empty = allow all)")
	serveCmd.Flags().IntVar(&cliConfig.Serve.RateLimit, "rate-limit", defaultRateLimit, "Rate limit per IP (requests/second, 0 = disabled)")
	serveCmd.Flags().IntVar(&cliConfig.Serve.RateBurst, "rate-burst", defaultRateBurst, "Rate limit burst size")
	serveCmd.Flags().IntVar(&cliConfig.Serve.MaxJobs, "max-jobs", defaultMaxJobs, "Maximum scan jobs kept in memory")
}
