package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/bnra/pkg/cli/config"
	httpctrl "github.com/secmon-lab/bnra/pkg/controller/http"
	"github.com/secmon-lab/bnra/pkg/service/worker"
	"github.com/secmon-lab/bnra/pkg/usecase"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe(sentryCfg *config.Sentry) *cli.Command {
	var addr string
	var interval time.Duration
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var slackCfg config.Slack
	var exportCfg config.Export

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("BNRA_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "recalc-interval",
			Usage:       "Interval of background recalculation (0 disables it)",
			Value:       time.Hour,
			Sources:     cli.EnvVars("BNRA_RECALC_INTERVAL"),
			Destination: &interval,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, exportCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := appCfg.Configure(); err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			ucOpts, closeServices, err := serviceOptions(ctx, &appCfg, &slackCfg, &exportCfg)
			if err != nil {
				return err
			}
			defer closeServices()

			uc := usecase.New(repo, ucOpts...)

			var recalcWorker *worker.RecalculationWorker
			if interval > 0 {
				recalcWorker = worker.NewRecalculationWorker(uc.Aggregation, interval)
				if err := recalcWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start recalculation worker")
				}
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithSentry(sentryCfg.IsEnabled()),
			}
			if appCfg.Ranking.Top > 0 {
				httpOpts = append(httpOpts, httpctrl.WithDefaultLimit(appCfg.Ranking.Top))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc.Ranking, uc.Aggregation, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "config", appCfg, "repository", repoCfg)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Stop the worker first so no run starts during shutdown
				if recalcWorker != nil {
					recalcWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
