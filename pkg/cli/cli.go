package cli

import (
	"context"

	"github.com/secmon-lab/bnra/pkg/cli/config"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closers []func()

	var flags []cli.Flag
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "bnra",
		Usage:   "Risk cascade aggregation for national risk assessment",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, f)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, flush)

			logging.Default().Info("Starting bnra", "logger", loggerCfg, "sentry", sentryCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdAggregate(),
			cmdImport(),
			cmdValidate(),
			cmdServe(&sentryCfg),
			cmdMigrate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
