package config

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Sentry holds error reporting settings. Reporting is disabled without a DSN.
type Sentry struct {
	dsn         string
	environment string
}

func (x *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting",
			Category:    "Sentry",
			Destination: &x.dsn,
			Sources:     cli.EnvVars("BNRA_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Category:    "Sentry",
			Destination: &x.environment,
			Sources:     cli.EnvVars("BNRA_SENTRY_ENV"),
		},
	}
}

func (x Sentry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.dsn != ""),
		slog.String("environment", x.environment),
	)
}

// IsEnabled reports whether a DSN is set
func (x *Sentry) IsEnabled() bool {
	return x.dsn != ""
}

// Configure initializes the Sentry client. The returned function flushes
// buffered events.
func (x *Sentry) Configure(release string) (func(), error) {
	if !x.IsEnabled() {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         x.dsn,
		Environment: x.environment,
		Release:     release,
	}); err != nil {
		return func() {}, goerr.Wrap(err, "failed to initialize sentry")
	}

	return func() {
		sentry.Flush(2 * time.Second)
	}, nil
}
