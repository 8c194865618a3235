package config

import (
	"context"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/service/export"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Export holds the destination of run reports: a Cloud Storage bucket or a
// local file
type Export struct {
	bucket string
	prefix string
	output string
}

func (x *Export) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "export-bucket",
			Usage:       "Cloud Storage bucket for run reports (overrides [export] bucket)",
			Category:    "Export",
			Destination: &x.bucket,
			Sources:     cli.EnvVars("BNRA_EXPORT_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "export-prefix",
			Usage:       "Object name prefix for run reports (overrides [export] prefix)",
			Category:    "Export",
			Destination: &x.prefix,
			Sources:     cli.EnvVars("BNRA_EXPORT_PREFIX"),
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the run report as JSON to a file ('-' for stdout)",
			Category:    "Export",
			Destination: &x.output,
		},
	}
}

func (x Export) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
		slog.String("output", x.output),
	)
}

// Output returns the local output path, "-" for stdout
func (x *Export) Output() string {
	return x.output
}

// Configure creates the exporter. Flags take precedence over the
// configuration file, and a local output takes precedence over a bucket. It
// returns nil when no destination is set. The returned function releases the
// storage client.
func (x *Export) Configure(ctx context.Context, fallback ExportConfig) (export.Service, func(), error) {
	if x.output != "" {
		return export.NewFile(x.output), func() {}, nil
	}

	bucket, prefix := x.bucket, x.prefix
	if bucket == "" {
		bucket = fallback.Bucket
	}
	if prefix == "" {
		prefix = fallback.Prefix
	}
	if bucket == "" {
		return nil, func() {}, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, func() {}, goerr.Wrap(err, "failed to create storage client")
	}
	svc, err := export.NewGCS(client, bucket, prefix)
	if err != nil {
		_ = client.Close()
		return nil, func() {}, goerr.Wrap(err, "failed to initialize exporter")
	}

	logging.Default().Info("Exporting run reports to Cloud Storage", "bucket", bucket, "prefix", prefix)
	return svc, func() {
		if err := client.Close(); err != nil {
			logging.Default().Error("failed to close storage client", "error", err.Error())
		}
	}, nil
}
