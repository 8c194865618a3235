package config

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/bnra/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// AppConfig represents the application configuration file
type AppConfig struct {
	Aggregation AggregationConfig `toml:"aggregation"`
	Ranking     RankingConfig     `toml:"ranking"`
	Export      ExportConfig      `toml:"export"`
	Notify      NotifyConfig      `toml:"notify"`

	path string
}

// AggregationConfig controls the aggregation engine
type AggregationConfig struct {
	// Workers bounds parallel evaluation of independent components. 0 evaluates them one by one.
	Workers int `toml:"workers"`
}

// RankingConfig controls the ranking attached to every run
type RankingConfig struct {
	Field string `toml:"field"`
	Top   int    `toml:"top"`
}

// ExportConfig is the Cloud Storage destination of run reports
type ExportConfig struct {
	Bucket string `toml:"bucket"`
	Prefix string `toml:"prefix"`
}

// NotifyConfig is the Slack destination of run summaries
type NotifyConfig struct {
	Channel string `toml:"channel"`
}

// Flags returns CLI flags for the configuration file
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML configuration file",
			Category:    "Configuration",
			Sources:     cli.EnvVars("BNRA_CONFIG"),
			Destination: &a.path,
		},
	}
}

func (a AppConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", a.path),
		slog.Int("aggregation.workers", a.Aggregation.Workers),
		slog.String("ranking.field", a.Ranking.Field),
		slog.Int("ranking.top", a.Ranking.Top),
		slog.String("export.bucket", a.Export.Bucket),
		slog.String("notify.channel", a.Notify.Channel),
	)
}

// Configure loads the file given by --config. Without the flag the defaults
// are kept.
func (a *AppConfig) Configure() error {
	if a.path == "" {
		return a.Validate()
	}

	loaded, err := LoadAppConfiguration(a.path)
	if err != nil {
		return err
	}
	path := a.path
	*a = *loaded
	a.path = path
	return nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if a.Aggregation.Workers < 0 {
		return goerr.Wrap(ErrInvalidConfig, "workers must not be negative",
			goerr.V(FieldKey, "aggregation.workers"), goerr.V("workers", a.Aggregation.Workers))
	}
	if a.Ranking.Field != "" && !usecase.IsRankingField(a.Ranking.Field) {
		return goerr.Wrap(ErrInvalidConfig, "unknown ranking field",
			goerr.V(FieldKey, "ranking.field"), goerr.V("value", a.Ranking.Field))
	}
	if a.Ranking.Top < 0 {
		return goerr.Wrap(ErrInvalidConfig, "ranking size must not be negative",
			goerr.V(FieldKey, "ranking.top"), goerr.V("top", a.Ranking.Top))
	}
	if a.Export.Prefix != "" && a.Export.Bucket == "" {
		return goerr.Wrap(ErrInvalidConfig, "export prefix requires a bucket", goerr.V(FieldKey, "export.bucket"))
	}
	return nil
}

// UseCaseOptions translates the aggregation and ranking settings
func (a *AppConfig) UseCaseOptions() []usecase.Option {
	var opts []usecase.Option
	if a.Aggregation.Workers > 0 {
		opts = append(opts, usecase.WithWorkers(a.Aggregation.Workers))
	}
	if a.Ranking.Field != "" || a.Ranking.Top > 0 {
		opts = append(opts, usecase.WithRanking(a.Ranking.Field, a.Ranking.Top))
	}
	return opts
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, err.Error(), goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}
