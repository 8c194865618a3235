package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/cli/config"
	"github.com/secmon-lab/bnra/pkg/domain/interfaces"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"github.com/secmon-lab/bnra/pkg/repository/memory"
	"github.com/secmon-lab/bnra/pkg/service/catalogue"
	"github.com/secmon-lab/bnra/pkg/usecase"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdAggregate() *cli.Command {
	var snapshotPath string
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var slackCfg config.Slack
	var exportCfg config.Export

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "snapshot",
			Aliases:     []string{"s"},
			Usage:       "Aggregate a catalogue snapshot file (TOML) instead of the repository",
			Sources:     cli.EnvVars("BNRA_SNAPSHOT"),
			Destination: &snapshotPath,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, exportCfg.Flags()...)

	return &cli.Command{
		Name:    "aggregate",
		Aliases: []string{"a"},
		Usage:   "Aggregate the catalogue and print the risk ranking",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := appCfg.Configure(); err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}

			var repo interfaces.Repository
			if snapshotPath != "" {
				repo = memory.New()
			} else {
				r, err := repoCfg.Configure(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to initialize repository")
				}
				repo = r
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

			var result *usecase.RunResult
			if snapshotPath != "" {
				snapshot, err := catalogue.Load(snapshotPath)
				if err != nil {
					return err
				}
				result, err = uc.Aggregation.RunSnapshot(ctx, snapshot)
				if err != nil {
					return err
				}
			} else {
				result, err = uc.Aggregation.Run(ctx)
				if err != nil {
					return err
				}
			}

			field := appCfg.Ranking.Field
			if field == "" {
				field = types.FieldRisk
			}
			var out io.Writer = os.Stdout
			if exportCfg.Output() == "-" {
				out = os.Stderr
			}
			return printRanking(out, result, field)
		},
	}
}

// serviceOptions builds the use case options shared by aggregate and serve
func serviceOptions(ctx context.Context, appCfg *config.AppConfig, slackCfg *config.Slack, exportCfg *config.Export) ([]usecase.Option, func(), error) {
	opts := appCfg.UseCaseOptions()

	slackSvc, err := slackCfg.Configure()
	if err != nil {
		return nil, func() {}, err
	}
	if channel := slackCfg.Channel(appCfg.Notify.Channel); slackSvc != nil && channel != "" {
		opts = append(opts, usecase.WithSlack(slackSvc, channel))
		logging.Default().Info("Slack notification enabled", "channel", channel)
	}

	exporter, closer, err := exportCfg.Configure(ctx, appCfg.Export)
	if err != nil {
		return nil, func() {}, err
	}
	if exporter != nil {
		opts = append(opts, usecase.WithExporter(exporter))
	}

	return opts, closer, nil
}

// printRanking writes the top ranked risk files of a run
func printRanking(w io.Writer, result *usecase.RunResult, field string) error {
	title := color.New(color.Bold)
	high := color.New(color.FgRed, color.Bold)
	warn := color.New(color.FgYellow)
	dim := color.New(color.FgHiBlack)

	if _, err := title.Fprintf(w, "Run %s: %d risk files, %d cascades\n",
		result.Run.ID, result.Run.RiskFiles, result.Run.Cascades); err != nil {
		return goerr.Wrap(err, "failed to write ranking")
	}

	for i, calc := range result.Top {
		v, _ := calc.Field(field)
		line := fmt.Sprintf("%3d. %-40s %s=%.6g", i+1, calc.Title, field, v)
		var err error
		if i < 3 {
			_, err = high.Fprintln(w, line)
		} else {
			_, err = fmt.Fprintln(w, line)
		}
		if err != nil {
			return goerr.Wrap(err, "failed to write ranking")
		}
	}

	for _, b := range result.Result.CycleBreaks {
		if _, err := warn.Fprintf(w, "cycle broken at %s (unresolved causes: %v)\n", b.RiskID, b.UnresolvedCauses); err != nil {
			return goerr.Wrap(err, "failed to write ranking")
		}
	}
	if result.Run.Diagnostics > 0 {
		if _, err := dim.Fprintf(w, "%d input values were defaulted or clamped, see debug log\n", result.Run.Diagnostics); err != nil {
			return goerr.Wrap(err, "failed to write ranking")
		}
	}
	if result.Run.ExportURL != "" {
		if _, err := dim.Fprintf(w, "report: %s\n", result.Run.ExportURL); err != nil {
			return goerr.Wrap(err, "failed to write ranking")
		}
	}
	return nil
}
