package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/cli/config"
	"github.com/secmon-lab/bnra/pkg/service/catalogue"
	"github.com/secmon-lab/bnra/pkg/usecase"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// ErrValidationFailed is returned when the catalogue has blocking issues
var ErrValidationFailed = goerr.New("catalogue validation failed")

func cmdValidate() *cli.Command {
	var snapshotPath string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "snapshot",
			Aliases:     []string{"s"},
			Usage:       "Validate a catalogue snapshot file (TOML) instead of the repository",
			Sources:     cli.EnvVars("BNRA_SNAPSHOT"),
			Destination: &snapshotPath,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Check the catalogue for invalid references, cycles and unusable values",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			var result *usecase.ValidationResult
			if snapshotPath != "" {
				snapshot, err := catalogue.Load(snapshotPath)
				if err != nil {
					return err
				}
				result = usecase.ValidateSnapshot(snapshot)
			} else {
				repo, err := repoCfg.Configure(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to initialize repository")
				}
				defer func() {
					if err := repo.Close(); err != nil {
						logging.Default().Error("failed to close repository", "error", err.Error())
					}
				}()

				result, err = usecase.New(repo).Catalogue.Validate(ctx)
				if err != nil {
					return err
				}
			}

			if err := printIssues(os.Stdout, result); err != nil {
				return err
			}
			if result.HasErrors() {
				return goerr.Wrap(ErrValidationFailed, "catalogue has blocking issues", goerr.V("issues", len(result.Issues)))
			}
			logging.Default().Info("Catalogue validation passed", "issues", len(result.Issues))
			return nil
		},
	}
}

var severityColors = map[usecase.Severity]*color.Color{
	usecase.SeverityError:   color.New(color.FgRed, color.Bold),
	usecase.SeverityWarning: color.New(color.FgYellow),
	usecase.SeverityInfo:    color.New(color.FgHiBlack),
}

func printIssues(w io.Writer, result *usecase.ValidationResult) error {
	for _, issue := range result.Issues {
		subject := string(issue.RiskID)
		if issue.CascadeID != "" {
			subject = string(issue.CascadeID)
		}
		if issue.Field != "" {
			subject += "." + issue.Field
		}

		line := fmt.Sprintf("[%s] %s: %s", issue.Severity, subject, issue.Message)
		c, ok := severityColors[issue.Severity]
		if !ok {
			c = color.New()
		}
		if _, err := c.Fprintln(w, line); err != nil {
			return goerr.Wrap(err, "failed to write validation result")
		}
	}
	return nil
}
