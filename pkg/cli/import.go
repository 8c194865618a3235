package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/cli/config"
	"github.com/secmon-lab/bnra/pkg/service/catalogue"
	"github.com/secmon-lab/bnra/pkg/usecase"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdImport() *cli.Command {
	var snapshotPath string
	var prune bool
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "snapshot",
			Aliases:     []string{"s"},
			Usage:       "Catalogue snapshot file (TOML) to import",
			Required:    true,
			Sources:     cli.EnvVars("BNRA_SNAPSHOT"),
			Destination: &snapshotPath,
		},
		&cli.BoolFlag{
			Name:        "prune",
			Usage:       "Delete stored risk files and cascades that are not in the snapshot",
			Destination: &prune,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import a catalogue snapshot into the repository",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			snapshot, err := catalogue.Load(snapshotPath)
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			uc := usecase.New(repo)
			if _, err := uc.Catalogue.Import(ctx, snapshot, prune); err != nil {
				return goerr.Wrap(err, "failed to import catalogue", goerr.V("path", snapshotPath))
			}
			return nil
		},
	}
}
