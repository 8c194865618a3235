package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/interfaces"
)

// ErrNotFound is returned when the requested document does not exist
var ErrNotFound = interfaces.ErrNotFound

type Firestore struct {
	client      *firestore.Client
	riskFile    *riskFileRepository
	cascade     *cascadeRepository
	calculation *calculationRepository
	run         *runRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.riskFile.collectionPrefix = prefix
		f.cascade.collectionPrefix = prefix
		f.calculation.collectionPrefix = prefix
		f.run.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:      client,
		riskFile:    newRiskFileRepository(client),
		cascade:     newCascadeRepository(client),
		calculation: newCalculationRepository(client),
		run:         newRunRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) RiskFile() interfaces.RiskFileRepository {
	return f.riskFile
}

func (f *Firestore) Cascade() interfaces.CascadeRepository {
	return f.cascade
}

func (f *Firestore) Calculation() interfaces.CalculationRepository {
	return f.calculation
}

func (f *Firestore) Run() interfaces.RunRepository {
	return f.run
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// CollectionName returns the name of a collection under the prefix
func CollectionName(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}
