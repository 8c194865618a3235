package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type runDocument struct {
	ID          string    `firestore:"id"`
	StartedAt   time.Time `firestore:"started_at"`
	FinishedAt  time.Time `firestore:"finished_at"`
	RiskFiles   int       `firestore:"risk_files"`
	Cascades    int       `firestore:"cascades"`
	CycleBreaks int       `firestore:"cycle_breaks"`
	Diagnostics int       `firestore:"diagnostics"`
	ExportURL   string    `firestore:"export_url"`
	TopRisks    []string  `firestore:"top_risks"`
}

type runRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRunRepository(client *firestore.Client) *runRepository {
	return &runRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *runRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, "runs"))
}

func (r *runRepository) Put(ctx context.Context, run *model.Run) error {
	if err := run.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid run ID")
	}

	doc := &runDocument{
		ID:          string(run.ID),
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		RiskFiles:   run.RiskFiles,
		Cascades:    run.Cascades,
		CycleBreaks: run.CycleBreaks,
		Diagnostics: run.Diagnostics,
		ExportURL:   run.ExportURL,
		TopRisks:    make([]string, 0, len(run.TopRisks)),
	}
	for _, id := range run.TopRisks {
		doc.TopRisks = append(doc.TopRisks, string(id))
	}

	if _, err := r.collection().Doc(doc.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put run", goerr.V("run_id", run.ID))
	}
	return nil
}

func (r *runRepository) toModel(doc *runDocument) *model.Run {
	run := &model.Run{
		ID:          types.RunID(doc.ID),
		StartedAt:   doc.StartedAt,
		FinishedAt:  doc.FinishedAt,
		RiskFiles:   doc.RiskFiles,
		Cascades:    doc.Cascades,
		CycleBreaks: doc.CycleBreaks,
		Diagnostics: doc.Diagnostics,
		ExportURL:   doc.ExportURL,
	}
	for _, id := range doc.TopRisks {
		run.TopRisks = append(run.TopRisks, types.RiskFileID(id))
	}
	return run
}

func (r *runRepository) Get(ctx context.Context, id types.RunID) (*model.Run, error) {
	snap, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "run not found", goerr.V("run_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get run", goerr.V("run_id", id))
	}

	var doc runDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal run", goerr.V("run_id", id))
	}
	return r.toModel(&doc), nil
}

func (r *runRepository) Latest(ctx context.Context) (*model.Run, error) {
	iter := r.collection().OrderBy("started_at", firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(ErrNotFound, "no run recorded")
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get latest run")
	}

	var doc runDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal run", goerr.V("run_id", snap.Ref.ID))
	}
	return r.toModel(&doc), nil
}
