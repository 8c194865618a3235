package firestore

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// calculationDocument stores the calculation as its JSON record. The score and
// title are duplicated into fields so the ranking can be queried in the console.
type calculationDocument struct {
	RiskID    string    `firestore:"risk_id"`
	RunID     string    `firestore:"run_id"`
	Title     string    `firestore:"title"`
	Risk      float64   `firestore:"r"`
	Payload   string    `firestore:"payload"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type calculationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCalculationRepository(client *firestore.Client) *calculationRepository {
	return &calculationRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *calculationRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, "calculations"))
}

func (r *calculationRepository) ReplaceAll(ctx context.Context, runID types.RunID, calcs []*model.RiskCalculation) error {
	now := time.Now().UTC()
	keep := make(map[string]struct{}, len(calcs))

	// Use BulkWriter which automatically handles batching
	bulkWriter := r.client.BulkWriter(ctx)

	for _, calc := range calcs {
		payload, err := json.Marshal(calc)
		if err != nil {
			bulkWriter.End()
			return goerr.Wrap(err, "failed to encode calculation", goerr.V("risk_id", calc.RiskID))
		}
		doc := &calculationDocument{
			RiskID:    string(calc.RiskID),
			RunID:     string(runID),
			Title:     calc.Title,
			Risk:      calc.Risk,
			Payload:   string(payload),
			UpdatedAt: now,
		}
		if _, err := bulkWriter.Set(r.collection().Doc(doc.RiskID), doc); err != nil {
			bulkWriter.End()
			return goerr.Wrap(err, "failed to add Set operation to bulk writer", goerr.V("risk_id", calc.RiskID))
		}
		keep[doc.RiskID] = struct{}{}
	}

	// Calculations of risk files removed from the catalogue
	iter := r.collection().Where("run_id", "!=", string(runID)).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bulkWriter.End()
			return goerr.Wrap(err, "failed to iterate stale calculations")
		}
		if _, ok := keep[snap.Ref.ID]; ok {
			continue
		}
		if _, err := bulkWriter.Delete(snap.Ref); err != nil {
			bulkWriter.End()
			return goerr.Wrap(err, "failed to add Delete operation to bulk writer")
		}
	}

	// Flush and wait for all operations to complete
	bulkWriter.End()

	return nil
}

func (r *calculationRepository) toModel(doc *calculationDocument) (*model.RiskCalculation, error) {
	var calc model.RiskCalculation
	if err := json.Unmarshal([]byte(doc.Payload), &calc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode calculation", goerr.V("risk_id", doc.RiskID))
	}
	return &calc, nil
}

func (r *calculationRepository) Get(ctx context.Context, id types.RiskFileID) (*model.RiskCalculation, error) {
	snap, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "calculation not found", goerr.V("risk_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get calculation", goerr.V("risk_id", id))
	}

	var doc calculationDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal calculation", goerr.V("risk_id", id))
	}
	return r.toModel(&doc)
}

func (r *calculationRepository) List(ctx context.Context) ([]*model.RiskCalculation, error) {
	iter := r.collection().OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var calcs []*model.RiskCalculation
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate calculations")
		}

		var doc calculationDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal calculation", goerr.V("risk_id", snap.Ref.ID))
		}
		calc, err := r.toModel(&doc)
		if err != nil {
			return nil, err
		}
		calcs = append(calcs, calc)
	}

	return calcs, nil
}
