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

// riskFileDocument keeps quantitative fields under their public names so the
// documents stay readable in the console
type riskFileDocument struct {
	ID           string            `firestore:"id"`
	HazardID     string            `firestore:"hazard_id"`
	Title        string            `firestore:"title"`
	RiskType     string            `firestore:"risk_type"`
	RiskCategory string            `firestore:"risk_category"`
	Quantitative map[string]string `firestore:"quantitative"`
	Qualitative  map[string]string `firestore:"qualitative"`
	CreatedAt    time.Time         `firestore:"created_at"`
	UpdatedAt    time.Time         `firestore:"updated_at"`
}

type riskFileRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRiskFileRepository(client *firestore.Client) *riskFileRepository {
	return &riskFileRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *riskFileRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, "risk_files"))
}

func (r *riskFileRepository) toDoc(file *model.RiskFile) *riskFileDocument {
	return &riskFileDocument{
		ID:           string(file.ID),
		HazardID:     file.HazardID,
		Title:        file.Title,
		RiskType:     string(file.RiskType),
		RiskCategory: file.RiskCategory,
		Quantitative: file.QuantitativeFields(),
		Qualitative:  file.Qualitative,
		CreatedAt:    file.CreatedAt,
		UpdatedAt:    file.UpdatedAt,
	}
}

func (r *riskFileRepository) toModel(doc *riskFileDocument) *model.RiskFile {
	file := &model.RiskFile{
		ID:           types.RiskFileID(doc.ID),
		HazardID:     doc.HazardID,
		Title:        doc.Title,
		RiskType:     types.RiskType(doc.RiskType),
		RiskCategory: doc.RiskCategory,
		Qualitative:  doc.Qualitative,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	// Unknown keys can only come from documents written by other tools, they
	// are not part of the model and are dropped.
	_ = file.SetQuantitativeFields(doc.Quantitative)
	return file
}

func (r *riskFileRepository) Put(ctx context.Context, file *model.RiskFile) (*model.RiskFile, error) {
	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid risk file")
	}

	docRef := r.collection().Doc(string(file.ID))
	now := time.Now().UTC()
	stored := file.Copy()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get risk file")
		}
		if err == nil {
			var existing riskFileDocument
			if err := snap.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to unmarshal risk file")
			}
			stored.CreatedAt = existing.CreatedAt
		}
		return tx.Set(docRef, r.toDoc(stored))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put risk file", goerr.V("id", file.ID))
	}

	return stored, nil
}

func (r *riskFileRepository) Get(ctx context.Context, id types.RiskFileID) (*model.RiskFile, error) {
	snap, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "risk file not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get risk file", goerr.V("id", id))
	}

	var doc riskFileDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal risk file", goerr.V("id", id))
	}
	return r.toModel(&doc), nil
}

func (r *riskFileRepository) List(ctx context.Context) ([]*model.RiskFile, error) {
	iter := r.collection().OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var files []*model.RiskFile
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate risk files")
		}

		var doc riskFileDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal risk file", goerr.V("id", snap.Ref.ID))
		}
		files = append(files, r.toModel(&doc))
	}

	return files, nil
}

func (r *riskFileRepository) Delete(ctx context.Context, id types.RiskFileID) error {
	docRef := r.collection().Doc(string(id))
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "risk file not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get risk file", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete risk file", goerr.V("id", id))
	}
	return nil
}
