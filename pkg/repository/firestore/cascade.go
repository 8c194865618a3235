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

type cascadeAnalysisDocument struct {
	Expert string            `firestore:"expert"`
	Matrix map[string]string `firestore:"matrix"`
}

type cascadeDocument struct {
	ID        string                    `firestore:"id"`
	CauseID   string                    `firestore:"cause_id"`
	EffectID  string                    `firestore:"effect_id"`
	Kind      string                    `firestore:"kind"`
	Analyses  []cascadeAnalysisDocument `firestore:"analyses"`
	CreatedAt time.Time                 `firestore:"created_at"`
	UpdatedAt time.Time                 `firestore:"updated_at"`
}

type cascadeRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCascadeRepository(client *firestore.Client) *cascadeRepository {
	return &cascadeRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *cascadeRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, "cascades"))
}

func (r *cascadeRepository) toDoc(c *model.Cascade) *cascadeDocument {
	doc := &cascadeDocument{
		ID:        string(c.ID),
		CauseID:   string(c.CauseID),
		EffectID:  string(c.EffectID),
		Kind:      string(c.Kind),
		Analyses:  make([]cascadeAnalysisDocument, 0, len(c.Analyses)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, a := range c.Analyses {
		doc.Analyses = append(doc.Analyses, cascadeAnalysisDocument{
			Expert: a.Expert,
			Matrix: a.Matrix.MatrixFields(),
		})
	}
	return doc
}

func (r *cascadeRepository) toModel(doc *cascadeDocument) *model.Cascade {
	c := &model.Cascade{
		ID:        types.CascadeID(doc.ID),
		CauseID:   types.RiskFileID(doc.CauseID),
		EffectID:  types.RiskFileID(doc.EffectID),
		Kind:      types.CascadeKind(doc.Kind),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, a := range doc.Analyses {
		matrix, _ := model.RawMatrixFromFields(a.Matrix)
		c.Analyses = append(c.Analyses, model.CascadeAnalysis{Expert: a.Expert, Matrix: matrix})
	}
	return c
}

func (r *cascadeRepository) Put(ctx context.Context, c *model.Cascade) (*model.Cascade, error) {
	if err := c.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid cascade")
	}

	docRef := r.collection().Doc(string(c.ID))
	now := time.Now().UTC()
	stored := c.Copy()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get cascade")
		}
		if err == nil {
			var existing cascadeDocument
			if err := snap.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to unmarshal cascade")
			}
			stored.CreatedAt = existing.CreatedAt
		}
		return tx.Set(docRef, r.toDoc(stored))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put cascade", goerr.V("id", c.ID))
	}

	return stored, nil
}

func (r *cascadeRepository) Get(ctx context.Context, id types.CascadeID) (*model.Cascade, error) {
	snap, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "cascade not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get cascade", goerr.V("id", id))
	}

	var doc cascadeDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal cascade", goerr.V("id", id))
	}
	return r.toModel(&doc), nil
}

func (r *cascadeRepository) List(ctx context.Context) ([]*model.Cascade, error) {
	return r.list(ctx, r.collection().OrderBy(firestore.DocumentID, firestore.Asc))
}

func (r *cascadeRepository) ListByEffect(ctx context.Context, effectID types.RiskFileID) ([]*model.Cascade, error) {
	q := r.collection().
		Where("effect_id", "==", string(effectID)).
		OrderBy(firestore.DocumentID, firestore.Asc)
	return r.list(ctx, q)
}

func (r *cascadeRepository) list(ctx context.Context, q firestore.Query) ([]*model.Cascade, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var cascades []*model.Cascade
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cascades")
		}

		var doc cascadeDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal cascade", goerr.V("id", snap.Ref.ID))
		}
		cascades = append(cascades, r.toModel(&doc))
	}

	return cascades, nil
}

func (r *cascadeRepository) Delete(ctx context.Context, id types.CascadeID) error {
	docRef := r.collection().Doc(string(id))
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "cascade not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get cascade", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete cascade", goerr.V("id", id))
	}
	return nil
}
