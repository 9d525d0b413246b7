package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/ir"
)

// Mongo persists chains in a mongo collection with a unique index on
// (diagram_id, ir_version). The index makes Put's head check race-safe: a
// concurrent writer loses with a duplicate-key error instead of corrupting
// the chain.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongo connects a mongo-backed store.
func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "connect mongo at %s", uri)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "diagram_id", Value: 1}, {Key: "ir_version", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "ensure version index")
	}
	return &Mongo{client: client, collection: coll}, nil
}

func (s *Mongo) Put(ctx context.Context, v ir.Version) error {
	head, err := s.headVersion(ctx, v.DiagramID)
	if err != nil {
		return err
	}
	if v.IRVersion != head+1 {
		return apperrors.New(apperrors.ErrCodeStoreConflict,
			"diagram %s: version %d conflicts with head %d", v.DiagramID, v.IRVersion, head)
	}

	if _, err := s.collection.InsertOne(ctx, v); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.New(apperrors.ErrCodeStoreConflict,
				"diagram %s: concurrent write of version %d", v.DiagramID, v.IRVersion)
		}
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "insert version")
	}
	return nil
}

func (s *Mongo) headVersion(ctx context.Context, diagramID string) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "ir_version", Value: -1}})
	var v ir.Version
	err := s.collection.FindOne(ctx, bson.M{"diagram_id": diagramID}, opts).Decode(&v)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeStore, err, "find head for %s", diagramID)
	}
	return v.IRVersion, nil
}

func (s *Mongo) Get(ctx context.Context, diagramID string, version int) (ir.Version, error) {
	var v ir.Version
	err := s.collection.FindOne(ctx, bson.M{"diagram_id": diagramID, "ir_version": version}).Decode(&v)
	if err == mongo.ErrNoDocuments {
		return ir.Version{}, apperrors.New(apperrors.ErrCodeNotFound,
			"diagram %s has no version %d", diagramID, version)
	}
	if err != nil {
		return ir.Version{}, apperrors.Wrap(apperrors.ErrCodeStore, err, "find version")
	}
	return v, nil
}

func (s *Mongo) Head(ctx context.Context, diagramID string) (ir.Version, error) {
	head, err := s.headVersion(ctx, diagramID)
	if err != nil {
		return ir.Version{}, err
	}
	if head == 0 {
		return ir.Version{}, apperrors.New(apperrors.ErrCodeNotFound, "diagram %s not found", diagramID)
	}
	return s.Get(ctx, diagramID, head)
}

func (s *Mongo) History(ctx context.Context, diagramID string) ([]ir.Version, error) {
	opts := options.Find().SetSort(bson.D{{Key: "ir_version", Value: 1}})
	cur, err := s.collection.Find(ctx, bson.M{"diagram_id": diagramID}, opts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "find history")
	}
	defer cur.Close(ctx)

	var out []ir.Version
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "decode history")
	}
	return out, nil
}

func (s *Mongo) Delete(ctx context.Context, diagramID string) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{"diagram_id": diagramID}); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "delete diagram")
	}
	return nil
}

func (s *Mongo) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*Mongo)(nil)
