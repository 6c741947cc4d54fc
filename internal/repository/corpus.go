package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RishiKendai/codelens/internal/fingerprint"
	"github.com/RishiKendai/codelens/internal/models"
)

const corpusCollection = "corpus_entries"

// corpusDocument stores shingles as int64; BSON has no unsigned integers.
type corpusDocument struct {
	models.CorpusEntry `bson:",inline"`
	Shingles           []int64 `bson:"shingles"`
}

type CorpusRepository struct {
	mongoRepo *MongoRepository
}

func NewCorpusRepository(mongoRepo *MongoRepository) *CorpusRepository {
	return &CorpusRepository{
		mongoRepo: mongoRepo,
	}
}

// EnsureIndexes makes content hashes unique so concurrent ingestion of the
// same snippet stores it once.
func (r *CorpusRepository) EnsureIndexes(ctx context.Context) error {
	err := r.mongoRepo.CreateIndexes(ctx, corpusCollection, mongo.IndexModel{
		Keys:    bson.D{{Key: "contentHash", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create corpus indexes: %w", err)
	}
	return nil
}

func (r *CorpusRepository) List(ctx context.Context) ([]*models.CorpusEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.mongoRepo.FindMany(ctx, corpusCollection, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find corpus entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []corpusDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode corpus entries: %w", err)
	}

	entries := make([]*models.CorpusEntry, 0, len(docs))
	for i := range docs {
		e := docs[i].CorpusEntry
		e.Shingles = fingerprint.FromStored(docs[i].Shingles)
		entries = append(entries, &e)
	}
	return entries, nil
}

func (r *CorpusRepository) Count(ctx context.Context) (int, error) {
	count, err := r.mongoRepo.CountDocuments(ctx, corpusCollection, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count corpus entries: %w", err)
	}
	return int(count), nil
}

func (r *CorpusRepository) Add(ctx context.Context, e *models.CorpusEntry) (string, bool, error) {
	if existing, err := r.findByHash(ctx, e.ContentHash); err == nil {
		return existing.ID, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return "", false, err
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	doc := corpusDocument{CorpusEntry: *e, Shingles: fingerprint.ToStored(e.Shingles)}
	err := r.mongoRepo.InsertOne(ctx, corpusCollection, doc)
	if mongo.IsDuplicateKeyError(err) {
		// Lost a race on the same content, or the id is taken.
		if existing, ferr := r.findByHash(ctx, e.ContentHash); ferr == nil {
			return existing.ID, false, nil
		}
		return "", false, ErrDuplicateID
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to insert corpus entry: %w", err)
	}
	return e.ID, true, nil
}

func (r *CorpusRepository) findByHash(ctx context.Context, hash string) (*models.CorpusEntry, error) {
	var doc corpusDocument
	err := r.mongoRepo.FindOne(ctx, corpusCollection, bson.M{"contentHash": hash}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find corpus entry: %w", err)
	}
	return &doc.CorpusEntry, nil
}
