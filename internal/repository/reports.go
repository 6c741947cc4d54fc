package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RishiKendai/codelens/internal/models"
)

const reportsCollection = "comparison_reports"

type ReportsRepository struct {
	mongoRepo *MongoRepository
}

func NewReportsRepository(mongoRepo *MongoRepository) *ReportsRepository {
	return &ReportsRepository{
		mongoRepo: mongoRepo,
	}
}

func (r *ReportsRepository) EnsureIndexes(ctx context.Context) error {
	err := r.mongoRepo.CreateIndexes(ctx, reportsCollection, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create report indexes: %w", err)
	}
	return nil
}

// Save writes the report in a single insert, so readers see all of it or
// none of it.
func (r *ReportsRepository) Save(ctx context.Context, report *models.ComparisonReport) error {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	err := r.mongoRepo.InsertOne(ctx, reportsCollection, report)
	if err != nil {
		return fmt.Errorf("failed to insert comparison report: %w", err)
	}

	return nil
}

func (r *ReportsRepository) Get(ctx context.Context, id string) (*models.ComparisonReport, error) {
	var report models.ComparisonReport
	err := r.mongoRepo.FindOne(ctx, reportsCollection, bson.M{"_id": id}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return &report, nil
}

func (r *ReportsRepository) History(ctx context.Context, limit int) ([]models.ReportSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{
			"_id": 1, "file1Name": 1, "file2Name": 1,
			"similarityScore": 1, "isPlagiarized": 1, "createdAt": 1,
		})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.mongoRepo.FindMany(ctx, reportsCollection, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reports: %w", err)
	}
	defer cursor.Close(ctx)

	summaries := []models.ReportSummary{}
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}

	return summaries, nil
}

func (r *ReportsRepository) Stats(ctx context.Context) (int64, int64, error) {
	total, err := r.mongoRepo.CountDocuments(ctx, reportsCollection, bson.M{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count reports: %w", err)
	}
	plagiarized, err := r.mongoRepo.CountDocuments(ctx, reportsCollection, bson.M{"isPlagiarized": true})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count plagiarized reports: %w", err)
	}
	return total, plagiarized, nil
}
