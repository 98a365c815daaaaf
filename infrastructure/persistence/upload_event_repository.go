package persistence

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
)

const uploadEventCollection = "upload_events"

// UploadEventRepository is an append-only audit log of fan-out events in MongoDB.
type UploadEventRepository struct {
	mongoDb  *mongo.Client
	database string
}

func NewUploadEventRepository(db *mongo.Client, database string) *UploadEventRepository {
	if database == "" {
		database = "socialhub"
	}
	return &UploadEventRepository{mongoDb: db, database: database}
}

var _ repository.IUploadEventSink = (*UploadEventRepository)(nil)

func (r *UploadEventRepository) Publish(ctx context.Context, event model.UploadEvent) error {
	if r.mongoDb == nil {
		return nil
	}
	_, err := r.mongoDb.Database(r.database).Collection(uploadEventCollection).InsertOne(ctx, event)
	return err
}

// History returns the recorded events of one video, oldest first.
func (r *UploadEventRepository) History(ctx context.Context, videoID string) ([]model.UploadEvent, error) {
	if r.mongoDb == nil {
		return []model.UploadEvent{}, nil
	}
	collection := r.mongoDb.Database(r.database).Collection(uploadEventCollection)
	cursor, err := collection.Find(ctx, bson.D{{Key: "videoId", Value: videoID}},
		options.Find().SetSort(bson.D{{Key: "occurredAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		if err := cursor.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
		}
	}(cursor, ctx)

	events := []model.UploadEvent{}
	for cursor.Next(ctx) {
		var e model.UploadEvent
		if err := cursor.Decode(&e); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while decoding upload event")
			continue
		}
		events = append(events, e)
	}
	return events, cursor.Err()
}
