package assignment

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct{ col *mongo.Collection }

func NewMongoStore(db *mongo.Database) *MongoStore { return &MongoStore{col: db.Collection("assignment")} }

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "student_id", Value: 1}}})
	return err
}

func (s *MongoStore) Create(ctx context.Context, a Assignment) error {
	_, err := s.col.InsertOne(ctx, a)
	return err
}

func (s *MongoStore) ListForStudent(ctx context.Context, studentID string) ([]Assignment, error) {
	cur, err := s.col.Find(ctx, bson.M{"student_id": studentID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []Assignment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
