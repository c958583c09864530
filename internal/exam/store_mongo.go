package exam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mind-engage/satportal/internal/grading"
)

// MongoStore keeps one document per test, question and attempt in the
// "test", "question" and "attempt" collections.
type MongoStore struct {
	db        *mongo.Database
	tests     *mongo.Collection
	questions *mongo.Collection
	attempts  *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:        db,
		tests:     db.Collection("test"),
		questions: db.Collection("question"),
		attempts:  db.Collection("attempt"),
	}
}

// EnsureIndexes creates the lookup indexes used by list queries.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.questions.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "test_id", Value: 1}}}); err != nil {
		return err
	}
	_, err := s.attempts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "started_at", Value: 1}},
	})
	return err
}

func (s *MongoStore) CreateTest(ctx context.Context, t Test) error {
	_, err := s.tests.InsertOne(ctx, t)
	return err
}

func (s *MongoStore) GetTest(ctx context.Context, id string) (Test, error) {
	var t Test
	err := s.tests.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Test{}, ErrNotFound
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t, err
}

func (s *MongoStore) ListTests(ctx context.Context) ([]Test, error) {
	cur, err := s.tests.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []Test{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Tags == nil {
			out[i].Tags = []string{}
		}
	}
	return out, nil
}

func (s *MongoStore) InsertQuestions(ctx context.Context, qs []Question) (int, error) {
	docs := make([]interface{}, len(qs))
	for i, q := range qs {
		q.Correct = bsonValue(q.Correct)
		docs[i] = q
	}
	res, err := s.questions.InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

func (s *MongoStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	var q Question
	err := s.questions.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Question{}, ErrNotFound
	}
	return q, err
}

func (s *MongoStore) ListQuestions(ctx context.Context, testID string) ([]Question, error) {
	cur, err := s.questions.Find(ctx, bson.M{"test_id": testID})
	if err != nil {
		return nil, err
	}
	var out []Question
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	sortQuestions(out)
	return out, nil
}

func (s *MongoStore) CreateAttempt(ctx context.Context, a Attempt) error {
	a.Version = 0
	_, err := s.attempts.InsertOne(ctx, a)
	return err
}

func (s *MongoStore) GetAttempt(ctx context.Context, id, studentID string) (Attempt, error) {
	var a Attempt
	err := s.attempts.FindOne(ctx, bson.M{"_id": id, "student_id": studentID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Attempt{}, ErrNotFound
	}
	if err != nil {
		return Attempt{}, err
	}
	fillAttemptMaps(&a)
	return a, nil
}

func (s *MongoStore) ListAttemptsByStudent(ctx context.Context, studentID string) ([]Attempt, error) {
	cur, err := s.attempts.Find(ctx, bson.M{"student_id": studentID},
		options.Find().SetSort(bson.D{{Key: "started_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []Attempt{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		fillAttemptMaps(&out[i])
	}
	return out, nil
}

// SaveAnswer sets a single answers.<qid> path so concurrent writes to
// different questions merge.
func (s *MongoStore) SaveAnswer(ctx context.Context, in AnswerInput, at time.Time) error {
	if strings.ContainsAny(in.QuestionID, ".$") {
		return fmt.Errorf("qid %q: %w", in.QuestionID, ErrInvalid)
	}
	res, err := s.attempts.UpdateOne(ctx,
		bson.M{"_id": in.AttemptID, "student_id": in.StudentID, "status": StatusInProgress},
		bson.M{
			"$set": bson.M{
				"answers." + in.QuestionID:    bsonValue(in.Answer),
				"time_spent." + in.QuestionID: in.TimeSpent,
				"updated_at":                  at,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return s.missOrConflict(ctx, in.AttemptID, in.StudentID)
}

func (s *MongoStore) FinalizeAttempt(ctx context.Context, a Attempt, score grading.Score, at time.Time) error {
	res, err := s.attempts.UpdateOne(ctx,
		bson.M{"_id": a.ID, "student_id": a.StudentID, "status": StatusInProgress, "version": a.Version},
		bson.M{
			"$set": bson.M{
				"status":       StatusSubmitted,
				"submitted_at": at,
				"updated_at":   at,
				"score":        score,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if err := s.missOrConflict(ctx, a.ID, a.StudentID); err != nil {
		return err
	}
	return errStale
}

// missOrConflict explains a filtered update that matched nothing: ErrNotFound
// when the student has no such attempt, ErrConflict when it is submitted,
// nil when it is still in progress.
func (s *MongoStore) missOrConflict(ctx context.Context, id, studentID string) error {
	var cur struct {
		Status Status `bson:"status"`
	}
	err := s.attempts.FindOne(ctx, bson.M{"_id": id, "student_id": studentID},
		options.FindOne().SetProjection(bson.M{"status": 1})).Decode(&cur)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if cur.Status != StatusInProgress {
		return ErrConflict
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func fillAttemptMaps(a *Attempt) {
	if a.Answers == nil {
		a.Answers = map[string]interface{}{}
	}
	if a.TimeSpent == nil {
		a.TimeSpent = map[string]int{}
	}
	if a.Timers == nil {
		a.Timers = map[string]int{}
	}
}

// bsonValue turns json.Number into int64/float64 so numbers keep their type
// in the document instead of becoming strings.
func bsonValue(v interface{}) interface{} {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []interface{}:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = bsonValue(x[i])
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = bsonValue(e)
		}
		return out
	default:
		return v
	}
}
