// Package dbtest opens throwaway databases for store tests.
package dbtest

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mind-engage/satportal/internal/db"
)

// Mongo returns a fresh database on the server at MONGO_URI, dropped when the
// test ends. Tests are skipped when MONGO_URI is unset.
func Mongo(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	name := "satportal_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	client, mdb, err := db.OpenMongo(ctx, uri, name)
	if err != nil {
		t.Fatalf("open mongo: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = mdb.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return mdb
}
