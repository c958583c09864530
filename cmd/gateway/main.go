package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mind-engage/satportal/internal/account"
	api "github.com/mind-engage/satportal/internal/api/http"
	"github.com/mind-engage/satportal/internal/assignment"
	"github.com/mind-engage/satportal/internal/auth"
	authmw "github.com/mind-engage/satportal/internal/auth/middleware"
	"github.com/mind-engage/satportal/internal/config"
	"github.com/mind-engage/satportal/internal/db"
	"github.com/mind-engage/satportal/internal/exam"
	"github.com/mind-engage/satportal/internal/grading"
	"github.com/mind-engage/satportal/internal/lock"
	"github.com/mind-engage/satportal/internal/messaging"
	"github.com/mind-engage/satportal/internal/report"
	storage "github.com/mind-engage/satportal/internal/storage"
	syncx "github.com/mind-engage/satportal/internal/sync"
)

type stores struct {
	exams       exam.Store
	users       account.Store
	assignments assignment.Store
	messages    messaging.Store
	events      syncx.Recorder
	closers     []func(context.Context) error
}

func main() {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- storage + events ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	st, err := openStores(openCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}
	defer func() {
		for i := len(st.closers) - 1; i >= 0; i-- {
			if err := st.closers[i](context.Background()); err != nil {
				log.Printf("close: %v", err)
			}
		}
	}()

	// --- per-attempt lock ---
	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping failed: %v", err)
		}
		st.closers = append(st.closers, func(context.Context) error { return rdb.Close() })
		locker = lock.NewRedisLocker(rdb, cfg.LockTTL)
		log.Printf("attempt lock: redis %s", cfg.RedisAddr)
	}

	cmp, err := grading.ComparatorByName(cfg.ScoringComparator)
	if err != nil {
		log.Fatalf("scoring: %v", err)
	}
	exams := exam.NewService(st.exams,
		exam.WithLocker(locker),
		exam.WithRecorder(st.events, cfg.SiteID),
		exam.WithScorer(grading.NewScorer(grading.WithComparator(cmp))),
	)

	// --- auth ---
	tokens := authmw.NewAuthService(cfg.JWTSecret, cfg.TokenTTL)
	accounts := auth.NewAccounts(st.users, tokens)
	if err := accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassHash); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	bs, err := storage.NewFSStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	r := api.NewRouter(api.Deps{
		Exams:       exams,
		Accounts:    accounts,
		Tokens:      tokens,
		Users:       st.users,
		Assignments: assignment.NewService(st.assignments),
		Messages:    messaging.NewService(st.messages),
		Reports:     report.NewAggregator(exams),
		Blobs:       bs,
		CORSOrigins: cfg.CORSOrigins(),
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	if db.Driver(cfg.DBDriver) == db.DriverMongo {
		return openMongoStores(ctx, cfg)
	}
	return openSQLStores(ctx, cfg)
}

// SQL backends write events to the outbox; the relay ships them when a
// broker is configured.
func openSQLStores(ctx context.Context, cfg config.Config) (*stores, error) {
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	outbox := syncx.NewEventRepo(dbh)
	st := &stores{
		exams:       exam.NewSQLStore(dbh),
		users:       account.NewSQLStore(dbh),
		assignments: assignment.NewSQLStore(dbh),
		messages:    messaging.NewSQLStore(dbh),
		events:      outbox,
		closers:     []func(context.Context) error{closeDB(dbh)},
	}
	if cfg.AMQPURL == "" {
		return st, nil
	}
	pub, err := syncx.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		_ = dbh.Close()
		return nil, err
	}
	relay := syncx.NewRelay(outbox, pub, 0)
	if err := relay.Start(cfg.EventRelaySpec); err != nil {
		_ = pub.Close()
		_ = dbh.Close()
		return nil, err
	}
	st.closers = append(st.closers,
		func(context.Context) error { return pub.Close() },
		func(context.Context) error { relay.Stop(); return nil },
	)
	return st, nil
}

// Mongo has no outbox table; events go straight to the broker, or to the log.
func openMongoStores(ctx context.Context, cfg config.Config) (*stores, error) {
	client, mdb, err := db.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	es := exam.NewMongoStore(mdb)
	us := account.NewMongoStore(mdb)
	as := assignment.NewMongoStore(mdb)
	ms := messaging.NewMongoStore(mdb)
	for _, ix := range []interface {
		EnsureIndexes(context.Context) error
	}{es, us, as, ms} {
		if err := ix.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
	}
	st := &stores{
		exams:       es,
		users:       us,
		assignments: as,
		messages:    ms,
		events:      syncx.LogRecorder{Printf: log.Printf},
		closers:     []func(context.Context) error{disconnect(client)},
	}
	if cfg.AMQPURL != "" {
		pub, err := syncx.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		st.events = pub
		st.closers = append(st.closers, func(context.Context) error { return pub.Close() })
	}
	return st, nil
}

func closeDB(dbh *sql.DB) func(context.Context) error {
	return func(context.Context) error { return dbh.Close() }
}

func disconnect(c *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error { return c.Disconnect(ctx) }
}
