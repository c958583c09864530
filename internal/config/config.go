package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string // sqlite|postgres|mongo|memory
	DBDSN    string

	MongoURI string
	MongoDB  string

	// Per-attempt lock shared by all replicas. Empty means in-process.
	RedisAddr     string
	RedisPassword string
	LockTTL       time.Duration

	// Events. Empty AMQP_URL keeps events in the outbox (or the log).
	AMQPURL        string
	AMQPExchange   string
	EventRelaySpec string
	SiteID         string

	JWTSecret string
	TokenTTL  time.Duration

	// Bootstrap admin, created on first start when missing.
	AdminEmail    string
	AdminPassHash string // bcrypt

	UploadDir string // archived question sheets

	ScoringComparator string // loose|typed

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

func defaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_db", "satportal")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("lock_ttl", 10*time.Second)
	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "satportal.events")
	v.SetDefault("event_relay_spec", "@every 30s")
	v.SetDefault("site_id", "local")
	v.SetDefault("jwt_secret", "dev-secret-change-me")
	v.SetDefault("token_ttl", 12*time.Hour)
	v.SetDefault("admin_email", "admin@satportal.local")
	v.SetDefault("admin_pass_hash", "")
	v.SetDefault("upload_dir", "./data")
	v.SetDefault("scoring_comparator", "loose")
	v.SetDefault("cors_origins_online", "https://satportal.mindengage.ai")
	v.SetDefault("cors_origins_offline", "http://localhost:3000,http://localhost:5173")
}

// FromEnv reads an optional .env file, then the process environment.
func FromEnv() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: .env: %v", err)
	}
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	defaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	mode := Mode(v.GetString("mode"))
	if mode != ModeOnline {
		mode = ModeOffline
	}
	return Config{
		Mode:               mode,
		HTTPAddr:           v.GetString("http_addr"),
		DBDriver:           strings.ToLower(v.GetString("db_driver")),
		DBDSN:              v.GetString("db_dsn"),
		MongoURI:           v.GetString("mongo_uri"),
		MongoDB:            v.GetString("mongo_db"),
		RedisAddr:          v.GetString("redis_addr"),
		RedisPassword:      v.GetString("redis_password"),
		LockTTL:            v.GetDuration("lock_ttl"),
		AMQPURL:            v.GetString("amqp_url"),
		AMQPExchange:       v.GetString("amqp_exchange"),
		EventRelaySpec:     v.GetString("event_relay_spec"),
		SiteID:             v.GetString("site_id"),
		JWTSecret:          v.GetString("jwt_secret"),
		TokenTTL:           v.GetDuration("token_ttl"),
		AdminEmail:         v.GetString("admin_email"),
		AdminPassHash:      v.GetString("admin_pass_hash"),
		UploadDir:          v.GetString("upload_dir"),
		ScoringComparator:  strings.ToLower(strings.TrimSpace(v.GetString("scoring_comparator"))),
		CORSOriginsOnline:  splitCSV(v.GetString("cors_origins_online")),
		CORSOriginsOffline: splitCSV(v.GetString("cors_origins_offline")),
	}
}

// CORSOrigins picks the list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
