package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"woundtrack-backend/internal/shared/telemetry"
)

// Runtime selects pool defaults for the kind of process opening the database.
type Runtime string

const (
	RuntimeServer Runtime = "server"
	RuntimeLambda Runtime = "lambda"
	RuntimeCLI    Runtime = "cli"
)

// Options controls database pool and connectivity behavior.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ErrNoDatabaseURL is returned when Connect is called without a DSN.
var ErrNoDatabaseURL = errors.New("DATABASE_URL is empty")

var defaults = map[Runtime]Options{
	// The journal sees one insert per completed wizard, so pools stay small.
	RuntimeServer: {MaxOpenConns: 8, MaxIdleConns: 4, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second},
	RuntimeLambda: {MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxIdleTime: 30 * time.Second, ConnMaxLifetime: 15 * time.Minute, PingTimeout: 3 * time.Second},
	RuntimeCLI:    {MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxIdleTime: time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 10 * time.Second},
}

var (
	openDB      = sql.Open
	singletonMu sync.Mutex
	singletonDB *sql.DB
)

// DetectRuntime reports RuntimeLambda inside AWS Lambda and RuntimeServer otherwise.
func DetectRuntime() Runtime {
	if strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != "" {
		return RuntimeLambda
	}
	return RuntimeServer
}

// DefaultOptions returns pool defaults for a runtime. Unknown runtimes get server defaults.
func DefaultOptions(rt Runtime) Options {
	if opts, ok := defaults[rt]; ok {
		return opts
	}
	return defaults[RuntimeServer]
}

// OptionsFromEnv overrides defaults with DB_* env vars if present.
func OptionsFromEnv(opts Options) Options {
	ints := []struct {
		key string
		dst *int
	}{
		{"DB_MAX_OPEN_CONNS", &opts.MaxOpenConns},
		{"DB_MAX_IDLE_CONNS", &opts.MaxIdleConns},
	}
	for _, e := range ints {
		if v, ok := readEnvInt(e.key); ok {
			*e.dst = v
		}
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"DB_CONN_MAX_LIFETIME", &opts.ConnMaxLifetime},
		{"DB_CONN_MAX_IDLE_TIME", &opts.ConnMaxIdleTime},
		{"DB_PING_TIMEOUT", &opts.PingTimeout},
	}
	for _, e := range durations {
		if v, ok := readEnvDuration(e.key); ok {
			*e.dst = v
		}
	}
	return opts
}

// Open connects with env-adjusted defaults for rt. Lambda reuses one pool per
// execution environment.
func Open(ctx context.Context, databaseURL string, rt Runtime) (*sql.DB, error) {
	opts := OptionsFromEnv(DefaultOptions(rt))
	if rt == RuntimeLambda {
		return GetSingleton(ctx, databaseURL, opts)
	}
	return Connect(ctx, databaseURL, opts)
}

// Connect opens a *sql.DB and verifies connectivity with a bounded ping.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, ErrNoDatabaseURL
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applyOptions(db, opts)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	stats := db.Stats()
	telemetry.Info("db.connected", map[string]any{
		"open":     stats.OpenConnections,
		"idle":     stats.Idle,
		"max_open": stats.MaxOpenConnections,
	})
	return db, nil
}

// GetSingleton returns a process-wide *sql.DB. Concurrent callers wait for the
// first connect; a failed connect is retried by the next call.
func GetSingleton(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	if singletonDB != nil {
		return singletonDB, nil
	}
	db, err := Connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, err
	}
	singletonDB = db
	telemetry.Info("db.singleton.init", nil)
	return singletonDB, nil
}

func applyOptions(db *sql.DB, opts Options) {
	fallback := defaults[RuntimeServer]
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = fallback.MaxOpenConns
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = fallback.MaxIdleConns
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = fallback.ConnMaxLifetime
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

func readEnvInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		telemetry.Warn("db.env.invalid", map[string]any{"key": key, "value": raw})
		return 0, false
	}
	return val, true
}

func readEnvDuration(key string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		telemetry.Warn("db.env.invalid", map[string]any{"key": key, "value": raw})
		return 0, false
	}
	return val, true
}
