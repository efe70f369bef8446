// Package config loads service settings from the environment. Every
// knob has a default that works for local development; production
// deployments override through env vars.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend selects the job orchestration shape.
const (
	BackendInMemory = "inmemory"
	BackendDurable  = "durable"
)

// Settings is the full service configuration.
type Settings struct {
	Port int

	// AuthToken guards the mutating endpoints when set; empty
	// disables auth (local development).
	AuthToken string

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64

	// SyncEnabled gates POST /v1/optimize; large deployments turn it
	// off and accept async only.
	SyncEnabled bool

	// SyncTimeout bounds a synchronous solve; DefaultTimeout and
	// MaxTimeout shape per-request budgets.
	SyncTimeout    time.Duration
	DefaultTimeout time.Duration
	MaxTimeout     time.Duration

	// SolverWorkers is recorded into solver stats; Workers sizes the
	// in-process job pool.
	SolverWorkers int
	Workers       int

	Backend string

	// Durable backend wiring.
	JobTable     string
	Bucket       string
	BucketPrefix string
	QueueURL     string
	JobTTL       time.Duration

	// Rate limiting window for mutating endpoints.
	RateLimit       int
	RateLimitWindow time.Duration

	CORSOrigins []string

	// JournalPath is the local SQLite audit log; empty disables it.
	JournalPath string

	// TemplatesDir holds extra plan templates loaded at startup.
	TemplatesDir string
}

// FromEnv builds Settings from the environment.
func FromEnv() (*Settings, error) {
	s := &Settings{
		Port:            envInt("PLANNER_PORT", 8080),
		AuthToken:       os.Getenv("PLANNER_AUTH_TOKEN"),
		MaxBodyBytes:    int64(envInt("PLANNER_MAX_BODY_BYTES", 4<<20)),
		SyncEnabled:     envBool("PLANNER_SYNC_ENABLED", true),
		SyncTimeout:     envDuration("PLANNER_SYNC_TIMEOUT", 30*time.Second),
		DefaultTimeout:  envDuration("PLANNER_DEFAULT_TIMEOUT", 20*time.Second),
		MaxTimeout:      envDuration("PLANNER_MAX_TIMEOUT", 5*time.Minute),
		SolverWorkers:   envInt("PLANNER_SOLVER_WORKERS", 1),
		Workers:         envInt("PLANNER_WORKERS", 2),
		Backend:         envString("PLANNER_BACKEND", BackendInMemory),
		JobTable:        os.Getenv("PLANNER_JOB_TABLE"),
		Bucket:          os.Getenv("PLANNER_BUCKET"),
		BucketPrefix:    os.Getenv("PLANNER_BUCKET_PREFIX"),
		QueueURL:        os.Getenv("PLANNER_QUEUE_URL"),
		JobTTL:          envDuration("PLANNER_JOB_TTL", 7*24*time.Hour),
		RateLimit:       envInt("PLANNER_RATE_LIMIT", 120),
		RateLimitWindow: envDuration("PLANNER_RATE_WINDOW", time.Minute),
		JournalPath:     os.Getenv("PLANNER_JOURNAL_PATH"),
		TemplatesDir:    os.Getenv("PLANNER_TEMPLATES_DIR"),
	}

	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				s.CORSOrigins = append(s.CORSOrigins, origin)
			}
		}
	}

	switch s.Backend {
	case BackendInMemory:
	case BackendDurable:
		if s.JobTable == "" || s.Bucket == "" || s.QueueURL == "" {
			return nil, fmt.Errorf("durable backend requires PLANNER_JOB_TABLE, PLANNER_BUCKET and PLANNER_QUEUE_URL")
		}
	default:
		return nil, fmt.Errorf("unknown backend %q", s.Backend)
	}
	return s, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
