package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	s, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, s.Port)
	assert.Empty(t, s.AuthToken)
	assert.Equal(t, int64(4<<20), s.MaxBodyBytes)
	assert.True(t, s.SyncEnabled)
	assert.Equal(t, 30*time.Second, s.SyncTimeout)
	assert.Equal(t, 20*time.Second, s.DefaultTimeout)
	assert.Equal(t, 5*time.Minute, s.MaxTimeout)
	assert.Equal(t, BackendInMemory, s.Backend)
	assert.Equal(t, 2, s.Workers)
	assert.Equal(t, 120, s.RateLimit)
	assert.Equal(t, time.Minute, s.RateLimitWindow)
	assert.Empty(t, s.CORSOrigins)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PLANNER_PORT", "9000")
	t.Setenv("PLANNER_AUTH_TOKEN", "secret")
	t.Setenv("PLANNER_SYNC_ENABLED", "false")
	t.Setenv("PLANNER_SYNC_TIMEOUT", "90s")
	t.Setenv("PLANNER_WORKERS", "8")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")

	s, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9000, s.Port)
	assert.Equal(t, "secret", s.AuthToken)
	assert.False(t, s.SyncEnabled)
	assert.Equal(t, 90*time.Second, s.SyncTimeout)
	assert.Equal(t, 8, s.Workers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.CORSOrigins)
}

func TestFromEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("PLANNER_PORT", "not-a-number")
	t.Setenv("PLANNER_SYNC_TIMEOUT", "soon")

	s, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8080, s.Port)
	assert.Equal(t, 30*time.Second, s.SyncTimeout)
}

func TestFromEnvDurableRequiresWiring(t *testing.T) {
	t.Setenv("PLANNER_BACKEND", BackendDurable)

	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("PLANNER_JOB_TABLE", "jobs")
	t.Setenv("PLANNER_BUCKET", "plans")
	t.Setenv("PLANNER_QUEUE_URL", "https://sqs.example/q")

	s, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, BackendDurable, s.Backend)
	assert.Equal(t, "jobs", s.JobTable)
}

func TestFromEnvUnknownBackend(t *testing.T) {
	t.Setenv("PLANNER_BACKEND", "carrier-pigeon")
	_, err := FromEnv()
	assert.Error(t, err)
}
