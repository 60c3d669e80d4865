package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/tracky/internal/config"
	"github.com/patric-chuzhbe/tracky/internal/kvstore"
	"github.com/patric-chuzhbe/tracky/internal/models"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("FORGOT_PASSWORD_FLOOR", "0s")

	a, err := New(config.WithDisableFlagsParsing(true))
	require.NoError(t, err)

	return a
}

func TestGetAvailableStorageType(t *testing.T) {
	assert.Equal(t, models.StorageTypePostgresql, getAvailableStorageType(&config.Config{DatabaseDSN: "postgres://x"}))
	assert.Equal(t, models.StorageTypeMemory, getAvailableStorageType(&config.Config{}))
}

func TestNewInMemory(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	a := newTestApp(t)
	t.Cleanup(func() { _ = a.release() })

	_, isMemory := a.kv.(*kvstore.MemoryStore)
	assert.True(t, isMemory)

	server := httptest.NewServer(a.httpHandler)
	defer server.Close()

	resp, err := resty.New().R().Get(server.URL + "/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestSessionsLiveInRedis(t *testing.T) {
	m := miniredis.RunT(t)
	t.Setenv("REDIS_URL", "redis://"+m.Addr())
	a := newTestApp(t)
	t.Cleanup(func() { _ = a.release() })

	server := httptest.NewServer(a.httpHandler)
	defer server.Close()

	resp, err := resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody(models.RegisterRequest{Username: "zoe", Email: "zoe@example.com", Password: "secret"}).
		Post(server.URL + "/api/users/register")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	keys := m.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "sess:"))
	assert.Equal(t, 2*365*24*time.Hour, m.TTL(keys[0]))
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	a := newTestApp(t)
	a.cfg.RunAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.serve(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	select {
	case <-a.mailQueue.Done():
	default:
		t.Fatal("mail queue still running")
	}
}
