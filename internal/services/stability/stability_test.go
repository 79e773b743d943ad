package stability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ShotTrace/internal/domain/models"
	"ShotTrace/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func TestTableStability(t *testing.T) {
	table := NewTable([]models.StabilityWindow{
		{From: t0.Add(10 * time.Second), To: t0.Add(12 * time.Second), Score: 0.6},
		{From: t0, To: t0.Add(2 * time.Second), Score: 0.1},
		{From: t0.Add(time.Second), To: t0.Add(3 * time.Second), Score: 0.3},
		{From: t0, To: t0.Add(-time.Second), Score: 0.9}, // inverted, dropped
		{From: t0, To: t0.Add(time.Second), Score: 4},    // out of range, dropped
	})
	assert.Equal(t, 3, table.Len())

	got, ok := table.Stability(t0.Add(-time.Second), t0.Add(time.Second))
	require.True(t, ok)
	assert.InDelta(t, 0.2, got, 1e-9)

	_, ok = table.Stability(t0.Add(5*time.Second), t0.Add(7*time.Second))
	assert.False(t, ok)
}

func TestClientFetch(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, windowsPath, r.URL.Path)
		var req windowsRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) || !assert.Len(t, req.Windows, 2) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "r1", req.RoundID)
		assert.Equal(t, t0.Add(-time.Second), req.Windows[0].From)

		score := 0.15
		resp := map[string]interface{}{
			"windows": []map[string]interface{}{
				{"from": req.Windows[0].From, "to": req.Windows[0].To, "score": score},
				{"from": req.Windows[1].From, "to": req.Windows[1].To, "score": nil},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Stability.ServiceURL = srv.URL
	cfg.Stability.RetryAttempts = 2
	cfg.Stability.Timeout = time.Second

	ws, err := NewClient(cfg).Fetch(context.Background(), "r1", []time.Time{t0, t0.Add(time.Minute)}, time.Second)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, 0.15, ws[0].Score)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientFetchNotConfigured(t *testing.T) {
	_, err := NewClient(&config.Config{}).Fetch(context.Background(), "r1", []time.Time{t0}, time.Second)
	assert.Error(t, err)
}

func TestClientFetchNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Stability.ServiceURL = srv.URL
	cfg.Stability.RetryAttempts = 3

	_, err := NewClient(cfg).Fetch(context.Background(), "r1", []time.Time{t0}, time.Second)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
