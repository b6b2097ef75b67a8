package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/config"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryCache) LoadJSON(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memoryCache) StoreJSON(_ context.Context, key string, v any, _ time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func testConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Routing.BaseURL = baseURL
	cfg.Routing.APIKey = "secret"
	cfg.Routing.Timeout = 5
	cfg.Cache.RouteExpiration = 3600
	return cfg
}

const directionsBody = `{
	"status": "OK",
	"routes": [{
		"overview_polyline": {"points": "abc"},
		"legs": [
			{"duration": {"value": 1000}, "distance": {"value": 8300}},
			{"duration": {"value": 330}, "distance": {"value": 1200}}
		]
	}]
}`

func TestGetRoute(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/directions/json", r.URL.Path)
		assert.Equal(t, "Hotel", r.URL.Query().Get("origin"))
		assert.Equal(t, "Museum", r.URL.Query().Get("destination"))
		assert.Equal(t, "driving", r.URL.Query().Get("mode"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(directionsBody))
	}))
	defer srv.Close()

	cache := &memoryCache{data: make(map[string][]byte)}
	client := NewClient(testConfig(srv.URL), cache)
	req := Request{From: "Hotel", To: "Museum", Modes: []string{"drive"}, DepartureTime: time.Date(2024, 3, 1, 9, 10, 0, 0, time.UTC)}

	routes, err := client.GetRoute(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, Route{Mode: "drive", DurationMin: 23, DistanceKm: 9.5, Polyline: "abc"}, routes[0])

	// 同一小时内再次查询命中缓存
	req.DepartureTime = req.DepartureTime.Add(20 * time.Minute)
	routes, err = client.GetRoute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 23, routes[0].DurationMin)
	assert.Equal(t, 1, calls)
}

func TestGetRouteDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("mode") {
		case "walking":
			_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "routes": []}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)

	_, err := client.GetRoute(context.Background(), Request{From: "a", To: "b", Modes: []string{"walk"}})
	assert.ErrorIs(t, err, ErrNoRoute)

	_, err = client.GetRoute(context.Background(), Request{From: "a", To: "b", Modes: []string{"drive"}})
	assert.Error(t, err)

	_, err = NewClient(testConfig(""), nil).GetRoute(context.Background(), Request{From: "a", To: "b", Modes: []string{"drive"}})
	assert.ErrorIs(t, err, ErrUnavailable)
}
