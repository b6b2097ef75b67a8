package routing

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/config"
)

var (
	ErrUnavailable = errors.New("routing service is not configured")
	ErrNoRoute     = errors.New("no route found")
)

type Request struct {
	From          string
	To            string
	Modes         []string
	DepartureTime time.Time
}

type Route struct {
	Mode        string  `json:"mode"`
	DurationMin int     `json:"durationMin"`
	DistanceKm  float64 `json:"distanceKm"`
	Polyline    string  `json:"polyline"`
}

// Cache 由 redis 实现，测试时可以替换
type Cache interface {
	LoadJSON(ctx context.Context, key string, dst any) (bool, error)
	StoreJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	cacheTTL   time.Duration
}

func NewClient(cfg *config.Config, cache Cache) *Client {
	limit := rate.Limit(cfg.Routing.RateLimit)
	if cfg.Routing.RateLimit <= 0 {
		limit = rate.Inf
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.Routing.BaseURL, "/"),
		apiKey:     cfg.Routing.APIKey,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Routing.Timeout) * time.Second},
		limiter:    rate.NewLimiter(limit, max(cfg.Routing.RateBurst, 1)),
		cache:      cache,
		cacheTTL:   time.Duration(cfg.Cache.RouteExpiration) * time.Second,
	}
}

// directionsResponse 对应 directions/json 接口的返回结构
type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Duration struct {
				Value int `json:"value"` // 秒
			} `json:"duration"`
			Distance struct {
				Value int `json:"value"` // 米
			} `json:"distance"`
		} `json:"legs"`
	} `json:"routes"`
}

// GetRoute 对每种交通方式分别查询，单个方式失败只记录日志；全部失败时返回错误
func (c *Client) GetRoute(ctx context.Context, req Request) ([]Route, error) {
	if c.baseURL == "" {
		return nil, ErrUnavailable
	}

	routes := make([]Route, 0, len(req.Modes))
	var lastErr error
	for _, mode := range req.Modes {
		route, err := c.getModeRoute(ctx, req, mode)
		if err != nil {
			slog.Warn("无法获取路线", "mode", mode, "from", req.From, "to", req.To, "error", err)
			lastErr = err
			continue
		}
		routes = append(routes, route)
	}

	if len(routes) == 0 {
		if lastErr == nil {
			lastErr = ErrNoRoute
		}
		return nil, lastErr
	}
	return routes, nil
}

func (c *Client) getModeRoute(ctx context.Context, req Request, mode string) (Route, error) {
	key := cacheKey(req, mode)
	if c.cache != nil {
		var cached Route
		ok, err := c.cache.LoadJSON(ctx, key, &cached)
		if err != nil {
			slog.Warn("无法读取路线缓存", "key", key, "error", err)
		}
		if ok {
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Route{}, err
	}

	query := url.Values{}
	query.Set("origin", req.From)
	query.Set("destination", req.To)
	query.Set("mode", apiMode(mode))
	if !req.DepartureTime.IsZero() {
		query.Set("departure_time", fmt.Sprintf("%d", req.DepartureTime.Unix()))
	}
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/directions/json?"+query.Encode(), nil)
	if err != nil {
		return Route{}, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Route{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Route{}, fmt.Errorf("directions api returned status %d", resp.StatusCode)
	}

	var directions directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&directions); err != nil {
		return Route{}, err
	}
	if len(directions.Routes) == 0 || len(directions.Routes[0].Legs) == 0 {
		return Route{}, ErrNoRoute
	}

	first := directions.Routes[0]
	var seconds, meters int
	for _, leg := range first.Legs {
		seconds += leg.Duration.Value
		meters += leg.Distance.Value
	}

	route := Route{
		Mode:        mode,
		DurationMin: int(math.Ceil(float64(seconds) / 60)),
		DistanceKm:  math.Round(float64(meters)/100) / 10,
		Polyline:    first.OverviewPolyline.Points,
	}

	if c.cache != nil {
		if err := c.cache.StoreJSON(ctx, key, route, c.cacheTTL); err != nil {
			slog.Warn("无法写入路线缓存", "key", key, "error", err)
		}
	}

	return route, nil
}

// apiMode 把条目上记录的交通方式转换为接口使用的名称
func apiMode(mode string) string {
	switch strings.ToLower(mode) {
	case "drive", "taxi", "car":
		return "driving"
	case "walk":
		return "walking"
	case "bike", "bicycle":
		return "bicycling"
	case "train", "bus", "transit":
		return "transit"
	default:
		return strings.ToLower(mode)
	}
}

// cacheKey 出发时间按小时归并，避免每分钟都生成新的 key
func cacheKey(req Request, mode string) string {
	hour := req.DepartureTime.UTC().Truncate(time.Hour).Unix()
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%s|%d", req.From, req.To, apiMode(mode), hour)))
	return "route_" + hex.EncodeToString(sum[:])
}
