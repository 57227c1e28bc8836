package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const cacheTTL = 24 * time.Hour

// ErrNoResult возвращается, когда геокодер не нашел адрес
var ErrNoResult = errors.New("geocoder: no result for location")

// Point - координаты, полученные по адресу
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Client - клиент Nominatim API (адрес -> координаты) с кэшем результатов в Redis.
// Неудача поиска не критична для вызывающего: движок создает инцидент без координат.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	redisClient *redis.Client
	logger      *logrus.Logger
}

// NewClient создает клиент геокодера с ограничением времени запроса
func NewClient(baseURL string, timeout time.Duration, redisClient *redis.Client, logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     baseURL,
		redisClient: redisClient,
		logger:      logger,
	}
}

// Lookup разрешает произвольную строку адреса в координаты.
// Сначала проверяется кэш, затем выполняется запрос к Nominatim.
func (c *Client) Lookup(ctx context.Context, location string) (*Point, error) {
	if point, ok := c.fromCache(ctx, location); ok {
		return point, nil
	}

	params := url.Values{
		"q":      {location},
		"format": {"json"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocoder: create request: %w", err)
	}
	// Nominatim требует идентификации клиента
	req.Header.Set("User-Agent", "ems-dispatch-system/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder: lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder: unexpected status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocoder: decode response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNoResult
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder: parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder: parse longitude: %w", err)
	}

	point := &Point{Latitude: lat, Longitude: lon}
	c.toCache(ctx, location, point)
	return point, nil
}

// fromCache пытается получить координаты из Redis
func (c *Client) fromCache(ctx context.Context, location string) (*Point, bool) {
	if c.redisClient == nil {
		return nil, false
	}
	val, err := c.redisClient.Get(ctx, cacheKey(location)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).Warn("Failed to read geocode cache")
		}
		return nil, false
	}
	point := &Point{}
	if err := json.Unmarshal(val, point); err != nil {
		c.logger.WithError(err).Warn("Failed to unmarshal cached geocode result")
		return nil, false
	}
	return point, true
}

// toCache сохраняет результат поиска; ошибки кэша не влияют на результат
func (c *Client) toCache(ctx context.Context, location string, point *Point) {
	if c.redisClient == nil {
		return
	}
	val, err := json.Marshal(point)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal geocode result for cache")
		return
	}
	if err := c.redisClient.Set(ctx, cacheKey(location), val, cacheTTL).Err(); err != nil {
		c.logger.WithError(err).Warn("Failed to write geocode cache")
	}
}

func cacheKey(location string) string {
	return fmt.Sprintf("geocode:%s", location)
}

// Формат ответа Nominatim: координаты приходят строками
type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}
