package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable возвращается, когда погодный сервис недоступен или не настроен
var ErrUnavailable = errors.New("weather data unavailable")

// Conditions - текущие погодные условия в зоне ответственности службы
type Conditions struct {
	Temp        float64 `json:"temp"`
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

// Client - клиент OpenWeatherMap для текущей погоды
type Client struct {
	apiKey     string
	city       string
	baseURL    string
	httpClient *http.Client
}

// NewClient создает погодный клиент. Пустой apiKey допустим:
// в этом случае Current всегда возвращает ErrUnavailable.
func NewClient(apiKey, city string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		city:    city,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Current возвращает текущие условия для настроенного города
func (c *Client) Current(ctx context.Context) (*Conditions, error) {
	if c.apiKey == "" {
		return nil, ErrUnavailable
	}

	params := url.Values{
		"q":     {c.city},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("weather: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}

	cond := &Conditions{
		Temp:      payload.Main.Temp,
		Humidity:  payload.Main.Humidity,
		WindSpeed: payload.Wind.Speed,
	}
	if len(payload.Weather) > 0 {
		cond.Description = titleCase(payload.Weather[0].Description)
	}
	return cond, nil
}

// titleCase переводит описание вида "scattered clouds" в "Scattered Clouds"
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Формат ответа OpenWeatherMap
type response struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}
