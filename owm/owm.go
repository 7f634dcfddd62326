package owm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/amitesh0109/weather-data-pipeline/types"
	"github.com/amitesh0109/weather-data-pipeline/types/maybe"
)

// Client talks to OpenWeatherMap. It satisfies types.WeatherProvider.
type Client struct {
	logger  *slog.Logger
	apiKey  string
	baseUrl string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	backoff BackoffConfig
}

func New(apiKey string, baseUrl *string, timeout time.Duration) *Client {
	base := BaseUrl
	if baseUrl != nil && *baseUrl != "" {
		base = *baseUrl
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweathermap",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		logger:  slog.Default().With(slog.String("module", "owm")),
		apiKey:  apiKey,
		baseUrl: base,
		client:  &http.Client{Timeout: timeout},
		breaker: cb,
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}
}

func (c *Client) CurrentWeather(ctx context.Context, city types.City) (types.Observation, error) {
	body, err := c.get(ctx, "/weather", city)
	if err != nil {
		return types.Observation{}, fmt.Errorf("fetching current weather for %s: %w", city.Query(), err)
	}

	var payload currentPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return types.Observation{}, fmt.Errorf("unmarshaling current weather for %s: %w", city.Query(), err)
	}

	obs := types.Observation{
		City:        city,
		Timestamp:   time.Unix(payload.Dt, 0).UTC(),
		Condition:   firstCondition(payload),
		Raw:         body,
		RetrievedAt: time.Now().UTC(),
	}
	if payload.Dt == 0 {
		obs.Timestamp = obs.RetrievedAt
	}
	if payload.Main != nil {
		obs.Temperature = maybe.FromPtr(payload.Main.Temp)
		obs.Humidity = maybe.FromPtr(payload.Main.Humidity)
		obs.Pressure = maybe.FromPtr(payload.Main.Pressure)
	}
	if payload.Wind != nil {
		obs.WindSpeed = maybe.FromPtr(payload.Wind.Speed)
	}
	if payload.Rain != nil {
		obs.Rain = precipitation(payload.Rain.ThreeHour, payload.Rain.OneHour)
	}
	if payload.Snow != nil {
		obs.Snow = precipitation(payload.Snow.ThreeHour, payload.Snow.OneHour)
	}

	return obs, nil
}

// precipitation picks the widest reported accumulation window. The
// provider sends "3h" or "1h" depending on endpoint and conditions,
// and an empty block means no precipitation data, not zero.
func precipitation(threeHour, oneHour *float64) maybe.Maybe[float64] {
	if threeHour != nil {
		return maybe.Some(*threeHour)
	}
	return maybe.FromPtr(oneHour)
}

func (c *Client) Forecast(ctx context.Context, city types.City) ([]types.ForecastPoint, []byte, error) {
	body, err := c.get(ctx, "/forecast", city)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching forecast for %s: %w", city.Query(), err)
	}

	var payload forecastPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling forecast for %s: %w", city.Query(), err)
	}

	points := make([]types.ForecastPoint, 0, len(payload.List))
	for _, entry := range payload.List {
		condition := ""
		if len(entry.Weather) > 0 {
			condition = entry.Weather[0].Main
		}
		points = append(points, types.ForecastPoint{
			City:        city,
			Time:        time.Unix(entry.Dt, 0).UTC(),
			Temperature: entry.Main.Temp,
			Humidity:    entry.Main.Humidity,
			WindSpeed:   entry.Wind.Speed,
			Condition:   condition,
		})
	}

	return points, body, nil
}

func (c *Client) get(ctx context.Context, endpoint string, city types.City) ([]byte, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city.Query())
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")
		u := fmt.Sprintf("%s%s?%s", c.baseUrl, endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	c.logger.Debug("fetching from OpenWeatherMap", "endpoint", endpoint, "city", city.Query())

	resp, err := doRequestWithResilience(ctx, c.client, c.backoff, c.breaker, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return body, nil
}

func firstCondition(payload currentPayload) string {
	if len(payload.Weather) == 0 {
		return ""
	}
	return payload.Weather[0].Main
}
