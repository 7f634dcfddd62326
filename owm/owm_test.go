package owm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/types"
)

const currentWeatherBody = `{
	"dt": 1748772000,
	"name": "London",
	"weather": [{"main": "Clouds", "description": "scattered clouds"}],
	"main": {"temp": 17.3, "humidity": 68, "pressure": 1012},
	"wind": {"speed": 4.1},
	"sys": {"country": "GB"}
}`

const currentWeatherNoWindBody = `{
	"dt": 1748772000,
	"name": "London",
	"weather": [{"main": "Clear", "description": "clear sky"}],
	"main": {"temp": 21.0, "humidity": 40, "pressure": 1018},
	"sys": {"country": "GB"}
}`

const currentWeatherRainBody = `{
	"dt": 1748772000,
	"name": "Mumbai",
	"weather": [{"main": "Rain", "description": "heavy intensity rain"}],
	"main": {"temp": 27.5, "humidity": 92, "pressure": 1004},
	"wind": {"speed": 6.2},
	"rain": {"1h": 12.5},
	"snow": {"3h": 0.4, "1h": 0.1},
	"sys": {"country": "IN"}
}`

const forecastBody = `{
	"city": {"name": "London", "country": "GB"},
	"list": [
		{"dt": 1748772000, "main": {"temp": 15.0, "humidity": 70}, "wind": {"speed": 3.0}, "weather": [{"main": "Rain"}]},
		{"dt": 1748782800, "main": {"temp": 18.5, "humidity": 60}, "wind": {"speed": 5.0}, "weather": [{"main": "Clouds"}]}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	base := srv.URL
	return New("test-key", &base, 5*time.Second)
}

func TestCurrentWeather(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(currentWeatherBody))
	})

	obs, err := c.CurrentWeather(context.Background(), types.City{Name: "London", Country: "uk"})
	if err != nil {
		t.Fatalf("CurrentWeather failed: %v", err)
	}

	if gotPath != "/weather" {
		t.Errorf("expected path /weather, got %q", gotPath)
	}
	if gotQuery != "London,uk" {
		t.Errorf("expected query London,uk, got %q", gotQuery)
	}
	if !obs.Temperature.IsValid() || obs.Temperature.Value() != 17.3 {
		t.Errorf("expected temperature 17.3, got %+v", obs.Temperature)
	}
	if !obs.Humidity.IsValid() || obs.Humidity.Value() != 68 {
		t.Errorf("expected humidity 68, got %+v", obs.Humidity)
	}
	if obs.Condition != "Clouds" {
		t.Errorf("expected condition Clouds, got %q", obs.Condition)
	}
	expectedTs := time.Unix(1748772000, 0).UTC()
	if !obs.Timestamp.Equal(expectedTs) {
		t.Errorf("expected timestamp %v, got %v", expectedTs, obs.Timestamp)
	}
	if len(obs.Raw) == 0 {
		t.Error("expected raw payload to be retained")
	}
}

func TestCurrentWeatherMissingWindIsNone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(currentWeatherNoWindBody))
	})

	obs, err := c.CurrentWeather(context.Background(), types.City{Name: "London", Country: "uk"})
	if err != nil {
		t.Fatalf("CurrentWeather failed: %v", err)
	}

	if obs.WindSpeed.IsValid() {
		t.Errorf("expected missing wind to be None, got %v", obs.WindSpeed.Value())
	}
	if !obs.Temperature.IsValid() {
		t.Error("expected temperature to be present")
	}
}

func TestCurrentWeatherPrecipitation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(currentWeatherRainBody))
	})

	obs, err := c.CurrentWeather(context.Background(), types.City{Name: "Mumbai", Country: "in"})
	if err != nil {
		t.Fatalf("CurrentWeather failed: %v", err)
	}

	if !obs.Rain.IsValid() || obs.Rain.Value() != 12.5 {
		t.Errorf("expected rain 12.5, got %+v", obs.Rain)
	}
	// When both accumulations are present the 3h one wins.
	if !obs.Snow.IsValid() || obs.Snow.Value() != 0.4 {
		t.Errorf("expected snow 0.4, got %+v", obs.Snow)
	}
}

func TestCurrentWeatherMissingPrecipitationIsNone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(currentWeatherBody))
	})

	obs, err := c.CurrentWeather(context.Background(), types.City{Name: "London", Country: "uk"})
	if err != nil {
		t.Fatalf("CurrentWeather failed: %v", err)
	}

	if obs.Rain.IsValid() {
		t.Errorf("expected missing rain block to be None, got %v", obs.Rain.Value())
	}
	if obs.Snow.IsValid() {
		t.Errorf("expected missing snow block to be None, got %v", obs.Snow.Value())
	}
}

func TestForecast(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast" {
			t.Errorf("expected path /forecast, got %q", r.URL.Path)
		}
		w.Write([]byte(forecastBody))
	})

	points, raw, err := c.Forecast(context.Background(), types.City{Name: "London", Country: "uk"})
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	if len(points) != 2 {
		t.Fatalf("expected 2 forecast points, got %d", len(points))
	}
	if points[0].Temperature != 15.0 {
		t.Errorf("expected first point temperature 15.0, got %f", points[0].Temperature)
	}
	if points[1].Condition != "Clouds" {
		t.Errorf("expected second point condition Clouds, got %q", points[1].Condition)
	}
	if len(raw) == 0 {
		t.Error("expected raw payload to be returned")
	}
}

func TestCurrentWeatherRetriesOnServerError(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(currentWeatherBody))
	})
	c.backoff.InitialInterval = time.Millisecond

	_, err := c.CurrentWeather(context.Background(), types.City{Name: "London", Country: "uk"})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}
