package types

import (
	"context"
	"strings"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/types/maybe"
)

type City struct {
	Name    string
	Country string // ISO 3166 country code, e.g. "uk"
}

// Query is the city in provider query form, e.g. "London,uk".
func (c City) Query() string {
	if c.Country == "" {
		return c.Name
	}
	return c.Name + "," + c.Country
}

// Slug is a filename/topic safe form of the city name, e.g. "new_york".
func (c City) Slug() string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c.Name)), " ", "_")
}

// Observation is one current-weather reading for a city. Temperature,
// humidity and wind are optional because providers omit blocks they
// have no data for, and a partially usable reading is still worth storing.
type Observation struct {
	City        City
	Timestamp   time.Time // observation time reported by the provider (UTC)
	Temperature maybe.Maybe[float64]
	Humidity    maybe.Maybe[float64]
	WindSpeed   maybe.Maybe[float64]
	Pressure    maybe.Maybe[float64]
	Rain        maybe.Maybe[float64] // mm over the provider's reporting window
	Snow        maybe.Maybe[float64] // mm over the provider's reporting window
	Condition   string               // e.g. "Clear", "Rain"
	Raw         []byte // raw provider payload, archived by the extract task
	RetrievedAt time.Time
}

// ForecastPoint is one 3-hourly forecast slot for a city.
type ForecastPoint struct {
	City        City
	Time        time.Time
	Temperature float64
	Humidity    float64
	WindSpeed   float64
	Condition   string
}

type WeatherProvider interface {
	CurrentWeather(ctx context.Context, city City) (Observation, error)
	Forecast(ctx context.Context, city City) ([]ForecastPoint, []byte, error)
}
