package task

import (
	"math"
	"testing"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/dates"
	"github.com/amitesh0109/weather-data-pipeline/types"
)

func TestCollapseForecast(t *testing.T) {
	city := types.City{Name: "London", Country: "uk"}
	retrievedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	point := func(day, hour int, temp float64, condition string) types.ForecastPoint {
		return types.ForecastPoint{
			City:        city,
			Time:        time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC),
			Temperature: temp,
			Condition:   condition,
		}
	}

	rows := collapseForecast(city, time.UTC, []types.ForecastPoint{
		point(11, 0, 8.0, "Clouds"),
		point(11, 6, 6.0, "Rain"),
		point(11, 12, 12.0, "Rain"),
		point(12, 0, 4.0, "Clear"),
	}, retrievedAt)

	if got, want := len(rows), 2; got != want {
		t.Fatalf("got %d rows, want %d", got, want)
	}

	first := rows[0]
	if got, want := first.TargetDate, dates.Date("2026-03-11"); got != want {
		t.Errorf("got target date %s, want %s", got, want)
	}
	if got, want := first.TempMin, 6.0; got != want {
		t.Errorf("got temp min %.1f, want %.1f", got, want)
	}
	if got, want := first.TempMax, 12.0; got != want {
		t.Errorf("got temp max %.1f, want %.1f", got, want)
	}
	if got, want := first.TempAvg, 26.0/3; math.Abs(got-want) > 1e-9 {
		t.Errorf("got temp avg %f, want %f", got, want)
	}
	if got, want := first.Condition, "Rain"; got != want {
		t.Errorf("got condition %s, want %s", got, want)
	}

	second := rows[1]
	if got, want := second.TargetDate, dates.Date("2026-03-12"); got != want {
		t.Errorf("got target date %s, want %s", got, want)
	}
	if got, want := second.TempMin, 4.0; got != want {
		t.Errorf("got temp min %.1f, want %.1f", got, want)
	}
	if got, want := second.TempMax, 4.0; got != want {
		t.Errorf("got temp max %.1f, want %.1f", got, want)
	}
}

func TestCollapseForecastBucketsInLocalTime(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}

	city := types.City{Name: "Tokyo", Country: "jp"}
	// 23:00 UTC on the 11th is already the 12th in Tokyo.
	rows := collapseForecast(city, tokyo, []types.ForecastPoint{{
		City:        city,
		Time:        time.Date(2026, 3, 11, 23, 0, 0, 0, time.UTC),
		Temperature: 10.0,
		Condition:   "Clear",
	}}, time.Now())

	if got, want := len(rows), 1; got != want {
		t.Fatalf("got %d rows, want %d", got, want)
	}
	if got, want := rows[0].TargetDate, dates.Date("2026-03-12"); got != want {
		t.Errorf("got target date %s, want %s", got, want)
	}
}

func TestCollapseForecastEmpty(t *testing.T) {
	rows := collapseForecast(types.City{Name: "London"}, time.UTC, nil, time.Now())
	if got, want := len(rows), 0; got != want {
		t.Errorf("got %d rows, want %d", got, want)
	}
}

func TestObservationsStale(t *testing.T) {
	obs := func(age time.Duration) database.ObservationRow {
		return database.ObservationRow{City: "London", Timestamp: time.Now().Add(-age)}
	}

	tests := []struct {
		name   string
		latest []database.ObservationRow
		want   bool
	}{
		{"empty table", nil, true},
		{"fresh reading", []database.ObservationRow{obs(5 * time.Minute)}, false},
		{"old reading", []database.ObservationRow{obs(3 * time.Hour)}, true},
		{"one fresh among old", []database.ObservationRow{obs(3 * time.Hour), obs(5 * time.Minute)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := observationsStale(tt.latest); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
