package transform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/config"
	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/dates"
	"github.com/amitesh0109/weather-data-pipeline/types"
	"github.com/amitesh0109/weather-data-pipeline/types/maybe"
)

type fakeStore struct {
	observations map[string][]database.ObservationRow
	aggregates   map[string]database.DailyAggregateRow
	anomalies    map[string]database.TemperatureAnomalyRow
	events       map[string]database.ExtremeWeatherEventRow
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		observations: map[string][]database.ObservationRow{},
		aggregates:   map[string]database.DailyAggregateRow{},
		anomalies:    map[string]database.TemperatureAnomalyRow{},
		events:       map[string]database.ExtremeWeatherEventRow{},
	}
}

func (s *fakeStore) GetObservations(ctx context.Context, city string, since maybe.Maybe[time.Time]) ([]database.ObservationRow, error) {
	return s.observations[city], nil
}

func (s *fakeStore) GetRecentAggregates(ctx context.Context, city string, before dates.Date, windowDays int) ([]database.DailyAggregateRow, error) {
	from := before.Sub(windowDays)
	var rows []database.DailyAggregateRow
	for _, agg := range s.aggregates {
		if agg.City != city {
			continue
		}
		if agg.Date.Compare(from) >= 0 && agg.Date.Compare(before) < 0 {
			rows = append(rows, agg)
		}
	}
	return rows, nil
}

func (s *fakeStore) SaveDailyAggregates(ctx context.Context, rows []database.DailyAggregateRow) error {
	for _, row := range rows {
		s.aggregates[row.City+"|"+row.Date.String()] = row
	}
	return nil
}

func (s *fakeStore) SaveTemperatureAnomaly(ctx context.Context, row database.TemperatureAnomalyRow) error {
	s.anomalies[row.City+"|"+row.Date.String()] = row
	return nil
}

func (s *fakeStore) SaveExtremeWeatherEvents(ctx context.Context, rows []database.ExtremeWeatherEventRow) error {
	for _, row := range rows {
		s.events[fmt.Sprintf("%s|%s|%s", row.City, row.Date, row.EventType)] = row
	}
	return nil
}

var runnerConfig = config.AppConfigTransform{
	Anomaly: config.AppConfigAnomaly{
		ModerateThreshold:  2.0,
		SevereThreshold:    5.0,
		BaselineWindowDays: 14,
		BaselineMinSamples: 3,
	},
	Events: config.AppConfigEvents{
		HeatThreshold:        35.0,
		ColdThreshold:        -10.0,
		WindThreshold:        20.0,
		DryHumidityThreshold: 20.0,
	},
	RunAt: "@hourly",
}

func newTestRunner(t *testing.T, store Store) *Runner {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r, err := NewRunner(logger, store, runnerConfig)
	if err != nil {
		t.Fatalf("failed to create runner: %v", err)
	}
	return r
}

func dayObs(city, day string, temp float64) database.ObservationRow {
	ts, err := time.Parse(time.RFC3339, day+"T12:00:00Z")
	if err != nil {
		panic(err)
	}
	return database.ObservationRow{
		City:        city,
		Timestamp:   ts,
		Temperature: maybe.Some(temp),
		Humidity:    maybe.Some(55.0),
	}
}

func TestRunnerEndToEnd(t *testing.T) {
	store := newFakeStore()
	// Four quiet days build the baseline, the fifth is 6°C warmer.
	store.observations["London"] = []database.ObservationRow{
		dayObs("London", "2025-06-01", 20.0),
		dayObs("London", "2025-06-02", 20.0),
		dayObs("London", "2025-06-03", 20.0),
		dayObs("London", "2025-06-04", 20.0),
		dayObs("London", "2025-06-05", 26.0),
	}

	runner := newTestRunner(t, store)
	report := runner.Run(context.Background(), []types.City{{Name: "London", Country: "uk"}})

	if !report.Ok() {
		t.Fatalf("expected clean run, got failures: %+v", report.Failures)
	}
	if report.Aggregates != 5 {
		t.Errorf("expected 5 aggregates, got %d", report.Aggregates)
	}
	if report.Anomalies != 1 {
		t.Errorf("expected 1 anomaly, got %d", report.Anomalies)
	}

	anomaly, ok := store.anomalies["London|2025-06-05"]
	if !ok {
		t.Fatal("expected anomaly row for 2025-06-05")
	}
	if anomaly.Severity != SeveritySevere {
		t.Errorf("expected severity severe, got %q", anomaly.Severity)
	}
	if anomaly.Deviation != 6.0 {
		t.Errorf("expected deviation 6.0, got %f", anomaly.Deviation)
	}
	if anomaly.BaselineSamples != 4 {
		t.Errorf("expected 4 baseline samples, got %d", anomaly.BaselineSamples)
	}
}

func TestRunnerIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.observations["London"] = []database.ObservationRow{
		dayObs("London", "2025-06-01", 20.0),
		dayObs("London", "2025-06-02", 20.0),
		dayObs("London", "2025-06-03", 20.0),
		dayObs("London", "2025-06-04", 36.0),
	}

	runner := newTestRunner(t, store)
	cities := []types.City{{Name: "London", Country: "uk"}}

	runner.Run(context.Background(), cities)
	aggregates := snapshot(store.aggregates)
	anomalies := snapshot(store.anomalies)
	events := snapshot(store.events)

	runner.Run(context.Background(), cities)

	if !reflect.DeepEqual(aggregates, snapshot(store.aggregates)) {
		t.Error("aggregates changed on re-run over identical input")
	}
	if !reflect.DeepEqual(anomalies, snapshot(store.anomalies)) {
		t.Error("anomalies changed on re-run over identical input")
	}
	if !reflect.DeepEqual(events, snapshot(store.events)) {
		t.Error("events changed on re-run over identical input")
	}
}

func TestRunnerPartialSuccess(t *testing.T) {
	store := newFakeStore()
	store.observations["Badville"] = []database.ObservationRow{
		{
			City:      "Badville",
			Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Humidity:  maybe.Some(50.0),
			// no temperature at all
		},
	}
	store.observations["London"] = []database.ObservationRow{
		dayObs("London", "2025-06-01", 20.0),
	}

	runner := newTestRunner(t, store)
	report := runner.Run(context.Background(), []types.City{
		{Name: "Badville"},
		{Name: "London", Country: "uk"},
	})

	if len(report.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(report.Failures))
	}
	if report.Failures[0].City != "Badville" {
		t.Errorf("expected failure for Badville, got %q", report.Failures[0].City)
	}
	var dqErr *DataQualityError
	if !errors.As(report.Failures[0].Err, &dqErr) {
		t.Errorf("expected DataQualityError, got %T", report.Failures[0].Err)
	}

	// The healthy sibling city must still be processed in the same run.
	if _, ok := store.aggregates["London|2025-06-01"]; !ok {
		t.Error("expected aggregate for London despite Badville failure")
	}
}

func TestRunnerSkipsCityWithoutObservations(t *testing.T) {
	store := newFakeStore()
	runner := newTestRunner(t, store)

	report := runner.Run(context.Background(), []types.City{{Name: "Nowhere"}})

	if !report.Ok() {
		t.Fatalf("expected clean run, got failures: %+v", report.Failures)
	}
	if len(store.aggregates) != 0 {
		t.Errorf("expected no aggregate rows, got %d", len(store.aggregates))
	}
}

func TestRunnerStopsBetweenCitiesOnCancel(t *testing.T) {
	store := newFakeStore()
	store.observations["London"] = []database.ObservationRow{dayObs("London", "2025-06-01", 20.0)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newTestRunner(t, store)
	report := runner.Run(ctx, []types.City{{Name: "London", Country: "uk"}})

	if report.Cities != 0 {
		t.Errorf("expected no cities processed after cancel, got %d", report.Cities)
	}
	if len(store.aggregates) != 0 {
		t.Errorf("expected no writes after cancel, got %d", len(store.aggregates))
	}
}

func snapshot[T any](m map[string]T) map[string]T {
	out := make(map[string]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
