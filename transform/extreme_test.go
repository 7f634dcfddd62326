package transform

import (
	"testing"

	"github.com/amitesh0109/weather-data-pipeline/config"
	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/dates"
	"github.com/amitesh0109/weather-data-pipeline/types/maybe"
)

var eventThresholds = config.AppConfigEvents{
	HeatThreshold:        35.0,
	ColdThreshold:        -10.0,
	WindThreshold:        20.0,
	DryHumidityThreshold: 20.0,
	RainThreshold:        10.0,
	SnowThreshold:        10.0,
}

func TestClassifyHeat(t *testing.T) {
	agg := database.DailyAggregateRow{
		City:        "Sydney",
		Date:        dates.Date("2025-01-10"),
		TempMin:     24.0,
		TempMax:     36.2,
		TempAvg:     30.0,
		HumidityAvg: maybe.Some(45.0),
		SampleCount: 8,
	}

	events := Classify(agg, eventThresholds)
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].EventType != EventTypeHeat {
		t.Errorf("expected event type heat, got %q", events[0].EventType)
	}
	if events[0].ThresholdUsed != 35.0 {
		t.Errorf("expected threshold_used 35.0, got %f", events[0].ThresholdUsed)
	}
	if events[0].MetricValue != 36.2 {
		t.Errorf("expected metric_value 36.2, got %f", events[0].MetricValue)
	}
}

func TestClassifyBelowHeatThreshold(t *testing.T) {
	agg := database.DailyAggregateRow{
		City:        "Sydney",
		Date:        dates.Date("2025-01-10"),
		TempMin:     24.0,
		TempMax:     34.9,
		TempAvg:     29.0,
		HumidityAvg: maybe.Some(45.0),
		SampleCount: 8,
	}

	if events := Classify(agg, eventThresholds); len(events) != 0 {
		t.Errorf("expected no events, got %+v", events)
	}
}

func TestClassifyMultipleEventsSameDay(t *testing.T) {
	agg := database.DailyAggregateRow{
		City:        "Phoenix",
		Date:        dates.Date("2025-07-04"),
		TempMin:     30.0,
		TempMax:     43.0,
		TempAvg:     37.0,
		HumidityAvg: maybe.Some(12.0),
		WindAvg:     maybe.Some(22.0),
		SampleCount: 8,
	}

	events := Classify(agg, eventThresholds)
	if len(events) != 3 {
		t.Fatalf("expected 3 events (heat, high_wind, low_humidity), got %d", len(events))
	}

	found := map[string]bool{}
	for _, e := range events {
		found[e.EventType] = true
	}
	for _, expected := range []string{EventTypeHeat, EventTypeHighWind, EventTypeLowHumidity} {
		if !found[expected] {
			t.Errorf("expected event type %q to fire", expected)
		}
	}
}

func TestClassifyCold(t *testing.T) {
	agg := database.DailyAggregateRow{
		City:        "Oslo",
		Date:        dates.Date("2025-01-20"),
		TempMin:     -14.5,
		TempMax:     -5.0,
		TempAvg:     -9.0,
		SampleCount: 8,
	}

	events := Classify(agg, eventThresholds)
	if len(events) != 1 || events[0].EventType != EventTypeCold {
		t.Fatalf("expected one cold event, got %+v", events)
	}
	if events[0].MetricValue != -14.5 {
		t.Errorf("expected metric_value -14.5, got %f", events[0].MetricValue)
	}
}

func TestClassifyHeavyRain(t *testing.T) {
	agg := database.DailyAggregateRow{
		City:        "Mumbai",
		Date:        dates.Date("2025-07-15"),
		TempMin:     26.0,
		TempMax:     31.0,
		TempAvg:     28.0,
		RainMax:     maybe.Some(24.3),
		SampleCount: 8,
	}

	events := Classify(agg, eventThresholds)
	if len(events) != 1 || events[0].EventType != EventTypeHeavyRain {
		t.Fatalf("expected one heavy_rain event, got %+v", events)
	}
	if events[0].MetricValue != 24.3 {
		t.Errorf("expected metric_value 24.3, got %f", events[0].MetricValue)
	}
	if events[0].Description != "Heavy rain: 24.3 mm" {
		t.Errorf("unexpected description %q", events[0].Description)
	}
}

func TestClassifyRainAtThresholdDoesNotFire(t *testing.T) {
	// The rain rule is strict: exactly the cutoff is not an event.
	agg := database.DailyAggregateRow{
		City:        "Mumbai",
		Date:        dates.Date("2025-07-16"),
		TempMin:     26.0,
		TempMax:     31.0,
		TempAvg:     28.0,
		RainMax:     maybe.Some(10.0),
		SampleCount: 8,
	}

	if events := Classify(agg, eventThresholds); len(events) != 0 {
		t.Errorf("expected no events at the rain cutoff, got %+v", events)
	}
}

func TestClassifyHeavySnow(t *testing.T) {
	agg := database.DailyAggregateRow{
		City:        "Oslo",
		Date:        dates.Date("2025-02-03"),
		TempMin:     -6.0,
		TempMax:     -1.0,
		TempAvg:     -3.0,
		SnowMax:     maybe.Some(15.5),
		SampleCount: 8,
	}

	events := Classify(agg, eventThresholds)
	if len(events) != 1 || events[0].EventType != EventTypeHeavySnow {
		t.Fatalf("expected one heavy_snow event, got %+v", events)
	}
	if events[0].ThresholdUsed != 10.0 {
		t.Errorf("expected threshold_used 10.0, got %f", events[0].ThresholdUsed)
	}
}

func TestClassifySkipsAbsentMetrics(t *testing.T) {
	// No humidity and no wind recorded: those rules must not fire even
	// though zero values would be below the dry cutoff.
	agg := database.DailyAggregateRow{
		City:        "London",
		Date:        dates.Date("2025-06-01"),
		TempMin:     10.0,
		TempMax:     20.0,
		TempAvg:     15.0,
		SampleCount: 4,
	}

	if events := Classify(agg, eventThresholds); len(events) != 0 {
		t.Errorf("expected no events for absent metrics, got %+v", events)
	}
}
