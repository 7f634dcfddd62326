package www

import (
	"testing"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/dates"
)

func TestChartWindowEndsOnLocalToday(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}

	// Late evening UTC is already the next calendar day in Tokyo. The
	// window must end on the Tokyo-local date, matching how the
	// aggregates are bucketed.
	instant := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	labels, index, from := chartWindow(dates.FromTime(instant, tokyo))

	if len(labels) != chartWindowDays {
		t.Fatalf("expected %d labels, got %d", chartWindowDays, len(labels))
	}
	if got := labels[len(labels)-1]; got != "2025-06-02" {
		t.Errorf("expected window to end on 2025-06-02, got %s", got)
	}
	if from != dates.Date("2025-05-20") {
		t.Errorf("expected window to start on 2025-05-20, got %s", from)
	}
	if i, ok := index[dates.Date("2025-06-02")]; !ok || i != chartWindowDays-1 {
		t.Errorf("expected 2025-06-02 at index %d, got %d (ok=%v)", chartWindowDays-1, i, ok)
	}
}

func TestConditionDistributionChart(t *testing.T) {
	counts := []database.ConditionCountRow{
		{City: "London", Condition: "Clouds", Count: 12},
		{City: "London", Condition: "Rain", Count: 5},
		{City: "Tokyo", Condition: "Clear", Count: 9},
		{City: "Tokyo", Condition: "Rain", Count: 2},
	}

	chart := conditionDistributionChart(counts)

	if chart.Type != "bar" {
		t.Errorf("expected bar chart, got %q", chart.Type)
	}
	wantLabels := []string{"London", "Tokyo"}
	if len(chart.Data.Labels) != 2 || chart.Data.Labels[0] != wantLabels[0] || chart.Data.Labels[1] != wantLabels[1] {
		t.Errorf("expected labels %v, got %v", wantLabels, chart.Data.Labels)
	}
	if len(chart.Data.Datasets) != 3 {
		t.Fatalf("expected one dataset per condition, got %d", len(chart.Data.Datasets))
	}

	byLabel := make(map[string][]*float64)
	for _, ds := range chart.Data.Datasets {
		byLabel[ds.Label] = ds.Data
	}

	rain, ok := byLabel["Rain"]
	if !ok {
		t.Fatal("expected a Rain dataset")
	}
	if rain[0] == nil || *rain[0] != 5 {
		t.Errorf("expected London rain count 5, got %v", rain[0])
	}
	if rain[1] == nil || *rain[1] != 2 {
		t.Errorf("expected Tokyo rain count 2, got %v", rain[1])
	}

	// Clear was never observed in London, the bar must stay empty.
	clearSky := byLabel["Clear"]
	if clearSky[0] != nil {
		t.Errorf("expected no Clear bar for London, got %v", *clearSky[0])
	}
	if clearSky[1] == nil || *clearSky[1] != 9 {
		t.Errorf("expected Tokyo clear count 9, got %v", clearSky[1])
	}
}

func TestConditionDistributionChartEmpty(t *testing.T) {
	chart := conditionDistributionChart(nil)
	if len(chart.Data.Labels) != 0 || len(chart.Data.Datasets) != 0 {
		t.Errorf("expected an empty chart, got %+v", chart.Data)
	}
}
