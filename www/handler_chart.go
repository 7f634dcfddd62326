package www

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/dates"
	"github.com/amitesh0109/weather-data-pipeline/www/chartjs"
)

const chartWindowDays = 14

func NewChartHandler(logger *slog.Logger, db *database.Database, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		labels, index, from := chartWindow(dates.Today(loc))

		aggregates, err := db.GetAggregatesFrom(r.Context(), from)
		if err != nil {
			logger.Error("handling chart request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		anomalies, err := db.GetAnomaliesFrom(r.Context(), from)
		if err != nil {
			logger.Error("handling chart request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		// Chart 1: daily max temperature, one line per city
		chart1 := chartjs.NewChart("Daily Max Temperature (°C)", labels)
		maxTemps := make(map[string][]*float64)
		for _, agg := range aggregates {
			i, ok := index[agg.Date]
			if !ok {
				continue
			}
			data, ok := maxTemps[agg.City]
			if !ok {
				data = chart1.AddDataset(agg.City)
				maxTemps[agg.City] = data
			}
			data[i] = chartjs.FixedFloat64(agg.TempMax, 1)
		}
		chart1.Options.Scales["YAxis1"] = chart1.Options.Scales["YAxis1"].
			WithTitle("Temperature (°C)")

		// Chart 2: anomaly deviation from the baseline, one line per city
		chart2 := chartjs.NewChart("Temperature Deviation from Baseline (°C)", labels)
		deviations := make(map[string][]*float64)
		for _, anomaly := range anomalies {
			i, ok := index[anomaly.Date]
			if !ok {
				continue
			}
			data, ok := deviations[anomaly.City]
			if !ok {
				data = chart2.AddDataset(anomaly.City)
				deviations[anomaly.City] = data
			}
			data[i] = chartjs.FixedFloat64(anomaly.Deviation, 1)
		}
		chart2.Options.Scales["YAxis1"] = chart2.Options.Scales["YAxis1"].
			WithTitle("Deviation (°C)")

		// Chart 3: per-city temperature range on the most recent date
		chart3, err := latestDateRangeChart(r.Context(), db)
		if err != nil {
			logger.Error("handling chart request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		// Chart 4: how often each weather condition was observed per city
		counts, err := db.GetConditionCounts(r.Context(), from.Time())
		if err != nil {
			logger.Error("handling chart request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		chart4 := conditionDistributionChart(counts)

		w.Header().Set("Content-Type", "application/json")
		err = json.NewEncoder(w).Encode([]chartjs.Chart{chart1, chart2, chart3, chart4})
		if err != nil {
			logger.Error("handling chart request", slog.Any("error", err))
			http.Error(w, "unable to encode data points", http.StatusInternalServerError)
			return
		}
	}
}

// chartWindow lays out the trailing date range ending on the given day,
// which must be "today" in the transform's bucketing timezone.
func chartWindow(today dates.Date) (labels []string, index map[dates.Date]int, from dates.Date) {
	from = today.Sub(chartWindowDays - 1)
	labels = make([]string, chartWindowDays)
	index = make(map[dates.Date]int, chartWindowDays)
	for i := 0; i < chartWindowDays; i++ {
		date := from.Add(i)
		labels[i] = date.String()
		index[date] = i
	}
	return labels, index, from
}

func latestDateRangeChart(ctx context.Context, db *database.Database) (chartjs.Chart, error) {
	date, err := db.GetLatestAggregateDate(ctx)
	if err != nil {
		return chartjs.Chart{}, err
	}
	if date.IsZero() {
		return chartjs.NewChart("Temperature Range", nil), nil
	}

	aggregates, err := db.GetAggregatesForDate(ctx, date)
	if err != nil {
		return chartjs.Chart{}, err
	}

	cities := make([]string, len(aggregates))
	for i, agg := range aggregates {
		cities[i] = agg.City
	}

	chart := chartjs.NewChart(fmt.Sprintf("Temperature Range %s", date), cities)
	chart.Type = "bar"
	minData := chart.AddDataset("Min")
	avgData := chart.AddDataset("Avg")
	maxData := chart.AddDataset("Max")
	for i, agg := range aggregates {
		minData[i] = chartjs.FixedFloat64(agg.TempMin, 1)
		avgData[i] = chartjs.FixedFloat64(agg.TempAvg, 1)
		maxData[i] = chartjs.FixedFloat64(agg.TempMax, 1)
	}
	chart.Options.Scales["YAxis1"] = chart.Options.Scales["YAxis1"].
		WithTitle("Temperature (°C)")

	return chart, nil
}

// conditionDistributionChart renders observed condition counts as grouped
// bars, one city per label and one dataset per condition. The rows come
// in sorted by city then condition, so dataset order is stable.
func conditionDistributionChart(counts []database.ConditionCountRow) chartjs.Chart {
	var cities []string
	cityIndex := make(map[string]int)
	for _, row := range counts {
		if _, ok := cityIndex[row.City]; !ok {
			cityIndex[row.City] = len(cities)
			cities = append(cities, row.City)
		}
	}

	chart := chartjs.NewChart("Weather Conditions (count)", cities)
	chart.Type = "bar"

	datasets := make(map[string][]*float64)
	for _, row := range counts {
		data, ok := datasets[row.Condition]
		if !ok {
			data = chart.AddDataset(row.Condition)
			datasets[row.Condition] = data
		}
		count := float64(row.Count)
		data[cityIndex[row.City]] = &count
	}
	chart.Options.Scales["YAxis1"] = chart.Options.Scales["YAxis1"].
		WithTitle("Observations")

	return chart
}
