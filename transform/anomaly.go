package transform

import (
	"math"

	"github.com/amitesh0109/weather-data-pipeline/config"
	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/types/maybe"
)

const (
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

// Baseline is the reference a day's observed average is compared against:
// the mean of the city's daily average temperatures over the trailing
// window, excluding the day under test. The detector never fetches
// history itself, it only judges the precomputed value.
type Baseline struct {
	Avg         float64
	SampleCount int
}

func BaselineFromAggregates(rows []database.DailyAggregateRow) Baseline {
	if len(rows) == 0 {
		return Baseline{}
	}
	var sum float64
	for _, row := range rows {
		sum += row.TempAvg
	}
	return Baseline{
		Avg:         sum / float64(len(rows)),
		SampleCount: len(rows),
	}
}

// Detect classifies the deviation of a day's observed average from the
// baseline. A baseline with fewer than the configured minimum samples
// yields None: too little history is a normal skip, not a failure.
func Detect(agg database.DailyAggregateRow, baseline Baseline, cnfg config.AppConfigAnomaly) maybe.Maybe[database.TemperatureAnomalyRow] {
	if baseline.SampleCount < cnfg.BaselineMinSamples {
		return maybe.None[database.TemperatureAnomalyRow]()
	}

	deviation := agg.TempAvg - baseline.Avg

	var severity string
	switch {
	case math.Abs(deviation) >= cnfg.SevereThreshold:
		severity = SeveritySevere
	case math.Abs(deviation) >= cnfg.ModerateThreshold:
		severity = SeverityModerate
	default:
		return maybe.None[database.TemperatureAnomalyRow]()
	}

	return maybe.Some(database.TemperatureAnomalyRow{
		City:            agg.City,
		Date:            agg.Date,
		ObservedAvg:     agg.TempAvg,
		BaselineAvg:     baseline.Avg,
		Deviation:       deviation,
		Severity:        severity,
		BaselineSamples: baseline.SampleCount,
	})
}
