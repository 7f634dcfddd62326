package transform

import (
	"fmt"

	"github.com/amitesh0109/weather-data-pipeline/config"
	"github.com/amitesh0109/weather-data-pipeline/database"
)

const (
	EventTypeHeat        = "heat"
	EventTypeCold        = "cold"
	EventTypeHighWind    = "high_wind"
	EventTypeLowHumidity = "low_humidity"
	EventTypeHeavyRain   = "heavy_rain"
	EventTypeHeavySnow   = "heavy_snow"
)

// Classify checks a day's aggregate against the configured cutoffs. The
// rules are independent predicates, a single day can trigger several
// event types. Rules over optional metrics simply don't fire when the
// metric is absent.
func Classify(agg database.DailyAggregateRow, thresholds config.AppConfigEvents) []database.ExtremeWeatherEventRow {
	var events []database.ExtremeWeatherEventRow

	if agg.TempMax >= thresholds.HeatThreshold {
		events = append(events, database.ExtremeWeatherEventRow{
			City:          agg.City,
			Date:          agg.Date,
			EventType:     EventTypeHeat,
			MetricValue:   agg.TempMax,
			ThresholdUsed: thresholds.HeatThreshold,
			Description:   fmt.Sprintf("Extreme heat: %.1f°C", agg.TempMax),
		})
	}

	if agg.TempMin <= thresholds.ColdThreshold {
		events = append(events, database.ExtremeWeatherEventRow{
			City:          agg.City,
			Date:          agg.Date,
			EventType:     EventTypeCold,
			MetricValue:   agg.TempMin,
			ThresholdUsed: thresholds.ColdThreshold,
			Description:   fmt.Sprintf("Extreme cold: %.1f°C", agg.TempMin),
		})
	}

	if agg.WindAvg.IsValid() && agg.WindAvg.Value() >= thresholds.WindThreshold {
		events = append(events, database.ExtremeWeatherEventRow{
			City:          agg.City,
			Date:          agg.Date,
			EventType:     EventTypeHighWind,
			MetricValue:   agg.WindAvg.Value(),
			ThresholdUsed: thresholds.WindThreshold,
			Description:   fmt.Sprintf("Strong winds: %.1f m/s", agg.WindAvg.Value()),
		})
	}

	if agg.RainMax.IsValid() && agg.RainMax.Value() > thresholds.RainThreshold {
		events = append(events, database.ExtremeWeatherEventRow{
			City:          agg.City,
			Date:          agg.Date,
			EventType:     EventTypeHeavyRain,
			MetricValue:   agg.RainMax.Value(),
			ThresholdUsed: thresholds.RainThreshold,
			Description:   fmt.Sprintf("Heavy rain: %.1f mm", agg.RainMax.Value()),
		})
	}

	if agg.SnowMax.IsValid() && agg.SnowMax.Value() > thresholds.SnowThreshold {
		events = append(events, database.ExtremeWeatherEventRow{
			City:          agg.City,
			Date:          agg.Date,
			EventType:     EventTypeHeavySnow,
			MetricValue:   agg.SnowMax.Value(),
			ThresholdUsed: thresholds.SnowThreshold,
			Description:   fmt.Sprintf("Heavy snow: %.1f mm", agg.SnowMax.Value()),
		})
	}

	if agg.HumidityAvg.IsValid() && agg.HumidityAvg.Value() <= thresholds.DryHumidityThreshold {
		events = append(events, database.ExtremeWeatherEventRow{
			City:          agg.City,
			Date:          agg.Date,
			EventType:     EventTypeLowHumidity,
			MetricValue:   agg.HumidityAvg.Value(),
			ThresholdUsed: thresholds.DryHumidityThreshold,
			Description:   fmt.Sprintf("Very dry air: %.1f%% humidity", agg.HumidityAvg.Value()),
		})
	}

	return events
}
