package task

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/config"
	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/dates"
	"github.com/amitesh0109/weather-data-pipeline/slice"
	"github.com/amitesh0109/weather-data-pipeline/types"
)

// NewExtractTask returns the task that pulls current weather and the
// 5-day forecast for every configured city. A city that fails is logged
// and skipped so the remaining cities still get their data.
func NewExtractTask(
	logger *slog.Logger,
	db *database.Database,
	provider types.WeatherProvider,
	cnfg *config.AppConfig,
) func() {
	loc, err := time.LoadLocation(cnfg.Transform.GetTimezone())
	if err != nil {
		loc = time.UTC
	}
	rawDir := cnfg.Extract.GetRawDataDir()

	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		for _, city := range cnfg.CityList() {
			if ctx.Err() != nil {
				logger.Warn("extract run cancelled", slog.Any("error", ctx.Err()))
				return
			}
			extractCurrent(ctx, logger, db, provider, city, rawDir)
			extractForecast(ctx, logger, db, provider, city, rawDir, loc)
		}
	}

	// Fetch right away after a fresh install or a long downtime instead
	// of waiting for the first scheduled run.
	latest, err := db.GetLatestObservations(context.Background())
	if err != nil {
		logger.Error("unable to check for existing observations", slog.Any("error", err))
	} else if observationsStale(latest) {
		logger.Info("no recent observations found, fetching immediately")
		go task()
	}

	return task
}

func observationsStale(latest []database.ObservationRow) bool {
	var newest time.Time
	for _, o := range latest {
		if o.Timestamp.After(newest) {
			newest = o.Timestamp
		}
	}
	return time.Since(newest) > time.Hour
}

func extractCurrent(
	ctx context.Context,
	logger *slog.Logger,
	db *database.Database,
	provider types.WeatherProvider,
	city types.City,
	rawDir string,
) {
	obs, err := provider.CurrentWeather(ctx, city)
	if err != nil {
		logger.Error("unable to fetch current weather",
			slog.String("city", city.Name),
			slog.Any("error", err))
		return
	}

	rawRef := archiveRaw(ctx, logger, db, rawDir, "current", city, obs.Raw, obs.RetrievedAt)

	err = db.SaveObservation(ctx, database.ObservationRow{
		City:        city.Name,
		Country:     city.Country,
		Timestamp:   obs.Timestamp,
		Temperature: obs.Temperature,
		Humidity:    obs.Humidity,
		WindSpeed:   obs.WindSpeed,
		Pressure:    obs.Pressure,
		Rain:        obs.Rain,
		Snow:        obs.Snow,
		Condition:   obs.Condition,
		RawRef:      rawRef,
		RetrievedAt: obs.RetrievedAt,
	})
	if err != nil {
		logger.Error("unable to save observation",
			slog.String("city", city.Name),
			slog.Any("error", err))
		return
	}

	logger.Info("current weather saved",
		slog.String("city", city.Name),
		slog.Float64("temperature", obs.Temperature.ValueOrDefault(0)),
		slog.String("condition", obs.Condition))
}

func extractForecast(
	ctx context.Context,
	logger *slog.Logger,
	db *database.Database,
	provider types.WeatherProvider,
	city types.City,
	rawDir string,
	loc *time.Location,
) {
	points, raw, err := provider.Forecast(ctx, city)
	if err != nil {
		logger.Error("unable to fetch forecast",
			slog.String("city", city.Name),
			slog.Any("error", err))
		return
	}

	retrievedAt := time.Now().UTC()
	archiveRaw(ctx, logger, db, rawDir, "forecast", city, raw, retrievedAt)

	rows := collapseForecast(city, loc, points, retrievedAt)
	if err := db.SaveForecast(ctx, rows); err != nil {
		logger.Error("unable to save forecast",
			slog.String("city", city.Name),
			slog.Any("error", err))
		return
	}

	logger.Info("forecast saved",
		slog.String("city", city.Name),
		slog.Int("days", len(rows)))
}

// archiveRaw writes the provider payload to disk and records it in the
// manifest. Archiving is best effort: a failure is logged and the empty
// reference is returned, the reading itself is still stored.
func archiveRaw(
	ctx context.Context,
	logger *slog.Logger,
	db *database.Database,
	rawDir string,
	dataType string,
	city types.City,
	payload []byte,
	ts time.Time,
) string {
	if len(payload) == 0 {
		return ""
	}

	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		logger.Warn("unable to create raw data directory", slog.Any("error", err))
		return ""
	}

	name := fmt.Sprintf("%s_%s_%s.json", dataType, city.Slug(), ts.UTC().Format("20060102T150405Z"))
	path := filepath.Join(rawDir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		logger.Warn("unable to archive raw payload",
			slog.String("path", path),
			slog.Any("error", err))
		return ""
	}

	err := db.SaveRawDataFile(ctx, database.RawDataFileRow{
		FilePath:  path,
		DataType:  dataType,
		City:      city.Name,
		Timestamp: ts,
	})
	if err != nil {
		logger.Warn("unable to record raw data file", slog.Any("error", err))
	}

	return path
}

// collapseForecast folds 3-hourly forecast slots into one row per
// calendar date in the given timezone. The condition of a day is the
// one that appears in most of its slots.
func collapseForecast(
	city types.City,
	loc *time.Location,
	points []types.ForecastPoint,
	retrievedAt time.Time,
) []database.ForecastRow {
	grouped := slice.GroupBy(points, func(p types.ForecastPoint) dates.Date {
		return dates.FromTime(p.Time, loc)
	})

	days := make([]dates.Date, 0, len(grouped))
	for date := range grouped {
		days = append(days, date)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Compare(days[j]) < 0 })

	rows := make([]database.ForecastRow, 0, len(days))
	for _, date := range days {
		slots := grouped[date]

		min, max, sum := slots[0].Temperature, slots[0].Temperature, 0.0
		counts := make(map[string]int)
		for _, p := range slots {
			if p.Temperature < min {
				min = p.Temperature
			}
			if p.Temperature > max {
				max = p.Temperature
			}
			sum += p.Temperature
			counts[p.Condition]++
		}

		condition, best := "", 0
		for _, p := range slots {
			if counts[p.Condition] > best {
				condition, best = p.Condition, counts[p.Condition]
			}
		}

		rows = append(rows, database.ForecastRow{
			City:        city.Name,
			TargetDate:  date,
			TempMin:     min,
			TempMax:     max,
			TempAvg:     sum / float64(len(slots)),
			Condition:   condition,
			RetrievedAt: retrievedAt,
		})
	}

	return rows
}
