package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/alert"
	"github.com/amitesh0109/weather-data-pipeline/config"
	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/transform"
)

// NewTransformTask returns the task that recomputes daily aggregates,
// temperature anomalies and extreme weather events from the stored
// observations, and publishes any events as alerts.
func NewTransformTask(
	logger *slog.Logger,
	db *database.Database,
	alerts *alert.Publisher,
	cnfg *config.AppConfig,
) func() {
	runner, err := transform.NewRunner(logger, db, cnfg.Transform)
	if err != nil {
		// The timezone was validated at startup, this cannot happen.
		panic(err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		report := runner.Run(ctx, cnfg.CityList())

		for _, failure := range report.Failures {
			logger.Warn("transform failed for city",
				slog.String("city", failure.City),
				slog.Any("error", failure.Err))
		}

		logger.Info("transform run finished",
			slog.Int("cities", report.Cities),
			slog.Int("aggregates", report.Aggregates),
			slog.Int("anomalies", report.Anomalies),
			slog.Int("events", len(report.Events)),
			slog.Int("failures", len(report.Failures)))

		if alerts != nil && len(report.Events) > 0 {
			published := alerts.PublishEvents(report.Events)
			logger.Info("extreme weather alerts published",
				slog.Int("published", published),
				slog.Int("events", len(report.Events)))
		}
	}
}
