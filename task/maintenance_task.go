package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/config"
	"github.com/amitesh0109/weather-data-pipeline/database"
)

// NewMaintenanceTask returns the nightly housekeeping task: purge rows
// past their retention, trim the log table, take a backup and delete
// old backup files. The steps are independent, a failed one is logged
// and the rest still run.
func NewMaintenanceTask(
	logger *slog.Logger,
	db *database.Database,
	cnfg *config.AppConfig,
) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		retention := cnfg.Database.GetDataRetentionDays()

		steps := []struct {
			name string
			run  func() error
		}{
			{"purge observations", func() error { return db.PurgeObservations(ctx, retention) }},
			{"purge forecast", func() error { return db.PurgeForecast(ctx, retention) }},
			{"purge daily aggregates", func() error { return db.PurgeDailyAggregates(ctx, retention) }},
			{"purge temperature anomalies", func() error { return db.PurgeTemperatureAnomalies(ctx, retention) }},
			{"purge extreme weather events", func() error { return db.PurgeExtremeWeatherEvents(ctx, retention) }},
			{"purge raw data files", func() error { return db.PurgeRawDataFiles(ctx, retention) }},
			{"purge log", func() error { return db.PurgeLog(ctx, cnfg.Logging.GetDbMaxEntries()) }},
			{"backup", func() error { return db.Backup(ctx) }},
			{"purge backups", func() error { return db.PurgeBackups(ctx, cnfg.Database.GetBackupRetentionDays()) }},
		}

		for _, step := range steps {
			if err := step.run(); err != nil {
				logger.Error("maintenance step failed",
					slog.String("step", step.name),
					slog.Any("error", err))
			}
		}

		logger.Info("maintenance run finished")
	}
}
