package task

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/amitesh0109/weather-data-pipeline/alert"
	"github.com/amitesh0109/weather-data-pipeline/config"
	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/types"
)

type Tasks struct {
	cron            *cron.Cron
	cnfg            *config.AppConfig
	ExtractTask     func()
	TransformTask   func()
	MaintenanceTask func()
}

func NewTasks(
	db *database.Database,
	provider types.WeatherProvider,
	alerts *alert.Publisher,
	cnfg *config.AppConfig,
) *Tasks {
	logger := slog.Default().With("module", "tasks")
	return &Tasks{
		cron:            cron.New(),
		cnfg:            cnfg,
		ExtractTask:     NewExtractTask(logger.With(slog.String("task", "extract")), db, provider, cnfg),
		TransformTask:   NewTransformTask(logger.With(slog.String("task", "transform")), db, alerts, cnfg),
		MaintenanceTask: NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, cnfg),
	}
}

func (t *Tasks) Run() {
	_, err := t.cron.AddFunc(t.cnfg.Extract.RunAt, t.ExtractTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc(t.cnfg.Transform.RunAt, t.TransformTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc(t.cnfg.GetMaintenanceRunAt(), t.MaintenanceTask)
	if err != nil {
		panic(err)
	}
	t.cron.Start()
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
