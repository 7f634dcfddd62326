package transform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/config"
	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/dates"
	"github.com/amitesh0109/weather-data-pipeline/types"
	"github.com/amitesh0109/weather-data-pipeline/types/maybe"
)

// Store is the slice of the database the transform pipeline needs.
// *database.Database satisfies it; tests use an in-memory fake.
type Store interface {
	GetObservations(ctx context.Context, city string, since maybe.Maybe[time.Time]) ([]database.ObservationRow, error)
	GetRecentAggregates(ctx context.Context, city string, before dates.Date, windowDays int) ([]database.DailyAggregateRow, error)
	SaveDailyAggregates(ctx context.Context, rows []database.DailyAggregateRow) error
	SaveTemperatureAnomaly(ctx context.Context, row database.TemperatureAnomalyRow) error
	SaveExtremeWeatherEvents(ctx context.Context, rows []database.ExtremeWeatherEventRow) error
}

type CityFailure struct {
	City string
	Err  error
}

// RunReport is the batch outcome of one transform run. Failures carry
// every per-city error; a failed city never stops its siblings.
type RunReport struct {
	Cities     int
	Aggregates int
	Anomalies  int
	Events     []database.ExtremeWeatherEventRow
	Failures   []CityFailure
}

func (r RunReport) Ok() bool {
	return len(r.Failures) == 0
}

type Runner struct {
	logger *slog.Logger
	store  Store
	cnfg   config.AppConfigTransform
	loc    *time.Location
}

// NewRunner resolves the bucketing timezone once. The config has been
// validated at startup, so a failure here is a programming error.
func NewRunner(logger *slog.Logger, store Store, cnfg config.AppConfigTransform) (*Runner, error) {
	loc, err := time.LoadLocation(cnfg.GetTimezone())
	if err != nil {
		return nil, fmt.Errorf("loading transform timezone: %w", err)
	}
	return &Runner{
		logger: logger,
		store:  store,
		cnfg:   cnfg,
		loc:    loc,
	}, nil
}

// Run recomputes derived rows for every city, one city at a time. Cities
// are independent; cancelling the context stops between cities, leaving
// the ones already processed fully written and the rest untouched.
func (r *Runner) Run(ctx context.Context, cities []types.City) RunReport {
	report := RunReport{}

	for _, city := range cities {
		if err := ctx.Err(); err != nil {
			r.logger.Info("transform run interrupted", slog.String("beforeCity", city.Name))
			break
		}

		report.Cities++
		if err := r.runCity(ctx, city.Name, &report); err != nil {
			r.logger.Warn("city transform failed",
				slog.String("city", city.Name),
				slog.Any("error", err))
			report.Failures = append(report.Failures, CityFailure{City: city.Name, Err: err})
		}
	}

	return report
}

func (r *Runner) runCity(ctx context.Context, city string, report *RunReport) error {
	observations, err := r.store.GetObservations(ctx, city, maybe.None[time.Time]())
	if err != nil {
		return fmt.Errorf("fetching observations: %w", err)
	}
	if len(observations) == 0 {
		r.logger.Debug("no observations for city, skipping", slog.String("city", city))
		return nil
	}

	// Quality errors for individual dates are returned at the end so the
	// usable dates still get their aggregates written first.
	aggregates, qualityErr := Aggregate(city, r.loc, observations)

	if len(aggregates) > 0 {
		if err := r.store.SaveDailyAggregates(ctx, aggregates); err != nil {
			return fmt.Errorf("saving daily aggregates: %w", err)
		}
		report.Aggregates += len(aggregates)
	}

	for _, agg := range aggregates {
		recent, err := r.store.GetRecentAggregates(ctx, city, agg.Date, r.cnfg.Anomaly.BaselineWindowDays)
		if err != nil {
			return fmt.Errorf("fetching baseline aggregates for %s: %w", agg.Date, err)
		}

		if anomaly := Detect(agg, BaselineFromAggregates(recent), r.cnfg.Anomaly); anomaly.IsValid() {
			if err := r.store.SaveTemperatureAnomaly(ctx, anomaly.Value()); err != nil {
				return fmt.Errorf("saving temperature anomaly for %s: %w", agg.Date, err)
			}
			report.Anomalies++
		}

		if events := Classify(agg, r.cnfg.Events); len(events) > 0 {
			if err := r.store.SaveExtremeWeatherEvents(ctx, events); err != nil {
				return fmt.Errorf("saving extreme weather events for %s: %w", agg.Date, err)
			}
			report.Events = append(report.Events, events...)
		}
	}

	return qualityErr
}
