package database

import (
	"context"
	"fmt"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/convert"
	"github.com/amitesh0109/weather-data-pipeline/dates"
)

// ForecastRow is one forecasted day for a city. Each extraction refreshes
// the full 5-day horizon, superseding any prior row for the same target
// date rather than accumulating alongside it.
type ForecastRow struct {
	City        string
	TargetDate  dates.Date
	TempMin     float64
	TempMax     float64
	TempAvg     float64
	Condition   string
	RetrievedAt time.Time
}

func (d *Database) SaveForecast(ctx context.Context, rows []ForecastRow) error {
	for _, row := range rows {
		d.logger.Debug("saving forecast entry",
			"city", row.City,
			"target_date", row.TargetDate,
			"temp_min", row.TempMin,
			"temp_max", row.TempMax,
			"temp_avg", row.TempAvg)

		_, err := d.write.ExecContext(ctx, `
			INSERT INTO forecast (
				city,
				target_date,
				temp_min,
				temp_max,
				temp_avg,
				condition,
				retrieved_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(city, target_date) DO UPDATE SET
				temp_min = excluded.temp_min,
				temp_max = excluded.temp_max,
				temp_avg = excluded.temp_avg,
				condition = excluded.condition,
				retrieved_at = excluded.retrieved_at`,
			row.City,
			row.TargetDate.String(),
			convert.TwoDecimals(row.TempMin),
			convert.TwoDecimals(row.TempMax),
			convert.TwoDecimals(row.TempAvg),
			row.Condition,
			row.RetrievedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("saving forecast for %s %s: %w", row.City, row.TargetDate, err)
		}
	}

	return nil
}

func (d *Database) GetForecastFrom(ctx context.Context, from dates.Date) ([]ForecastRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT city, target_date, temp_min, temp_max, temp_avg, condition, retrieved_at
		FROM forecast
		WHERE target_date >= ?
		ORDER BY city, target_date ASC`,
		from.String())
	if err != nil {
		return nil, fmt.Errorf("fetching forecast from %s: %w", from, err)
	}

	defer rows.Close()

	var forecasts []ForecastRow
	for rows.Next() {
		var row ForecastRow
		var target, retrieved string
		err := rows.Scan(
			&row.City,
			&target,
			&row.TempMin,
			&row.TempMax,
			&row.TempAvg,
			&row.Condition,
			&retrieved)
		if err != nil {
			return nil, fmt.Errorf("scanning forecast row: %w", err)
		}
		row.TargetDate = dates.Date(target)
		if row.RetrievedAt, err = time.Parse(time.RFC3339, retrieved); err != nil {
			return nil, fmt.Errorf("parsing retrieved_at: %w", err)
		}
		forecasts = append(forecasts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading forecast rows: %w", err)
	}

	return forecasts, nil
}

func (d *Database) PurgeForecast(ctx context.Context, retentionDays int) error {
	return d.purgeByDate(ctx, "forecast", "target_date", retentionDays)
}
