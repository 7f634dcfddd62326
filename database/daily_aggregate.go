package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amitesh0109/weather-data-pipeline/convert"
	"github.com/amitesh0109/weather-data-pipeline/dates"
	"github.com/amitesh0109/weather-data-pipeline/types/maybe"
)

// DailyAggregateRow is the per-(city, date) summary derived from raw
// observations. Humidity and wind averages are optional because their
// source fields are optional; temperature extrema are not, a date without
// a single usable temperature never produces a row.
type DailyAggregateRow struct {
	City        string
	Date        dates.Date
	TempMin     float64
	TempMax     float64
	TempAvg     float64
	HumidityAvg maybe.Maybe[float64]
	WindAvg     maybe.Maybe[float64]
	RainMax     maybe.Maybe[float64]
	SnowMax     maybe.Maybe[float64]
	SampleCount int
}

// SaveDailyAggregates upserts keyed by (city, date). The single-statement
// upsert is what keeps recomputation idempotent: either the prior row or
// the new row is visible, never a partial mix.
func (d *Database) SaveDailyAggregates(ctx context.Context, rows []DailyAggregateRow) error {
	for _, row := range rows {
		d.logger.Debug("saving daily aggregate",
			"city", row.City,
			"date", row.Date,
			"temp_min", row.TempMin,
			"temp_max", row.TempMax,
			"temp_avg", row.TempAvg,
			"sample_count", row.SampleCount)

		_, err := d.write.ExecContext(ctx, `
			INSERT INTO daily_aggregates (
				city,
				date,
				temp_min,
				temp_max,
				temp_avg,
				humidity_avg,
				wind_avg,
				rain_max,
				snow_max,
				sample_count
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(city, date) DO UPDATE SET
				temp_min = excluded.temp_min,
				temp_max = excluded.temp_max,
				temp_avg = excluded.temp_avg,
				humidity_avg = excluded.humidity_avg,
				wind_avg = excluded.wind_avg,
				rain_max = excluded.rain_max,
				snow_max = excluded.snow_max,
				sample_count = excluded.sample_count`,
			row.City,
			row.Date.String(),
			convert.TwoDecimals(row.TempMin),
			convert.TwoDecimals(row.TempMax),
			convert.TwoDecimals(row.TempAvg),
			nullFloat(row.HumidityAvg, 2),
			nullFloat(row.WindAvg, 2),
			nullFloat(row.RainMax, 2),
			nullFloat(row.SnowMax, 2),
			row.SampleCount)
		if err != nil {
			return fmt.Errorf("saving daily aggregate for %s %s: %w", row.City, row.Date, err)
		}
	}

	return nil
}

// GetRecentAggregates returns the aggregates for a city in the trailing
// window [before-windowDays, before), oldest first. Used for baselines;
// the day under test is deliberately excluded.
func (d *Database) GetRecentAggregates(ctx context.Context, city string, before dates.Date, windowDays int) ([]DailyAggregateRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT city, date, temp_min, temp_max, temp_avg, humidity_avg, wind_avg, rain_max, snow_max, sample_count
		FROM daily_aggregates
		WHERE city = ? AND date >= ? AND date < ?
		ORDER BY date ASC`,
		city, before.Sub(windowDays).String(), before.String())
	if err != nil {
		return nil, fmt.Errorf("fetching recent aggregates for %s: %w", city, err)
	}

	defer rows.Close()

	return scanDailyAggregates(rows)
}

func (d *Database) GetAggregatesFrom(ctx context.Context, from dates.Date) ([]DailyAggregateRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT city, date, temp_min, temp_max, temp_avg, humidity_avg, wind_avg, rain_max, snow_max, sample_count
		FROM daily_aggregates
		WHERE date >= ?
		ORDER BY city, date ASC`,
		from.String())
	if err != nil {
		return nil, fmt.Errorf("fetching aggregates from %s: %w", from, err)
	}

	defer rows.Close()

	return scanDailyAggregates(rows)
}

// GetLatestAggregateDate returns the most recent date that has any
// aggregate row, or a zero date on an empty table.
func (d *Database) GetLatestAggregateDate(ctx context.Context) (dates.Date, error) {
	var date sql.NullString
	err := d.read.QueryRowContext(ctx, `SELECT MAX(date) FROM daily_aggregates`).Scan(&date)
	if err != nil {
		return dates.Date(""), fmt.Errorf("fetching latest aggregate date: %w", err)
	}
	if !date.Valid {
		return dates.Date(""), nil
	}
	return dates.Date(date.String), nil
}

func (d *Database) GetAggregatesForDate(ctx context.Context, date dates.Date) ([]DailyAggregateRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT city, date, temp_min, temp_max, temp_avg, humidity_avg, wind_avg, rain_max, snow_max, sample_count
		FROM daily_aggregates
		WHERE date = ?
		ORDER BY city ASC`,
		date.String())
	if err != nil {
		return nil, fmt.Errorf("fetching aggregates for %s: %w", date, err)
	}

	defer rows.Close()

	return scanDailyAggregates(rows)
}

func (d *Database) PurgeDailyAggregates(ctx context.Context, retentionDays int) error {
	return d.purgeByDate(ctx, "daily_aggregates", "date", retentionDays)
}

func scanDailyAggregates(rows *sql.Rows) ([]DailyAggregateRow, error) {
	var aggregates []DailyAggregateRow
	for rows.Next() {
		var row DailyAggregateRow
		var date string
		var humidity, wind, rain, snow sql.NullFloat64
		err := rows.Scan(
			&row.City,
			&date,
			&row.TempMin,
			&row.TempMax,
			&row.TempAvg,
			&humidity,
			&wind,
			&rain,
			&snow,
			&row.SampleCount)
		if err != nil {
			return nil, fmt.Errorf("scanning daily aggregate row: %w", err)
		}
		row.Date = dates.Date(date)
		row.HumidityAvg = maybe.SqlNull(humidity.Float64, humidity.Valid)
		row.WindAvg = maybe.SqlNull(wind.Float64, wind.Valid)
		row.RainMax = maybe.SqlNull(rain.Float64, rain.Valid)
		row.SnowMax = maybe.SqlNull(snow.Float64, snow.Valid)
		aggregates = append(aggregates, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading daily aggregate rows: %w", err)
	}

	return aggregates, nil
}
