package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/convert"
	"github.com/amitesh0109/weather-data-pipeline/types/maybe"
)

// ObservationRow is one raw current-weather reading. Rows are append-only:
// a second extraction for the same (city, timestamp) is silently ignored,
// which is what makes re-runs of the extract task harmless.
type ObservationRow struct {
	City        string
	Country     string
	Timestamp   time.Time
	Temperature maybe.Maybe[float64]
	Humidity    maybe.Maybe[float64]
	WindSpeed   maybe.Maybe[float64]
	Pressure    maybe.Maybe[float64]
	Rain        maybe.Maybe[float64]
	Snow        maybe.Maybe[float64]
	Condition   string
	RawRef      string
	RetrievedAt time.Time
}

func (d *Database) SaveObservation(ctx context.Context, row ObservationRow) error {
	d.logger.Debug("saving observation",
		"city", row.City,
		"timestamp", row.Timestamp,
		"temperature", row.Temperature.ValueOrDefault(0),
		"condition", row.Condition)

	_, err := d.write.ExecContext(ctx, `
		INSERT INTO current_weather (
			city,
			country,
			timestamp,
			temperature,
			humidity,
			wind_speed,
			pressure,
			rain,
			snow,
			condition,
			raw_ref,
			retrieved_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(city, timestamp) DO NOTHING`,
		row.City,
		row.Country,
		row.Timestamp.UTC().Format(time.RFC3339),
		nullFloat(row.Temperature, 2),
		nullFloat(row.Humidity, 2),
		nullFloat(row.WindSpeed, 2),
		nullFloat(row.Pressure, 2),
		nullFloat(row.Rain, 2),
		nullFloat(row.Snow, 2),
		row.Condition,
		row.RawRef,
		row.RetrievedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving observation for %s: %w", row.City, err)
	}

	return nil
}

func (d *Database) GetObservations(ctx context.Context, city string, since maybe.Maybe[time.Time]) ([]ObservationRow, error) {
	query := `
		SELECT city, country, timestamp, temperature, humidity, wind_speed, pressure, rain, snow, condition, raw_ref, retrieved_at
		FROM current_weather
		WHERE city = ?`
	args := []any{city}
	if since.IsValid() {
		query += ` AND timestamp >= ?`
		args = append(args, since.Value().UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY timestamp ASC`

	rows, err := d.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching observations for %s: %w", city, err)
	}

	defer rows.Close()

	var observations []ObservationRow
	for rows.Next() {
		row, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning observation row: %w", err)
		}
		observations = append(observations, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading observation rows: %w", err)
	}

	return observations, nil
}

// GetLatestObservations returns the most recent reading per city.
func (d *Database) GetLatestObservations(ctx context.Context) ([]ObservationRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT city, country, timestamp, temperature, humidity, wind_speed, pressure, rain, snow, condition, raw_ref, retrieved_at
		FROM current_weather
		GROUP BY city
		HAVING timestamp = MAX(timestamp)
		ORDER BY city ASC`)
	if err != nil {
		return nil, fmt.Errorf("fetching latest observations: %w", err)
	}

	defer rows.Close()

	var observations []ObservationRow
	for rows.Next() {
		row, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning observation row: %w", err)
		}
		observations = append(observations, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading observation rows: %w", err)
	}

	return observations, nil
}

func (d *Database) PurgeObservations(ctx context.Context, retentionDays int) error {
	return d.purgeByDate(ctx, "current_weather", "timestamp", retentionDays)
}

// ConditionCountRow is how often a reported condition was observed for a city.
type ConditionCountRow struct {
	City      string
	Condition string
	Count     int
}

func (d *Database) GetConditionCounts(ctx context.Context, since time.Time) ([]ConditionCountRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT city, condition, COUNT(*)
		FROM current_weather
		WHERE timestamp >= ? AND condition != ''
		GROUP BY city, condition
		ORDER BY city, condition ASC`,
		since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("fetching condition counts: %w", err)
	}

	defer rows.Close()

	var counts []ConditionCountRow
	for rows.Next() {
		var row ConditionCountRow
		if err := rows.Scan(&row.City, &row.Condition, &row.Count); err != nil {
			return nil, fmt.Errorf("scanning condition count row: %w", err)
		}
		counts = append(counts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading condition count rows: %w", err)
	}

	return counts, nil
}

func scanObservation(rows *sql.Rows) (ObservationRow, error) {
	var row ObservationRow
	var ts, retrieved string
	var temperature, humidity, windSpeed, pressure, rain, snow sql.NullFloat64

	err := rows.Scan(
		&row.City,
		&row.Country,
		&ts,
		&temperature,
		&humidity,
		&windSpeed,
		&pressure,
		&rain,
		&snow,
		&row.Condition,
		&row.RawRef,
		&retrieved)
	if err != nil {
		return ObservationRow{}, err
	}

	row.Temperature = maybe.SqlNull(temperature.Float64, temperature.Valid)
	row.Humidity = maybe.SqlNull(humidity.Float64, humidity.Valid)
	row.WindSpeed = maybe.SqlNull(windSpeed.Float64, windSpeed.Valid)
	row.Pressure = maybe.SqlNull(pressure.Float64, pressure.Valid)
	row.Rain = maybe.SqlNull(rain.Float64, rain.Valid)
	row.Snow = maybe.SqlNull(snow.Float64, snow.Valid)

	if row.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
		return ObservationRow{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	if row.RetrievedAt, err = time.Parse(time.RFC3339, retrieved); err != nil {
		return ObservationRow{}, fmt.Errorf("parsing retrieved_at: %w", err)
	}

	return row, nil
}

func nullFloat(m maybe.Maybe[float64], decimals int) sql.NullFloat64 {
	return sql.NullFloat64{
		Float64: convert.RoundFloat64(m.ValueOrDefault(0), decimals),
		Valid:   m.IsValid(),
	}
}
