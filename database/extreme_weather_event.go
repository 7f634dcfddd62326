package database

import (
	"context"
	"fmt"

	"github.com/amitesh0109/weather-data-pipeline/convert"
	"github.com/amitesh0109/weather-data-pipeline/dates"
)

// ExtremeWeatherEventRow records one threshold crossing for a (city, date).
// The threshold that was in force is stored with the event so old rows stay
// auditable after a configuration change.
type ExtremeWeatherEventRow struct {
	City          string
	Date          dates.Date
	EventType     string
	MetricValue   float64
	ThresholdUsed float64
	Description   string
}

func (d *Database) SaveExtremeWeatherEvents(ctx context.Context, rows []ExtremeWeatherEventRow) error {
	for _, row := range rows {
		d.logger.Debug("saving extreme weather event",
			"city", row.City,
			"date", row.Date,
			"event_type", row.EventType,
			"metric_value", row.MetricValue)

		_, err := d.write.ExecContext(ctx, `
			INSERT INTO extreme_weather_events (
				city,
				date,
				event_type,
				metric_value,
				threshold_used,
				description
			) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(city, date, event_type) DO UPDATE SET
				metric_value = excluded.metric_value,
				threshold_used = excluded.threshold_used,
				description = excluded.description`,
			row.City,
			row.Date.String(),
			row.EventType,
			convert.TwoDecimals(row.MetricValue),
			convert.TwoDecimals(row.ThresholdUsed),
			row.Description)
		if err != nil {
			return fmt.Errorf("saving extreme weather event for %s %s: %w", row.City, row.Date, err)
		}
	}

	return nil
}

func (d *Database) GetEventsFrom(ctx context.Context, from dates.Date) ([]ExtremeWeatherEventRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT city, date, event_type, metric_value, threshold_used, description
		FROM extreme_weather_events
		WHERE date >= ?
		ORDER BY city, date, event_type ASC`,
		from.String())
	if err != nil {
		return nil, fmt.Errorf("fetching extreme weather events from %s: %w", from, err)
	}

	defer rows.Close()

	var events []ExtremeWeatherEventRow
	for rows.Next() {
		var row ExtremeWeatherEventRow
		var date string
		err := rows.Scan(
			&row.City,
			&date,
			&row.EventType,
			&row.MetricValue,
			&row.ThresholdUsed,
			&row.Description)
		if err != nil {
			return nil, fmt.Errorf("scanning extreme weather event row: %w", err)
		}
		row.Date = dates.Date(date)
		events = append(events, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading extreme weather event rows: %w", err)
	}

	return events, nil
}

func (d *Database) PurgeExtremeWeatherEvents(ctx context.Context, retentionDays int) error {
	return d.purgeByDate(ctx, "extreme_weather_events", "date", retentionDays)
}
