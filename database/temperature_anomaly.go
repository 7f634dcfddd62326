package database

import (
	"context"
	"fmt"

	"github.com/amitesh0109/weather-data-pipeline/convert"
	"github.com/amitesh0109/weather-data-pipeline/dates"
)

type TemperatureAnomalyRow struct {
	City            string
	Date            dates.Date
	ObservedAvg     float64
	BaselineAvg     float64
	Deviation       float64
	Severity        string
	BaselineSamples int
}

func (d *Database) SaveTemperatureAnomaly(ctx context.Context, row TemperatureAnomalyRow) error {
	d.logger.Debug("saving temperature anomaly",
		"city", row.City,
		"date", row.Date,
		"deviation", row.Deviation,
		"severity", row.Severity)

	_, err := d.write.ExecContext(ctx, `
		INSERT INTO temperature_anomalies (
			city,
			date,
			observed_avg,
			baseline_avg,
			deviation,
			severity,
			baseline_samples
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(city, date) DO UPDATE SET
			observed_avg = excluded.observed_avg,
			baseline_avg = excluded.baseline_avg,
			deviation = excluded.deviation,
			severity = excluded.severity,
			baseline_samples = excluded.baseline_samples`,
		row.City,
		row.Date.String(),
		convert.TwoDecimals(row.ObservedAvg),
		convert.TwoDecimals(row.BaselineAvg),
		convert.TwoDecimals(row.Deviation),
		row.Severity,
		row.BaselineSamples)
	if err != nil {
		return fmt.Errorf("saving temperature anomaly for %s %s: %w", row.City, row.Date, err)
	}

	return nil
}

func (d *Database) GetAnomaliesFrom(ctx context.Context, from dates.Date) ([]TemperatureAnomalyRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT city, date, observed_avg, baseline_avg, deviation, severity, baseline_samples
		FROM temperature_anomalies
		WHERE date >= ?
		ORDER BY city, date ASC`,
		from.String())
	if err != nil {
		return nil, fmt.Errorf("fetching anomalies from %s: %w", from, err)
	}

	defer rows.Close()

	var anomalies []TemperatureAnomalyRow
	for rows.Next() {
		var row TemperatureAnomalyRow
		var date string
		err := rows.Scan(
			&row.City,
			&date,
			&row.ObservedAvg,
			&row.BaselineAvg,
			&row.Deviation,
			&row.Severity,
			&row.BaselineSamples)
		if err != nil {
			return nil, fmt.Errorf("scanning temperature anomaly row: %w", err)
		}
		row.Date = dates.Date(date)
		anomalies = append(anomalies, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading temperature anomaly rows: %w", err)
	}

	return anomalies, nil
}

func (d *Database) PurgeTemperatureAnomalies(ctx context.Context, retentionDays int) error {
	return d.purgeByDate(ctx, "temperature_anomalies", "date", retentionDays)
}
