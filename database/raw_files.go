package database

import (
	"context"
	"fmt"
	"time"
)

// RawDataFileRow is a manifest entry for an archived provider payload.
type RawDataFileRow struct {
	FilePath  string
	DataType  string // "current" or "forecast"
	City      string
	Timestamp time.Time
}

func (d *Database) SaveRawDataFile(ctx context.Context, row RawDataFileRow) error {
	_, err := d.write.ExecContext(ctx, `
		INSERT INTO raw_data_files (file_path, data_type, city, timestamp)
		VALUES (?, ?, ?, ?)`,
		row.FilePath,
		row.DataType,
		row.City,
		row.Timestamp.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving raw data file entry: %w", err)
	}

	return nil
}

func (d *Database) PurgeRawDataFiles(ctx context.Context, retentionDays int) error {
	return d.purgeByDate(ctx, "raw_data_files", "timestamp", retentionDays)
}
