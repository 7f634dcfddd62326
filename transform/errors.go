package transform

import (
	"fmt"

	"github.com/amitesh0109/weather-data-pipeline/dates"
)

// DataQualityError means a (city, date) had observations but not a single
// usable temperature among them. It is reported and skipped; it never
// blocks other dates or cities, and it never produces a NaN-backed row.
type DataQualityError struct {
	City string
	Date dates.Date
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("no usable temperature observations for %s on %s", e.City, e.Date)
}
