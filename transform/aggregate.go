package transform

import (
	"errors"
	"slices"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/dates"
	"github.com/amitesh0109/weather-data-pipeline/slice"
	"github.com/amitesh0109/weather-data-pipeline/types/maybe"
)

// metricStats accumulates one metric independently of the others. Each
// metric carries its own count so a missing humidity reading never skews
// the humidity average through a wrong denominator.
type metricStats struct {
	min   float64
	max   float64
	sum   float64
	count int
}

func (m *metricStats) add(v float64) {
	if m.count == 0 || v < m.min {
		m.min = v
	}
	if m.count == 0 || v > m.max {
		m.max = v
	}
	m.sum += v
	m.count++
}

func (m *metricStats) avg() float64 {
	return m.sum / float64(m.count)
}

func (m *metricStats) maybeAvg() maybe.Maybe[float64] {
	if m.count == 0 {
		return maybe.None[float64]()
	}
	return maybe.Some(m.avg())
}

func (m *metricStats) maybeMax() maybe.Maybe[float64] {
	if m.count == 0 {
		return maybe.None[float64]()
	}
	return maybe.Some(m.max)
}

// Aggregate buckets a single city's observations into calendar dates in
// loc and summarizes each date. The result only depends on the set of
// observations, not their order, and dates come back sorted, so repeated
// runs over the same rows produce identical output.
//
// Dates whose observations all lack a temperature are reported as
// DataQualityError (joined when there are several); aggregates for the
// remaining dates are still returned.
func Aggregate(city string, loc *time.Location, observations []database.ObservationRow) ([]database.DailyAggregateRow, error) {
	byDate := slice.GroupBy(observations, func(o database.ObservationRow) dates.Date {
		return dates.FromTime(o.Timestamp, loc)
	})

	days := make([]dates.Date, 0, len(byDate))
	for date := range byDate {
		days = append(days, date)
	}
	slices.Sort(days)

	var aggregates []database.DailyAggregateRow
	var errs []error

	for _, date := range days {
		var temp, humidity, wind, rain, snow metricStats
		for _, o := range byDate[date] {
			if o.Temperature.IsValid() {
				temp.add(o.Temperature.Value())
			}
			if o.Humidity.IsValid() {
				humidity.add(o.Humidity.Value())
			}
			if o.WindSpeed.IsValid() {
				wind.add(o.WindSpeed.Value())
			}
			if o.Rain.IsValid() {
				rain.add(o.Rain.Value())
			}
			if o.Snow.IsValid() {
				snow.add(o.Snow.Value())
			}
		}

		if temp.count == 0 {
			errs = append(errs, &DataQualityError{City: city, Date: date})
			continue
		}

		aggregates = append(aggregates, database.DailyAggregateRow{
			City:        city,
			Date:        date,
			TempMin:     temp.min,
			TempMax:     temp.max,
			TempAvg:     temp.avg(),
			HumidityAvg: humidity.maybeAvg(),
			WindAvg:     wind.maybeAvg(),
			RainMax:     rain.maybeMax(),
			SnowMax:     snow.maybeMax(),
			SampleCount: len(byDate[date]),
		})
	}

	return aggregates, errors.Join(errs...)
}
