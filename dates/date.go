package dates

import (
	"time"
)

const Layout = "2006-01-02"

// Date is a calendar date in the pipeline's bucketing timezone,
// stored as "2006-01-02". The string form sorts chronologically,
// which the database relies on for range queries.
type Date string

func (d Date) String() string {
	return string(d)
}

func (d Date) IsZero() bool {
	return d == ""
}

func (d Date) Time() time.Time {
	t, err := time.Parse(Layout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d Date) Add(days int) Date {
	t := d.Time()
	if t.IsZero() {
		return d
	}
	return Date(t.AddDate(0, 0, days).Format(Layout))
}

func (d Date) Sub(days int) Date {
	return d.Add(-days)
}

func (d Date) Compare(other Date) int {
	if d == other {
		return 0
	}
	if d < other {
		return -1
	}
	return 1
}

// FromTime buckets an instant into a calendar date in the given location.
// The location must be the same for every call within a pipeline run,
// otherwise observations near midnight drift between dates across runs.
func FromTime(t time.Time, loc *time.Location) Date {
	if t.IsZero() {
		return Date("")
	}
	return Date(t.In(loc).Format(Layout))
}

func Today(loc *time.Location) Date {
	return FromTime(time.Now(), loc)
}
