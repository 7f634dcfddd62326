package dates

import (
	"testing"
	"time"
)

func TestFromTimeBucketsByLocation(t *testing.T) {
	// 2025-06-01 23:30 UTC is already 2025-06-02 in Tokyo
	instant := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)

	if d := FromTime(instant, time.UTC); d != Date("2025-06-01") {
		t.Errorf("UTC bucketing expected 2025-06-01, got %s", d)
	}

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to load Asia/Tokyo: %v", err)
	}
	if d := FromTime(instant, tokyo); d != Date("2025-06-02") {
		t.Errorf("Tokyo bucketing expected 2025-06-02, got %s", d)
	}
}

func TestFromTimeZero(t *testing.T) {
	if d := FromTime(time.Time{}, time.UTC); !d.IsZero() {
		t.Errorf("expected zero date, got %q", d)
	}
}

func TestDateAdd(t *testing.T) {
	tests := []struct {
		name     string
		input    Date
		addDays  int
		expected Date
	}{
		{"add one day", Date("2025-01-01"), 1, Date("2025-01-02")},
		{"add across month", Date("2025-01-31"), 1, Date("2025-02-01")},
		{"add across year", Date("2024-12-31"), 1, Date("2025-01-01")},
		{"subtract one day", Date("2025-03-01"), -1, Date("2025-02-28")},
		{"leap day", Date("2024-02-28"), 1, Date("2024-02-29")},
		{"add zero", Date("2025-01-01"), 0, Date("2025-01-01")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.input.Add(tt.addDays); got != tt.expected {
				t.Errorf("Add(%d) expected %s, got %s", tt.addDays, tt.expected, got)
			}
		})
	}
}

func TestDateCompare(t *testing.T) {
	a := Date("2025-01-01")
	b := Date("2025-01-02")

	if c := a.Compare(b); c != -1 {
		t.Errorf("expected -1, got %d", c)
	}
	if c := b.Compare(a); c != 1 {
		t.Errorf("expected 1, got %d", c)
	}
	if c := a.Compare(a); c != 0 {
		t.Errorf("expected 0, got %d", c)
	}
}
