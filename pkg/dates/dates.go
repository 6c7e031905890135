// Package dates resolves the target market date for a refresh run.
package dates

import (
	"fmt"
	"time"
)

// LayoutYYYYMMDD is the compact date layout used in dataset filters and
// ingestion ids.
const LayoutYYYYMMDD = "20060102"

const (
	ModePreviousBusinessDay = "previous-business-day"
	ModePreviousDay         = "previous-day"
)

// PreviousBusinessDay returns the last weekday before now. On Monday it
// skips back to Friday, on Sunday to Friday as well.
func PreviousBusinessDay(now time.Time) time.Time {
	switch now.Weekday() {
	case time.Monday:
		return now.AddDate(0, 0, -3)
	case time.Sunday:
		return now.AddDate(0, 0, -2)
	default:
		return now.AddDate(0, 0, -1)
	}
}

// PreviousDay returns yesterday, weekends included.
func PreviousDay(now time.Time) time.Time {
	return now.AddDate(0, 0, -1)
}

// Resolve maps a configured mode to a yyyymmdd target date string.
func Resolve(mode string, now time.Time) (string, error) {
	switch mode {
	case "", ModePreviousBusinessDay:
		return PreviousBusinessDay(now).Format(LayoutYYYYMMDD), nil
	case ModePreviousDay:
		return PreviousDay(now).Format(LayoutYYYYMMDD), nil
	default:
		return "", fmt.Errorf("unknown target date mode %q", mode)
	}
}

// Validate checks that a caller-supplied override is a real yyyymmdd date.
func Validate(yyyymmdd string) error {
	if _, err := time.Parse(LayoutYYYYMMDD, yyyymmdd); err != nil {
		return fmt.Errorf("invalid target date %q: expected yyyymmdd", yyyymmdd)
	}
	return nil
}
