package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseDate accepts RFC 3339 timestamps or plain dates (UTC midnight)
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

// parseDateRange reads optional from/to query values. A plain "to" date covers
// the whole day.
func parseDateRange(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if from != "" {
		if start, err = parseDate(from); err != nil {
			return start, end, err
		}
	}
	if to != "" {
		if end, err = parseDate(to); err != nil {
			return start, end, err
		}
		if !strings.Contains(to, "T") {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, fmt.Errorf("range end is before its start")
	}
	return start, end, nil
}

// optionalDecimal returns nil for an unset amount
func optionalDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}
