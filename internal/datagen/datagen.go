// Package datagen generates the synthetic monitoring datasets: seeded,
// reproducible tabular data with engineered correlations between
// features, ground-truth labels, and simulated model outputs, written as
// date-partitioned files ready for connector ingestion.
package datagen

import (
	"crypto/md5"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Window is an inclusive date range at UTC midnight granularity.
type Window struct {
	Start time.Time
	End   time.Time
}

// ResolveWindow builds a Window from explicit YYYY-MM-DD bounds, falling
// back to now-pastDays / now+futureDays for whichever bound is empty.
func ResolveWindow(startDate, endDate string, pastDays, futureDays int, now time.Time) (Window, error) {
	today := now.UTC().Truncate(24 * time.Hour)

	var w Window
	if startDate == "" {
		w.Start = today.AddDate(0, 0, -pastDays)
	} else {
		t, err := time.ParseInLocation("2006-01-02", startDate, time.UTC)
		if err != nil {
			return Window{}, fmt.Errorf("invalid start date %q: %w", startDate, err)
		}
		w.Start = t
	}
	if endDate == "" {
		w.End = today.AddDate(0, 0, futureDays)
	} else {
		t, err := time.ParseInLocation("2006-01-02", endDate, time.UTC)
		if err != nil {
			return Window{}, fmt.Errorf("invalid end date %q: %w", endDate, err)
		}
		w.End = t
	}
	if w.End.Before(w.Start) {
		return Window{}, fmt.Errorf("end date %s before start date %s",
			w.End.Format("2006-01-02"), w.Start.Format("2006-01-02"))
	}
	return w, nil
}

// Reference returns the leading slice of the window used for baseline
// datasets: the first days days, end-inclusive.
func (w Window) Reference(days int) Window {
	return Window{Start: w.Start, End: w.Start.AddDate(0, 0, days-1)}
}

// Days returns the number of calendar days covered, end-inclusive.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// String renders the range the way run summaries report it.
func (w Window) String() string {
	return w.Start.Format("2006-01-02") + " to " + w.End.Format("2006-01-02")
}

// RecordID derives a stable UUID for a record from its timestamp and
// position within the batch, so re-running a generator with the same seed
// and window reproduces identical IDs. The UUID is the raw MD5 of
// "<timestamp>_<index>".
func RecordID(ts time.Time, index int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d", ts.Format(time.RFC3339), index)))
	id, _ := uuid.FromBytes(sum[:])
	return id.String()
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// roundTo rounds to the nearest multiple of unit (1000 for loan amounts,
// 100 for house prices).
func roundTo(v, unit float64) float64 {
	return math.Round(v/unit) * unit
}

// daysSinceEpoch converts a UTC date to the int32 day count Parquet DATE
// columns carry.
func daysSinceEpoch(t time.Time) int32 {
	return int32(t.Unix() / 86400)
}
