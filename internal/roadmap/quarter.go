package roadmap

import (
	"fmt"
	"time"

	"github.com/compasshq/compass/internal/apperr"
)

// QuarterOf returns the quarter label for a date, e.g. "2026-Q3".
func QuarterOf(t time.Time) string {
	q := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("%d-Q%d", t.Year(), q)
}

// QuarterBounds returns the half-open [start, end) date range of a quarter
// label. Zero times are returned for unparseable labels.
func QuarterBounds(quarter string) (time.Time, time.Time) {
	var year, q int
	if _, err := fmt.Sscanf(quarter, "%d-Q%d", &year, &q); err != nil || q < 1 || q > 4 {
		return time.Time{}, time.Time{}
	}
	start := time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 3, 0)
}

// ParseQuarter validates a quarter label.
func ParseQuarter(quarter string) error {
	start, _ := QuarterBounds(quarter)
	if start.IsZero() {
		return fmt.Errorf("%w: quarter %q, want YYYY-Qn", apperr.ErrValidation, quarter)
	}
	return nil
}
