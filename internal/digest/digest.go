// Package digest runs the scheduled health-snapshot loop: on each cron
// fire it recomputes every customer's health roll-up and flags stale
// in-progress assessments.
package digest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/compasshq/compass/internal/customer"
	"github.com/compasshq/compass/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom,
// month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Opts configures the digest loop.
type Opts struct {
	DB        *gorm.DB
	Schedule  string
	StaleDays int
	Out       io.Writer
}

// Run blocks until ctx is cancelled, firing a digest pass at each scheduled
// time. An unparseable schedule is an error up front, not a silent no-op.
func Run(ctx context.Context, opts Opts) error {
	if opts.DB == nil {
		return fmt.Errorf("digest: db is required")
	}
	sched, err := cronParser.Parse(opts.Schedule)
	if err != nil {
		return fmt.Errorf("digest: parse schedule %q: %w", opts.Schedule, err)
	}

	for {
		next := sched.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			if err := Pass(opts.DB, opts.StaleDays, opts.Out); err != nil && opts.Out != nil {
				fmt.Fprintf(opts.Out, "digest pass failed: %v\n", err)
			}
		}
	}
}

// Pass runs one digest pass: refresh every customer's roll-up and report
// stale in-progress assessments.
func Pass(db *gorm.DB, staleDays int, out io.Writer) error {
	var customers []models.Customer
	if err := db.Find(&customers).Error; err != nil {
		return fmt.Errorf("digest: list customers: %w", err)
	}

	for _, c := range customers {
		rollup, err := customer.HealthRollup(db, c.ID)
		if err != nil {
			return err
		}
		if err := customer.SaveRollup(db, rollup); err != nil {
			return err
		}
	}

	stale, err := StaleAssessments(db, staleDays)
	if err != nil {
		return err
	}
	if out != nil {
		fmt.Fprintf(out, "digest: refreshed %d customers, %d stale assessments\n",
			len(customers), len(stale))
	}
	return nil
}

// StaleAssessments returns in-progress assessments untouched for more than
// staleDays days.
func StaleAssessments(db *gorm.DB, staleDays int) ([]models.Assessment, error) {
	cutoff := time.Now().AddDate(0, 0, -staleDays)
	var stale []models.Assessment
	if err := db.Where("status = ? AND updated_at < ?", "in_progress", cutoff).
		Order("updated_at ASC").
		Find(&stale).Error; err != nil {
		return nil, fmt.Errorf("digest: find stale assessments: %w", err)
	}
	return stale, nil
}
