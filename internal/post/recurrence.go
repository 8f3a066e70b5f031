package post

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Kind is the repetition rule of a task.
type Kind string

const (
	KindNone    Kind = ""
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// Recurrence describes when a recurring task fires again. Hour and Minute are
// the wall-clock time of day in the reference zone.
type Recurrence struct {
	Kind    Kind         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Weekday time.Weekday `json:"weekday,omitempty" yaml:"weekday,omitempty"`
	Day     int          `json:"day,omitempty" yaml:"day,omitempty"`
	Hour    int          `json:"hour,omitempty" yaml:"hour,omitempty"`
	Minute  int          `json:"minute,omitempty" yaml:"minute,omitempty"`
}

// Daily returns a rule firing every day at hour:minute.
func Daily(hour, minute int) Recurrence {
	return Recurrence{Kind: KindDaily, Hour: hour, Minute: minute}
}

// Weekly returns a rule firing every week on wd at hour:minute.
func Weekly(wd time.Weekday, hour, minute int) Recurrence {
	return Recurrence{Kind: KindWeekly, Weekday: wd, Hour: hour, Minute: minute}
}

// Monthly returns a rule firing on the given day of every month.
func Monthly(day, hour, minute int) Recurrence {
	return Recurrence{Kind: KindMonthly, Day: day, Hour: hour, Minute: minute}
}

// IsSet reports whether the rule repeats at all.
func (r Recurrence) IsSet() bool {
	return r.Kind != KindNone
}

// Validate checks field ranges for the rule kind.
func (r Recurrence) Validate() error {
	if !r.IsSet() {
		return nil
	}
	if r.Hour < 0 || r.Hour > 23 {
		return fmt.Errorf("recurrence hour out of range: %d", r.Hour)
	}
	if r.Minute < 0 || r.Minute > 59 {
		return fmt.Errorf("recurrence minute out of range: %d", r.Minute)
	}
	switch r.Kind {
	case KindDaily:
	case KindWeekly:
		if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
			return fmt.Errorf("recurrence weekday out of range: %d", r.Weekday)
		}
	case KindMonthly:
		if r.Day < 1 || r.Day > 28 {
			return fmt.Errorf("recurrence day out of range: %d", r.Day)
		}
	default:
		return fmt.Errorf("unknown recurrence kind: %q", r.Kind)
	}
	return nil
}

// CronSpec renders the rule as a standard five-field cron expression.
func (r Recurrence) CronSpec() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	switch r.Kind {
	case KindDaily:
		return fmt.Sprintf("%d %d * * *", r.Minute, r.Hour), nil
	case KindWeekly:
		return fmt.Sprintf("%d %d * * %d", r.Minute, r.Hour, int(r.Weekday)), nil
	case KindMonthly:
		return fmt.Sprintf("%d %d %d * *", r.Minute, r.Hour, r.Day), nil
	}
	return "", fmt.Errorf("recurrence is not set")
}

// Next returns the first occurrence strictly after the given instant,
// evaluated on the wall clock of loc.
func (r Recurrence) Next(after time.Time, loc *time.Location) (time.Time, error) {
	spec, err := r.CronSpec()
	if err != nil {
		return time.Time{}, err
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid recurrence schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = after.Location()
	}
	// Without CRON_TZ the schedule follows the location of its argument.
	next := sched.Next(after.In(loc))
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("recurrence schedule %q has no next occurrence", spec)
	}
	return next, nil
}

// NextAfterNow advances from the current target until the result is in the
// future, skipping occurrences missed while the process was down.
func (r Recurrence) NextAfterNow(target, now time.Time, loc *time.Location) (time.Time, error) {
	next, err := r.Next(target, loc)
	if err != nil {
		return time.Time{}, err
	}
	for !next.After(now) {
		next, err = r.Next(next, loc)
		if err != nil {
			return time.Time{}, err
		}
	}
	return next, nil
}
