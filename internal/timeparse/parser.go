// Package timeparse turns free-form Russian or English time expressions into
// an absolute instant and an optional recurrence rule.
//
// Rules are tried in a fixed order and the first one that matches wins:
//
//	relative duration > daily > weekly > monthly > tomorrow > today/at/bare clock > full date
//
// The order matters for ambiguous input: "через 2 часа в 15:00" is a relative
// duration, "каждый день в 10:00" is daily even though it contains "в ".
package timeparse

import (
	"strconv"
	"strings"
	"time"

	"github.com/aatumaykin/postbot/internal/post"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Rule names the branch that produced a result.
type Rule string

const (
	RuleRelative Rule = "relative"
	RuleDaily    Rule = "daily"
	RuleWeekly   Rule = "weekly"
	RuleMonthly  Rule = "monthly"
	RuleTomorrow Rule = "tomorrow"
	RuleToday    Rule = "today"
	RuleDate     Rule = "date"
)

// Result is a successfully parsed expression.
type Result struct {
	At         time.Time
	Recurrence post.Recurrence
	Rule       Rule
}

// Config controls the reference zone and defaults of a Parser.
type Config struct {
	Location      *time.Location
	Grace         time.Duration
	DefaultHour   int
	DefaultMinute int
}

// Parser is safe for concurrent use.
type Parser struct {
	loc           *time.Location
	grace         time.Duration
	defaultHour   int
	defaultMinute int
}

// New creates a Parser. Zero values fall back to UTC, a one minute grace
// window and 09:00 as the default time of day.
func New(cfg Config) *Parser {
	p := &Parser{
		loc:           cfg.Location,
		grace:         cfg.Grace,
		defaultHour:   cfg.DefaultHour,
		defaultMinute: cfg.DefaultMinute,
	}
	if p.loc == nil {
		p.loc = time.UTC
	}
	if p.grace <= 0 {
		p.grace = time.Minute
	}
	if cfg.DefaultHour == 0 && cfg.DefaultMinute == 0 {
		p.defaultHour = 9
	}
	return p
}

// Location returns the reference zone.
func (p *Parser) Location() *time.Location {
	return p.loc
}

// Parse interprets text relative to now. Errors are *post.ParseError or
// post.ErrPastInstant.
func (p *Parser) Parse(text string, now time.Time) (Result, error) {
	now = now.In(p.loc)
	s := normalize(text)
	if s == "" {
		return Result{}, &post.ParseError{Err: post.ErrUnrecognized, Input: text}
	}

	res, err := p.match(s, now)
	if err != nil {
		return Result{}, &post.ParseError{Err: err, Input: text}
	}

	if !res.Recurrence.IsSet() && !res.At.After(now.Add(-p.grace)) {
		return Result{}, post.ErrPastInstant
	}
	return res, nil
}

func (p *Parser) match(s string, now time.Time) (Result, error) {
	if reRelativeMarker.MatchString(s) {
		return p.relative(s, now)
	}

	if reDaily.MatchString(s) {
		h, m, err := p.clockOrDefault(s)
		if err != nil {
			return Result{}, err
		}
		at := atClock(now, h, m)
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		return Result{At: at, Recurrence: post.Daily(h, m), Rule: RuleDaily}, nil
	}

	if reWeeklyMarker.MatchString(s) {
		if wd, ok := findWeekday(s); ok {
			h, m, err := p.clockOrDefault(s)
			if err != nil {
				return Result{}, err
			}
			days := (int(wd) - int(now.Weekday()) + 7) % 7
			if days == 0 {
				days = 7
			}
			at := atClock(now, h, m).AddDate(0, 0, days)
			return Result{At: at, Recurrence: post.Weekly(wd, h, m), Rule: RuleWeekly}, nil
		}
		// "каждое 1 число" carries the same marker.
		if !reMonthly.MatchString(s) {
			return Result{}, post.ErrMissingQuantity
		}
	}

	if reMonthly.MatchString(s) {
		h, m, err := p.clockOrDefault(s)
		if err != nil {
			return Result{}, err
		}
		at := time.Date(now.Year(), now.Month()+1, 1, h, m, 0, 0, p.loc)
		return Result{At: at, Recurrence: post.Monthly(1, h, m), Rule: RuleMonthly}, nil
	}

	if reTomorrow.MatchString(s) {
		h, m, err := p.clockOrDefault(s)
		if err != nil {
			return Result{}, err
		}
		return Result{At: atClock(now, h, m).AddDate(0, 0, 1), Rule: RuleTomorrow}, nil
	}

	if reTodayMarker.MatchString(s) || reBareClock.MatchString(s) {
		h, m, found, err := clock(s)
		if err != nil {
			return Result{}, err
		}
		if !found {
			return Result{}, post.ErrMissingTime
		}
		at := atClock(now, h, m)
		if at.Before(now.Add(-p.grace)) {
			at = at.AddDate(0, 0, 1)
		}
		return Result{At: at, Rule: RuleToday}, nil
	}

	if sub := reFullDate.FindStringSubmatch(s); sub != nil {
		return p.fullDate(sub)
	}

	return Result{}, post.ErrUnrecognized
}

// maxRelative bounds "in N units" offsets.
const maxRelative = 10 * 365 * 24 * time.Hour

func (p *Parser) relative(s string, now time.Time) (Result, error) {
	if sub := reMinutes.FindStringSubmatch(s); sub != nil {
		return relativeOffset(sub[1], time.Minute, now)
	}
	if sub := reHours.FindStringSubmatch(s); sub != nil {
		return relativeOffset(sub[1], time.Hour, now)
	}
	return Result{}, post.ErrMissingQuantity
}

func relativeOffset(digits string, unit time.Duration, now time.Time) (Result, error) {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n > int64(maxRelative/unit) {
		return Result{}, post.ErrUnrecognized
	}
	return Result{At: now.Add(time.Duration(n) * unit), Rule: RuleRelative}, nil
}

func (p *Parser) fullDate(sub []string) (Result, error) {
	day, _ := strconv.Atoi(sub[1])
	month, _ := strconv.Atoi(sub[2])
	year, _ := strconv.Atoi(sub[3])
	h, _ := strconv.Atoi(sub[4])
	m, _ := strconv.Atoi(sub[5])
	if !validClock(h, m) {
		return Result{}, post.ErrUnrecognized
	}
	at := time.Date(year, time.Month(month), day, h, m, 0, 0, p.loc)
	// time.Date normalizes 31.02 into March.
	if at.Day() != day || int(at.Month()) != month || at.Year() != year {
		return Result{}, post.ErrUnrecognized
	}
	return Result{At: at, Rule: RuleDate}, nil
}

func (p *Parser) clockOrDefault(s string) (int, int, error) {
	h, m, found, err := clock(s)
	if err != nil {
		return 0, 0, err
	}
	if !found {
		return p.defaultHour, p.defaultMinute, nil
	}
	return h, m, nil
}

// clock extracts the first HH:MM in s.
func clock(s string) (hour, minute int, found bool, err error) {
	sub := reClock.FindStringSubmatch(s)
	if sub == nil {
		return 0, 0, false, nil
	}
	hour, _ = strconv.Atoi(sub[1])
	minute, _ = strconv.Atoi(sub[2])
	if !validClock(hour, minute) {
		return 0, 0, false, post.ErrUnrecognized
	}
	return hour, minute, true, nil
}

func validClock(h, m int) bool {
	return h >= 0 && h <= 23 && m >= 0 && m <= 59
}

func atClock(now time.Time, h, m int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
}

func normalize(text string) string {
	s := norm.NFKC.String(text)
	s = cases.Lower(language.Russian).String(s)
	return strings.Join(strings.Fields(s), " ")
}
