package timeparse

import (
	"strings"
	"time"

	re2 "github.com/wasilibs/go-re2"
)

// Input is normalized before matching: lower case, single spaces. Word
// boundaries are spelled as (?:^|\s) and (?:\s|$) because \b is ASCII-only.
var (
	reRelativeMarker = re2.MustCompile(`(?:^|\s)(?:через|in)(?:\s|$)`)
	reMinutes        = re2.MustCompile(`(\d+)\s*(?:минут[аы]?|мин|м|minutes?|mins?|m)(?:\s|$|[.,])`)
	reHours          = re2.MustCompile(`(\d+)\s*(?:часов|часа|час|ч|hours?|hrs?|h)(?:\s|$|[.,])`)

	reDaily        = re2.MustCompile(`каждый\s+день|ежедневно|every\s*day|(?:^|\s)daily(?:\s|$)`)
	reWeeklyMarker = re2.MustCompile(`(?:^|\s)(?:каждый|каждую|каждое|every)(?:\s|$)`)
	reMonthly      = re2.MustCompile(`(?:^|\s)(?:1|1-го|первого)\s+числа|каждое\s+(?:1|первое)\s+число|(?:1st|first)\s+of\s+(?:the\s+)?month|monthly|ежемесячно`)

	reTomorrow    = re2.MustCompile(`(?:^|\s)(?:завтра|tomorrow)(?:\s|$)`)
	reTodayMarker = re2.MustCompile(`(?:^|\s)(?:сегодня|today|в|at)(?:\s|$)`)
	reBareClock   = re2.MustCompile(`^\d{1,2}:\d{2}$`)
	reClock       = re2.MustCompile(`(\d{1,2}):(\d{2})`)
	reFullDate    = re2.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})\s+(\d{1,2}):(\d{2})$`)
)

type weekdayStem struct {
	stem    string
	weekday time.Weekday
}

// Russian stems cover the declensions used after "каждый/каждую/каждое".
var weekdayStems = []weekdayStem{
	{"понедельник", time.Monday},
	{"вторник", time.Tuesday},
	{"сред", time.Wednesday},
	{"четверг", time.Thursday},
	{"пятниц", time.Friday},
	{"суббот", time.Saturday},
	{"воскресень", time.Sunday},
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

var weekdayShort = map[string]time.Weekday{
	"пн": time.Monday, "вт": time.Tuesday, "ср": time.Wednesday, "чт": time.Thursday,
	"пт": time.Friday, "сб": time.Saturday, "вс": time.Sunday,
	"mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday, "thu": time.Thursday,
	"fri": time.Friday, "sat": time.Saturday, "sun": time.Sunday,
}

// findWeekday returns the first weekday word in s.
func findWeekday(s string) (time.Weekday, bool) {
	for _, field := range strings.Fields(s) {
		field = strings.Trim(field, ".,;!?")
		if wd, ok := weekdayShort[field]; ok {
			return wd, true
		}
		for _, ws := range weekdayStems {
			if strings.HasPrefix(field, ws.stem) {
				return ws.weekday, true
			}
		}
	}
	return 0, false
}
