package filter

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Calendar fixes the location and week start used to decide "today" and
// "this week". Both are derived from the user's locale.
type Calendar struct {
	Location     *time.Location
	FirstWeekday time.Weekday
}

func DefaultCalendar() Calendar {
	return Calendar{Location: time.Local, FirstWeekday: time.Monday}
}

// Regions whose week starts on a day other than Monday, per CLDR weekData.
var (
	sundayFirstRegions = regionSet("AG AS BD BR BS BT BW BZ CA CN CO DM DO ET GT GU HK HN ID IL IN JM JP KE KH KR LA MH MM MO MT MX MZ NI NP PA PE PH PK PR PT PY SA SG SV TH TT TW UM US VE VI WS YE ZA ZW")
	saturdayFirstRegions = regionSet("AE AF BH DJ DZ EG IQ IR JO KW LY OM QA SD SY")
)

func regionSet(list string) map[string]bool {
	out := make(map[string]bool)
	for _, r := range strings.Fields(list) {
		out[r] = true
	}
	return out
}

// CalendarForLocale builds a calendar from a BCP 47 tag such as "en-US" or
// "tr-TR". An empty tag yields the default Monday-first calendar.
func CalendarForLocale(locale string, loc *time.Location) (Calendar, error) {
	cal := DefaultCalendar()
	if loc != nil {
		cal.Location = loc
	}
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return cal, nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Calendar{}, fmt.Errorf("filter: parse locale %q: %w", locale, err)
	}
	region, _ := tag.Region()
	cal.FirstWeekday = firstWeekdayForRegion(region.String())
	return cal, nil
}

func firstWeekdayForRegion(region string) time.Weekday {
	switch {
	case sundayFirstRegions[region]:
		return time.Sunday
	case saturdayFirstRegions[region]:
		return time.Saturday
	default:
		return time.Monday
	}
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// DayBounds returns the half-open interval [start, end) of the calendar day
// containing now.
func (c Calendar) DayBounds(now time.Time) (time.Time, time.Time) {
	local := now.In(c.location())
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, local.Location())
	return start, start.AddDate(0, 0, 1)
}

// WeekBounds returns the half-open interval [start, end) of the week
// containing now.
func (c Calendar) WeekBounds(now time.Time) (time.Time, time.Time) {
	dayStart, _ := c.DayBounds(now)
	back := (int(dayStart.Weekday()) - int(c.FirstWeekday) + 7) % 7
	start := dayStart.AddDate(0, 0, -back)
	return start, start.AddDate(0, 0, 7)
}

func (c Calendar) IsToday(t, now time.Time) bool {
	start, end := c.DayBounds(now)
	return within(t, start, end)
}

func (c Calendar) IsThisWeek(t, now time.Time) bool {
	start, end := c.WeekBounds(now)
	return within(t, start, end)
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
