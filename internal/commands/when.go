package commands

import (
	"strings"
	"time"
)

// When is a due time as typed by the user. Relative and wall-clock forms are
// resolved against a clock and location only when the command runs.
type When struct {
	Clear bool
	In    time.Duration
	At    time.Time
	Local bool
}

var localLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ParseWhen accepts `none`, `+<duration>`, RFC3339, or a local
// `2006-01-02 15:04` / `2006-01-02T15:04` wall-clock time.
func ParseWhen(s string) (When, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return When{}, invalid("time is empty")
	case strings.EqualFold(s, "none"):
		return When{Clear: true}, nil
	case strings.HasPrefix(s, "+"):
		d, err := time.ParseDuration(s[1:])
		if err != nil || d <= 0 {
			return When{}, invalid("relative time must be a positive duration like +90m, got %q", s)
		}
		return When{In: d}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return When{At: t}, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return When{At: t, Local: true}, nil
		}
	}
	return When{}, invalid("unrecognised time %q (use 2006-01-02 15:04, RFC3339, +90m or none)", s)
}

// Resolve returns the absolute due time, or nil when the due date is being
// cleared.
func (w When) Resolve(now time.Time, loc *time.Location) *time.Time {
	if w.Clear {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}
	var out time.Time
	switch {
	case w.In > 0:
		out = now.Add(w.In)
	case w.Local:
		out = time.Date(w.At.Year(), w.At.Month(), w.At.Day(), w.At.Hour(), w.At.Minute(), 0, 0, loc)
	default:
		out = w.At
	}
	return &out
}

func looksLikeClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
