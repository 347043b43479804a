package model

// TemporalMode is the single-select date filter shown next to the category
// segments.
type TemporalMode string

const (
	TemporalAll     TemporalMode = "all"
	TemporalToday   TemporalMode = "today"
	TemporalWeek    TemporalMode = "week"
	TemporalOverdue TemporalMode = "overdue"
)

func (m TemporalMode) IsValid() bool {
	switch m {
	case TemporalAll, TemporalToday, TemporalWeek, TemporalOverdue:
		return true
	default:
		return false
	}
}

// FilterState is session-local and never persisted. The flags stay
// independently settable; WithMode and Toggle keep them single-select.
type FilterState struct {
	ActiveCategory string
	TodayOnly      bool
	ThisWeekOnly   bool
	OverdueOnly    bool
}

func (f FilterState) HasCategory() bool {
	return f.ActiveCategory != ""
}

func (f FilterState) HasTemporal() bool {
	return f.TodayOnly || f.ThisWeekOnly || f.OverdueOnly
}

func (f FilterState) Mode() TemporalMode {
	switch {
	case f.OverdueOnly:
		return TemporalOverdue
	case f.TodayOnly:
		return TemporalToday
	case f.ThisWeekOnly:
		return TemporalWeek
	default:
		return TemporalAll
	}
}

func (f FilterState) WithMode(m TemporalMode) FilterState {
	f.TodayOnly = m == TemporalToday
	f.ThisWeekOnly = m == TemporalWeek
	f.OverdueOnly = m == TemporalOverdue
	return f
}

// Toggle selects m, or returns to TemporalAll when m is already the only
// active mode.
func (f FilterState) Toggle(m TemporalMode) FilterState {
	if f.Mode() == m && m != TemporalAll {
		return f.WithMode(TemporalAll)
	}
	return f.WithMode(m)
}

func (f FilterState) WithCategory(symbol string) FilterState {
	f.ActiveCategory = symbol
	return f
}
