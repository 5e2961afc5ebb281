package ledger

import (
	"strings"
	"time"
)

// DatePreset names a relative date window measured from the current day.
type DatePreset string

const (
	PresetToday DatePreset = "today"
	PresetWeek  DatePreset = "week"
	PresetMonth DatePreset = "month"
)

// Filter holds the optional activity predicates. All set predicates must
// hold for an activity to pass (logical AND). The date range is tested
// against UpdatedAt rather than the nominal transaction date so that
// back-dated edits still surface under recent-activity filters.
type Filter struct {
	Type     EntryType
	Search   string
	Category string

	// Explicit day-granularity bounds; either may be nil. When one is
	// set, Preset is ignored.
	StartDate *time.Time
	EndDate   *time.Time
	Preset    DatePreset

	// Now anchors preset windows. The zero value falls back to the wall
	// clock; tests and cached computations pin it explicitly.
	Now time.Time
}

// IsZero reports whether the filter has no active predicates.
func (f Filter) IsZero() bool {
	return f.Type == "" && f.Search == "" && f.Category == "" &&
		f.StartDate == nil && f.EndDate == nil && f.Preset == ""
}

// FilterActivities returns the activities matching every set predicate.
// The input slice is never mutated.
func FilterActivities(activities []Activity, filter Filter) []Activity {
	if filter.IsZero() {
		out := make([]Activity, len(activities))
		copy(out, activities)
		return out
	}

	out := make([]Activity, 0, len(activities))
	for _, a := range activities {
		if filter.matches(a) {
			out = append(out, a)
		}
	}
	return out
}

func (f Filter) matches(a Activity) bool {
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(a.Description), needle) &&
			!strings.Contains(strings.ToLower(a.Category), needle) {
			return false
		}
	}
	if f.Category != "" && a.Category != f.Category {
		return false
	}
	return f.matchesDate(a)
}

func (f Filter) matchesDate(a Activity) bool {
	day := truncateDay(a.UpdatedAt)

	if f.StartDate != nil || f.EndDate != nil {
		if f.StartDate != nil && day.Before(truncateDay(*f.StartDate)) {
			return false
		}
		// End of range is inclusive at day granularity: an update at any
		// time of day on the end date passes.
		if f.EndDate != nil && day.After(truncateDay(*f.EndDate)) {
			return false
		}
		return true
	}

	if f.Preset == "" {
		return true
	}

	today := truncateDay(f.now())
	switch f.Preset {
	case PresetToday:
		return day.Equal(today)
	case PresetWeek:
		return !day.Before(today.AddDate(0, 0, -7)) && !day.After(today)
	case PresetMonth:
		return !day.Before(today.AddDate(0, 0, -30)) && !day.After(today)
	default:
		return true
	}
}

func (f Filter) now() time.Time {
	if !f.Now.IsZero() {
		return f.Now
	}
	return time.Now()
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
