package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SlotLength is the fixed appointment length. It is a business rule, not a
// per-booking setting; callers cannot override it.
const SlotLength = time.Hour

var ErrUnknownWeekday = errors.New("unknown weekday")

// TimeOfDay is a clock time expressed as minutes since midnight.
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// On combines the clock time with the calendar day of date, in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(t)/60, int(t)%60, 0, 0, date.Location())
}

// Window is one weekday's open/close pair.
type Window struct {
	Open  TimeOfDay
	Close TimeOfDay
}

// Contains reports whether t falls within the window. Both bounds are
// inclusive: a booking starting exactly at close time is accepted.
func (w Window) Contains(t TimeOfDay) bool {
	return t >= w.Open && t <= w.Close
}

// WeeklyHours is the business's weekly schedule, one window per weekday.
// Keying by time.Weekday keeps lookups exhaustive instead of going through
// string-built field names.
type WeeklyHours map[time.Weekday]Window

// Week lists weekdays in display order.
var Week = [7]time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// Default returns the schedule a business starts with: 08:00-17:00 every day.
func Default() WeeklyHours {
	h := make(WeeklyHours, len(Week))
	for _, day := range Week {
		h[day] = Window{Open: 8 * 60, Close: 17 * 60}
	}
	return h
}

func ParseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	case "sunday":
		return time.Sunday, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownWeekday, name)
	}
}

// WindowFor returns the window for the named weekday, case-insensitively.
func (h WeeklyHours) WindowFor(name string) (Window, error) {
	day, err := ParseWeekday(name)
	if err != nil {
		return Window{}, err
	}
	w, ok := h[day]
	if !ok {
		return Window{}, fmt.Errorf("no hours configured for %s", strings.ToLower(day.String()))
	}
	return w, nil
}

// WindowError reports a weekday whose close time is not after its open time.
type WindowError struct {
	Day time.Weekday
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("close time must be after open time for %s", strings.ToLower(e.Day.String()))
}

// Validate checks every weekday and reports all offending days, not just the
// first, so the owner sees the complete error set in one round trip.
func (h WeeklyHours) Validate() error {
	var errs []error
	for _, day := range Week {
		w, ok := h[day]
		if !ok {
			continue
		}
		if w.Close <= w.Open {
			errs = append(errs, &WindowError{Day: day})
		}
	}
	return errors.Join(errs...)
}

// Candidates projects the schedule onto a calendar date and enumerates the
// slot-start instants: the first candidate is max(date at open, now) when the
// date is today, then successive candidates step by SlotLength while the slot
// still ends on or before close. A slot ending exactly at close is included.
//
// For past dates candidates enumerate normally; refusing to commit a booking
// in the past is the booking layer's job, not the projection's.
func (h WeeklyHours) Candidates(date time.Time, now time.Time) []time.Time {
	w, ok := h[date.Weekday()]
	if !ok {
		return nil
	}

	start := w.Open.On(date)
	end := w.Close.On(date)
	if sameDate(date, now) && now.After(start) {
		start = now
	}

	var candidates []time.Time
	for t := start; !t.Add(SlotLength).After(end); t = t.Add(SlotLength) {
		candidates = append(candidates, t)
	}
	return candidates
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
