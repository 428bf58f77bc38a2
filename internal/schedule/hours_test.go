package schedule

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay(" 09:30 ")
	if err != nil {
		t.Fatalf("ParseTimeOfDay failed: %v", err)
	}
	if got != 9*60+30 {
		t.Fatalf("expected 570 minutes, got %d", got)
	}
	if got.String() != "09:30" {
		t.Fatalf("String = %q", got.String())
	}

	if _, err := ParseTimeOfDay("25:00"); err == nil {
		t.Fatal("expected error for 25:00")
	}
	if _, err := ParseTimeOfDay("9am"); err == nil {
		t.Fatal("expected error for 9am")
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{Open: 8 * 60, Close: 17 * 60}
	cases := []struct {
		at   TimeOfDay
		want bool
	}{
		{8 * 60, true},   // exactly at open
		{17 * 60, true},  // exactly at close
		{12 * 60, true},
		{7*60 + 59, false},
		{17*60 + 1, false},
	}
	for _, tc := range cases {
		if got := w.Contains(tc.at); got != tc.want {
			t.Fatalf("Contains(%s) = %v, want %v", tc.at, got, tc.want)
		}
	}
}

func TestCandidatesFullDay(t *testing.T) {
	loc := time.UTC
	hours := Default()
	date := time.Date(2026, 1, 28, 0, 0, 0, 0, loc)
	now := time.Date(2026, 1, 27, 12, 0, 0, 0, loc)

	candidates := hours.Candidates(date, now)
	// 08:00 through 16:00 hourly; the 16:00 slot ends exactly at close.
	if len(candidates) != 9 {
		t.Fatalf("expected 9 candidates, got %d", len(candidates))
	}
	if !candidates[0].Equal(date.Add(8 * time.Hour)) {
		t.Fatalf("first candidate %s", candidates[0].Format(time.RFC3339))
	}
	if !candidates[8].Equal(date.Add(16 * time.Hour)) {
		t.Fatalf("last candidate %s", candidates[8].Format(time.RFC3339))
	}
}

func TestCandidatesTodayFloorsAtNow(t *testing.T) {
	loc := time.UTC
	hours := Default()
	date := time.Date(2026, 1, 28, 0, 0, 0, 0, loc)
	now := time.Date(2026, 1, 28, 14, 20, 0, 0, loc)

	candidates := hours.Candidates(date, now)
	// Steps hourly from 14:20 while the slot ends by 17:00: 14:20, 15:20.
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", candidates)
	}
	if !candidates[0].Equal(now) {
		t.Fatalf("first candidate %s, want %s", candidates[0], now)
	}
}

func TestCandidatesBeforeOpenKeepsOpen(t *testing.T) {
	loc := time.UTC
	hours := Default()
	date := time.Date(2026, 1, 28, 0, 0, 0, 0, loc)
	now := time.Date(2026, 1, 28, 6, 0, 0, 0, loc)

	candidates := hours.Candidates(date, now)
	if len(candidates) != 9 || !candidates[0].Equal(date.Add(8*time.Hour)) {
		t.Fatalf("candidates = %v", candidates)
	}
}

func TestCandidatesShortWindow(t *testing.T) {
	hours := WeeklyHours{
		time.Wednesday: {Open: 9 * 60, Close: 9*60 + 30},
	}
	date := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC) // a Wednesday
	now := time.Date(2026, 1, 27, 0, 0, 0, 0, time.UTC)

	// The window is shorter than one slot; nothing fits.
	if candidates := hours.Candidates(date, now); len(candidates) != 0 {
		t.Fatalf("candidates = %v", candidates)
	}
}

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday(" MONDAY ")
	if err != nil {
		t.Fatalf("ParseWeekday failed: %v", err)
	}
	if day != time.Monday {
		t.Fatalf("got %v", day)
	}
	if _, err := ParseWeekday("someday"); !errors.Is(err, ErrUnknownWeekday) {
		t.Fatalf("got %v, want ErrUnknownWeekday", err)
	}
}

func TestWindowFor(t *testing.T) {
	hours := Default()
	w, err := hours.WindowFor("friday")
	if err != nil {
		t.Fatalf("WindowFor failed: %v", err)
	}
	if w.Open != 8*60 || w.Close != 17*60 {
		t.Fatalf("window = %+v", w)
	}
}

func TestValidateReportsAllDays(t *testing.T) {
	hours := Default()
	hours[time.Monday] = Window{Open: 17 * 60, Close: 8 * 60}
	hours[time.Thursday] = Window{Open: 10 * 60, Close: 10 * 60}

	err := hours.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	var we *WindowError
	if !errors.As(err, &we) {
		t.Fatalf("got %T, want WindowError", err)
	}
	// errors.Join keeps one line per offending day.
	msg := err.Error()
	for _, want := range []string{"monday", "thursday"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q missing %s", msg, want)
		}
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default hours should be valid: %v", err)
	}
}
