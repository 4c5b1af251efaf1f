package calendar

import (
	"errors"
	"testing"
	"time"
)

// 2024-01-01 is a Monday.
var (
	monday   = Date(2024, time.January, 1)
	friday   = Date(2024, time.January, 5)
	saturday = Date(2024, time.January, 6)
	sunday   = Date(2024, time.January, 7)
)

func TestIsWorkingDay(t *testing.T) {
	tests := []struct {
		policy Policy
		date   time.Time
		want   bool
	}{
		{SevenDay, saturday, true},
		{SevenDay, sunday, true},
		{SixDay, saturday, true},
		{SixDay, sunday, false},
		{SixDay, monday, true},
		{FiveDay, friday, true},
		{FiveDay, saturday, false},
		{FiveDay, sunday, false},
		{Policy(4), sunday, true},
		{Policy(0), saturday, true},
	}

	for _, tt := range tests {
		if got := tt.policy.IsWorkingDay(tt.date); got != tt.want {
			t.Errorf("%v.IsWorkingDay(%s) = %v, want %v", tt.policy, tt.date.Weekday(), got, tt.want)
		}
	}
}

func TestAddWorkingDays(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		start  time.Time
		days   int
		want   time.Time
	}{
		{"six-day skips sunday", SixDay, monday, 6, Date(2024, time.January, 8)},
		{"six-day five days lands on saturday", SixDay, monday, 5, saturday},
		{"five-day skips weekend", FiveDay, friday, 1, Date(2024, time.January, 8)},
		{"five-day backwards over weekend", FiveDay, Date(2024, time.January, 8), -1, friday},
		{"seven-day is calendar arithmetic", SevenDay, monday, 10, Date(2024, time.January, 11)},
		{"negative six-day", SixDay, Date(2024, time.January, 8), -2, Date(2024, time.January, 5)},
		{"from non-working day", FiveDay, sunday, 1, Date(2024, time.January, 8)},
		{"invalid policy counts every day", Policy(3), friday, 2, sunday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.AddWorkingDays(tt.start, tt.days)
			if !got.Equal(tt.want) {
				t.Errorf("AddWorkingDays(%s, %d) = %s, want %s",
					FormatDate(tt.start), tt.days, FormatDate(got), FormatDate(tt.want))
			}
		})
	}
}

func TestAddWorkingDays_ZeroIsIdentity(t *testing.T) {
	for _, p := range []Policy{FiveDay, SixDay, SevenDay} {
		for d := monday; d.Before(Date(2024, time.January, 15)); d = d.AddDate(0, 0, 1) {
			if got := p.AddWorkingDays(d, 0); !got.Equal(d) {
				t.Errorf("%v: AddWorkingDays(%s, 0) = %s", p, FormatDate(d), FormatDate(got))
			}
		}
	}

	// Zero offset never advances off a non-working day.
	if got := FiveDay.AddWorkingDays(sunday, 0); !got.Equal(sunday) {
		t.Errorf("expected sunday unchanged, got %s", FormatDate(got))
	}
}

func TestAddWorkingDays_RoundTrip(t *testing.T) {
	for _, p := range []Policy{FiveDay, SixDay, SevenDay} {
		for d := monday; d.Before(Date(2024, time.February, 1)); d = d.AddDate(0, 0, 1) {
			if !p.IsWorkingDay(d) {
				continue
			}
			for _, n := range []int{1, 3, 7, 20} {
				back := p.AddWorkingDays(p.AddWorkingDays(d, n), -n)
				if !back.Equal(d) {
					t.Errorf("%v: round trip of %s by %d gave %s", p, FormatDate(d), n, FormatDate(back))
				}
			}
		}
	}
}

func TestCountWorkingDays(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		start  time.Time
		end    time.Time
		want   int
	}{
		{"same working day", SixDay, monday, monday, 1},
		{"same non-working day", SixDay, sunday, sunday, 0},
		{"full six-day week", SixDay, monday, sunday, 6},
		{"full five-day week", FiveDay, monday, sunday, 5},
		{"seven-day fortnight", SevenDay, monday, Date(2024, time.January, 14), 14},
		{"reversed is negated", FiveDay, sunday, monday, -5},
		{"weekend only", FiveDay, saturday, sunday, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.CountWorkingDays(tt.start, tt.end); got != tt.want {
				t.Errorf("CountWorkingDays(%s, %s) = %d, want %d",
					FormatDate(tt.start), FormatDate(tt.end), got, tt.want)
			}
		})
	}
}

func TestCountWorkingDays_AntiSymmetric(t *testing.T) {
	dates := []time.Time{monday, friday, saturday, sunday, Date(2024, time.March, 3)}
	for _, p := range []Policy{FiveDay, SixDay, SevenDay} {
		for _, a := range dates {
			for _, b := range dates {
				if a.Equal(b) {
					continue
				}
				if ab, ba := p.CountWorkingDays(a, b), p.CountWorkingDays(b, a); ab != -ba {
					t.Errorf("%v: count(%s,%s)=%d but count(%s,%s)=%d",
						p, FormatDate(a), FormatDate(b), ab, FormatDate(b), FormatDate(a), ba)
				}
			}
		}
	}
}

func TestWorkingDaysBetween(t *testing.T) {
	if got := SixDay.WorkingDaysBetween(monday, monday); got != 0 {
		t.Errorf("expected 0 for same day, got %d", got)
	}
	if got := SixDay.WorkingDaysBetween(monday, Date(2024, time.January, 8)); got != 6 {
		t.Errorf("expected 6 working days Mon->next Mon, got %d", got)
	}
	if got := FiveDay.WorkingDaysBetween(Date(2024, time.January, 8), friday); got != -1 {
		t.Errorf("expected -1 going back over a weekend, got %d", got)
	}

	// Inverse of AddWorkingDays for working-day starts.
	for _, p := range []Policy{FiveDay, SixDay, SevenDay} {
		for _, n := range []int{-9, -1, 1, 4, 13} {
			end := p.AddWorkingDays(monday, n)
			if got := p.WorkingDaysBetween(monday, end); got != n {
				t.Errorf("%v: WorkingDaysBetween(monday, +%d) = %d", p, n, got)
			}
		}
	}
}

func TestWorkingDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	late := monday.Add(15 * time.Hour)
	if got := SevenDay.WorkingDaysBetween(late, Date(2024, time.January, 3)); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestNextAndPreviousWorkingDay(t *testing.T) {
	if got := FiveDay.NextWorkingDay(friday); !got.Equal(Date(2024, time.January, 8)) {
		t.Errorf("next after friday = %s", FormatDate(got))
	}
	if got := FiveDay.PreviousWorkingDay(Date(2024, time.January, 8)); !got.Equal(friday) {
		t.Errorf("previous before monday = %s", FormatDate(got))
	}
	if got := SixDay.NextWorkingDay(saturday); !got.Equal(Date(2024, time.January, 8)) {
		t.Errorf("next after saturday (6-day) = %s", FormatDate(got))
	}

	// Strictly after/before even when the input is a working day.
	if got := SevenDay.NextWorkingDay(monday); !got.Equal(Date(2024, time.January, 2)) {
		t.Errorf("next after monday (7-day) = %s", FormatDate(got))
	}
	if got := SevenDay.PreviousWorkingDay(monday); !got.Equal(Date(2023, time.December, 31)) {
		t.Errorf("previous before monday (7-day) = %s", FormatDate(got))
	}
}

func TestValidate(t *testing.T) {
	for _, p := range []Policy{FiveDay, SixDay, SevenDay} {
		if err := p.Validate(); err != nil {
			t.Errorf("%v: unexpected error %v", p, err)
		}
	}
	for _, p := range []Policy{0, 4, 8, -5} {
		err := p.Validate()
		if !errors.Is(err, ErrInvalidPolicy) {
			t.Errorf("policy %d: expected ErrInvalidPolicy, got %v", int(p), err)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-01-06 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(saturday) {
		t.Errorf("expected %s, got %s", FormatDate(saturday), FormatDate(d))
	}
	if _, err := ParseDate("06/01/2024"); err == nil {
		t.Error("expected error for non ISO date")
	}
}
