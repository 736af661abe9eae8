package config

import (
	"fmt"
	"time"
)

// Schedule lists, per weekday, the hours (0-23) during which trading is
// allowed. A day with an empty or missing list is a rest day. When the
// schedule itself is absent from the strategy config, trading is always
// allowed.
type Schedule struct {
	Monday    []bool `json:"monday,omitempty" yaml:"monday,omitempty"`
	Tuesday   []bool `json:"tuesday,omitempty" yaml:"tuesday,omitempty"`
	Wednesday []bool `json:"wednesday,omitempty" yaml:"wednesday,omitempty"`
	Thursday  []bool `json:"thursday,omitempty" yaml:"thursday,omitempty"`
	Friday    []bool `json:"friday,omitempty" yaml:"friday,omitempty"`
	Saturday  []bool `json:"saturday,omitempty" yaml:"saturday,omitempty"`
	Sunday    []bool `json:"sunday,omitempty" yaml:"sunday,omitempty"`
}

func (s *Schedule) day(wd time.Weekday) []bool {
	switch wd {
	case time.Monday:
		return s.Monday
	case time.Tuesday:
		return s.Tuesday
	case time.Wednesday:
		return s.Wednesday
	case time.Thursday:
		return s.Thursday
	case time.Friday:
		return s.Friday
	case time.Saturday:
		return s.Saturday
	default:
		return s.Sunday
	}
}

// Allows reports whether trading is permitted at t.
func (s *Schedule) Allows(t time.Time) bool {
	hours := s.day(t.Weekday())
	h := t.Hour()
	if h >= len(hours) {
		return false
	}
	return hours[h]
}

// RestDay reports whether the whole weekday of t is non-trading.
func (s *Schedule) RestDay(t time.Time) bool {
	for _, on := range s.day(t.Weekday()) {
		if on {
			return false
		}
	}
	return true
}

func (s *Schedule) validate() error {
	for _, d := range []struct {
		name  string
		hours []bool
	}{
		{"monday", s.Monday}, {"tuesday", s.Tuesday}, {"wednesday", s.Wednesday},
		{"thursday", s.Thursday}, {"friday", s.Friday}, {"saturday", s.Saturday},
		{"sunday", s.Sunday},
	} {
		if len(d.hours) != 0 && len(d.hours) != 24 {
			return fmt.Errorf("schedule.%s: expected 0 or 24 hours, got %d", d.name, len(d.hours))
		}
	}
	return nil
}
