// Package timeofday provides a timezone-independent wall-clock value and
// wrap-aware ranges over the 24h clock.
package timeofday

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SecondsPerDay is the length of the clock face.
const SecondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall-clock instant expressed as seconds since midnight, in [0, SecondsPerDay).
type TimeOfDay int

// New builds a TimeOfDay, normalizing out-of-range components onto the clock.
func New(hour, minute, second int) TimeOfDay {
	return normalize(hour*3600 + minute*60 + second)
}

// Of returns the wall-clock part of t in t's own location.
func Of(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return New(h, m, s)
}

// Parse accepts "HH:MM:SS" or "HH:MM".
func Parse(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM:SS", s)
	}

	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		values[i] = v
	}

	return New(values[0], values[1], values[2]), nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

// String formats as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// Forward returns the seconds needed to walk forward on the clock from `from` to `to`.
func Forward(from, to TimeOfDay) int {
	return normalize(int(to) - int(from)).Seconds()
}

// Distance is the shortest way around the clock between a and b, in seconds.
func Distance(a, b TimeOfDay) int {
	d := Forward(a, b)
	if back := SecondsPerDay - d; back < d {
		return back
	}
	return d
}

// Seconds returns t as seconds since midnight.
func (t TimeOfDay) Seconds() int {
	return int(t)
}

// Add shifts t by sec seconds around the clock face.
func (t TimeOfDay) Add(sec int) TimeOfDay {
	return normalize(int(t) + sec)
}

func normalize(sec int) TimeOfDay {
	sec %= SecondsPerDay
	if sec < 0 {
		sec += SecondsPerDay
	}
	return TimeOfDay(sec)
}
