package electiondomain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// MaxDuration bounds how long an election may stay open. It keeps Total well
// inside the range of time.Duration.
const MaxDuration = 10 * 365 * 24 * time.Hour

// Duration is how long an election stays open after it is opened.
type Duration struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// NewDuration validates the components. All must be non-negative and the
// total must be positive.
func NewDuration(days, hours, minutes, seconds int) (Duration, error) {
	d := Duration{Days: days, Hours: hours, Minutes: minutes, Seconds: seconds}
	if err := d.Validate(); err != nil {
		return Duration{}, err
	}
	return d, nil
}

// Validate checks the duration invariants. Each component is bounded before
// Total is computed so the sum cannot overflow.
func (d Duration) Validate() error {
	if d.Days < 0 || d.Hours < 0 || d.Minutes < 0 || d.Seconds < 0 {
		return ErrInvalidDuration
	}
	if int64(d.Days) > int64(MaxDuration/(24*time.Hour)) ||
		int64(d.Hours) > int64(MaxDuration/time.Hour) ||
		int64(d.Minutes) > int64(MaxDuration/time.Minute) ||
		int64(d.Seconds) > int64(MaxDuration/time.Second) {
		return ErrDurationTooLong
	}
	total := d.Total()
	switch {
	case total <= 0:
		return ErrInvalidDuration
	case total > MaxDuration:
		return ErrDurationTooLong
	}
	return nil
}

// Total converts the duration to a time.Duration. Only validated durations
// are guaranteed not to overflow.
func (d Duration) Total() time.Duration {
	return time.Duration(d.Days)*24*time.Hour +
		time.Duration(d.Hours)*time.Hour +
		time.Duration(d.Minutes)*time.Minute +
		time.Duration(d.Seconds)*time.Second
}

// String renders the compact form, e.g. "1d2h30m".
func (d Duration) String() string {
	var sb strings.Builder
	for _, part := range []struct {
		n    int
		unit string
	}{{d.Days, "d"}, {d.Hours, "h"}, {d.Minutes, "m"}, {d.Seconds, "s"}} {
		if part.n > 0 {
			fmt.Fprintf(&sb, "%d%s", part.n, part.unit)
		}
	}
	if sb.Len() == 0 {
		return "0s"
	}
	return sb.String()
}

// DurationFrom splits a time.Duration into components, dropping sub-second
// precision.
func DurationFrom(total time.Duration) Duration {
	secs := int(total / time.Second)
	return Duration{
		Days:    secs / 86400,
		Hours:   secs % 86400 / 3600,
		Minutes: secs % 3600 / 60,
		Seconds: secs % 60,
	}
}

var compactDuration = regexp.MustCompile(`^(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// ParseDuration accepts either the compact form ("1d", "2h30m", "1d12h") or a
// natural-language deadline ("in 3 days", "next friday at 6pm") that is
// converted to the span between now and the deadline.
func ParseDuration(input string, now time.Time) (Duration, error) {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return Duration{}, ErrInvalidDuration
	}

	compact := strings.ReplaceAll(text, " ", "")
	if m := compactDuration.FindStringSubmatch(compact); m != nil && compact != "" {
		var parts [4]int
		for i, group := range m[1:] {
			if group == "" {
				continue
			}
			n, err := strconv.Atoi(group)
			if err != nil {
				return Duration{}, ErrInvalidDuration
			}
			parts[i] = n
		}
		return NewDuration(parts[0], parts[1], parts[2], parts[3])
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(text, now)
	if err != nil || r == nil {
		return Duration{}, ErrInvalidDuration
	}
	d := DurationFrom(r.Time.Sub(now))
	if err := d.Validate(); err != nil {
		return Duration{}, err
	}
	return d, nil
}

// Normalized returns the duration with components carried into larger units.
func (d Duration) Normalized() Duration {
	return DurationFrom(d.Total())
}
