package timerange

import (
	"fmt"
	"regexp"

	"github.com/forPelevin/ytclip/internal/types"
)

// HH:MM:SS with exactly two hour digits and minutes/seconds in [00,59].
var reClock = regexp.MustCompile(`^(\d{2}):([0-5]\d):([0-5]\d)$`)

type Reason string

const (
	ReasonBadFormat     Reason = "bad format"
	ReasonNonIncreasing Reason = "non-increasing range"
)

// ValidationError is returned for any input Validate rejects.
type ValidationError struct {
	Reason Reason
	Start  string
	End    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s (start=%q end=%q)", e.Reason, e.Start, e.End)
}

// UserMessage is the text shown to whoever submitted the request.
func (e *ValidationError) UserMessage() string {
	if e.Reason == ReasonNonIncreasing {
		return "End time must be after Start time"
	}
	return "Invalid format. Use HH:MM:SS"
}

// Validate checks both clock strings and returns them as seconds.
// It never panics; every rejection is a *ValidationError.
func Validate(start, end string) (types.TimeRange, error) {
	s, okS := Seconds(start)
	e, okE := Seconds(end)
	if !okS || !okE {
		return types.TimeRange{}, &ValidationError{Reason: ReasonBadFormat, Start: start, End: end}
	}
	if s >= e {
		return types.TimeRange{}, &ValidationError{Reason: ReasonNonIncreasing, Start: start, End: end}
	}
	return types.TimeRange{StartSeconds: s, EndSeconds: e}, nil
}

// Seconds converts a HH:MM:SS string to H*3600+M*60+S.
func Seconds(clock string) (int, bool) {
	m := reClock.FindStringSubmatch(clock)
	if m == nil {
		return 0, false
	}
	return atoi2(m[1])*3600 + atoi2(m[2])*60 + atoi2(m[3]), true
}

// atoi2 parses exactly two ASCII digits already checked by reClock.
func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}

// Clock formats seconds back to HH:MM:SS.
func Clock(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}
