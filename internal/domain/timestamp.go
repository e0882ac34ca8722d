package domain

import (
	"fmt"
	"regexp"
	"sync"
	"time"
)

// timestampLayout is the canonical manifest timestamp format:
// UTC, microsecond precision, fixed width so lexical order equals
// chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Now yields the current timestamp as a canonical string. Mutations
// take one so tests can inject deterministic clocks.
type Now func() string

// timestampPattern accepts a UTC instant at day, minute, second or
// fractional-second resolution.
var timestampPattern = regexp.MustCompile(
	`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}(:\d{2}(\.\d{1,6})?)?Z)?$`,
)

var dateOnlyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var utcClock = struct {
	sync.Mutex
	last time.Time
}{}

// UTCNow returns the current UTC instant in the canonical format.
// Successive calls never return the same value: readings within the
// same microsecond are bumped forward so timestamp-keyed inserts do
// not collide inside one process. The unique index on the change log
// remains the cross-process backstop.
func UTCNow() string {
	utcClock.Lock()
	defer utcClock.Unlock()
	t := time.Now().UTC()
	if !t.After(utcClock.last) {
		t = utcClock.last.Add(time.Microsecond)
	}
	utcClock.last = t
	return t.Format(timestampLayout)
}

// TargetTimestamp validates a caller-supplied instant and normalises
// date-only values to end-of-day, so "2018-09-17" addresses everything
// registered during that day.
func TargetTimestamp(timestamp string) (string, error) {
	if !timestampPattern.MatchString(timestamp) {
		return "", fmt.Errorf(
			"%w: %q must match pattern %s",
			ErrInvalidTimestamp, timestamp, timestampPattern.String(),
		)
	}
	if dateOnlyPattern.MatchString(timestamp) {
		return timestamp + "T23:59:59.999999Z", nil
	}
	return timestamp, nil
}
