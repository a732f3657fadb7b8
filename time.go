package pledge

import (
	"encoding/json"
	"time"

	"github.com/iov-one/pledge/errors"
)

// UnixMsTime represents a point in time as milliseconds since the UNIX epoch.
//
// All contract timestamps and accrual math operate on millisecond precision,
// matching the resolution of the host environment that produced the original
// ledgers. Use primitive int64 instead of time.Time so values serialize the
// same in every language.
type UnixMsTime int64

// AsUnixMsTime converts a time.Time structure into its millisecond
// representation.
func AsUnixMsTime(t time.Time) UnixMsTime {
	return UnixMsTime(t.UnixNano() / int64(time.Millisecond))
}

// Time returns a time.Time structure that represents the same moment in time.
func (t UnixMsTime) Time() time.Time {
	return time.Unix(int64(t)/1000, int64(t)%1000*int64(time.Millisecond))
}

// IsZero returns true if this time represents a zero value.
func (t UnixMsTime) IsZero() bool {
	return t == 0
}

// Unix returns the time as seconds since the UNIX epoch, truncating any
// millisecond remainder.
func (t UnixMsTime) Unix() int64 {
	return int64(t) / 1000
}

// Add modifies this time by given duration. This is compatible with the
// time.Time.Add method.
func (t UnixMsTime) Add(d time.Duration) UnixMsTime {
	return t + UnixMsTime(d/time.Millisecond)
}

// Validate returns an error if this time value is invalid.
func (t UnixMsTime) Validate() error {
	if t < 0 {
		return errors.Wrap(errors.ErrState, "negative time value")
	}
	return nil
}

// String returns the usual string representation of this time as the
// time.Time structure would.
func (t UnixMsTime) String() string {
	return t.Time().UTC().String()
}

// UnmarshalJSON supports unmarshaling both as time.Time and from a number.
// Usually a number is used as a representation of this time in JSON but it is
// convenient to use a string format in configurations (ie genesis file).
func (t *UnixMsTime) UnmarshalJSON(raw []byte) error {
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		if ms < 0 {
			return errors.Wrap(errors.ErrInput, "time before epoch")
		}
		*t = UnixMsTime(ms)
		return nil
	}

	var stdtime time.Time
	if err := json.Unmarshal(raw, &stdtime); err == nil {
		ms := AsUnixMsTime(stdtime)
		if ms < 0 {
			return errors.Wrap(errors.ErrInput, "time before epoch")
		}
		*t = ms
		return nil
	}

	return errors.Wrap(errors.ErrInput, "invalid time format")
}

// TimeSource provides the current time to all components that accrue value
// over elapsed intervals. Returned values must be monotonically non
// decreasing for the life of a process.
type TimeSource interface {
	Now() UnixMsTime
}

// SystemTime is a TimeSource using the wall clock.
type SystemTime struct{}

var _ TimeSource = SystemTime{}

func (SystemTime) Now() UnixMsTime {
	return AsUnixMsTime(time.Now())
}
