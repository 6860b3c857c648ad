// Package validation provides validation functions for the admin interface
// settings. Host lists are delegated to the hostlist package; this package
// attributes failures to the setting they came from.
package validation

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/bcnelson/winterface/internal/hostlist"
)

// MaxPort is the highest TCP port number.
const MaxPort = 65535

// ValidateHostList parses a comma-separated host list for the named setting.
// The returned error wraps the hostlist.InvalidHostError for the first bad
// entry.
func ValidateHostList(field, csv string) (*hostlist.HostList, error) {
	l, err := hostlist.Parse(csv)
	if err != nil {
		ve := &ValidationError{Field: field, Message: "host list contains an invalid entry", Err: err}
		var ihe *hostlist.InvalidHostError
		if errors.As(err, &ihe) {
			ve.Value = ihe.Entry
			ve.Message = ihe.Reason
		}
		return nil, ve
	}
	return l, nil
}

// ValidatePort checks that port is a usable TCP port.
func ValidatePort(field string, port int) error {
	if port < 1 || port > MaxPort {
		return NewValidationError(field, strconv.Itoa(port), "port must be between 1 and 65535")
	}
	return nil
}

// ValidateDuration checks that d is not negative.
func ValidateDuration(field string, d time.Duration) error {
	if d < 0 {
		return NewValidationError(field, d.String(), "must not be negative")
	}
	return nil
}

// ValidateSize checks that a byte count is not negative.
func ValidateSize(field string, n int64) error {
	if n < 0 {
		return NewValidationError(field, strconv.FormatInt(n, 10), "must not be negative")
	}
	return nil
}

// ParseInt parses a decimal setting value.
func ParseInt(field, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: value, Message: "must be an integer", Err: err}
	}
	return n, nil
}

// ParseInt64 parses a decimal setting value into an int64.
func ParseInt64(field, value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: value, Message: "must be an integer", Err: err}
	}
	return n, nil
}

// maxMillis is the largest millisecond count a time.Duration can hold.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// ParseMillis parses a non-negative millisecond count into a duration.
// Values a time.Duration cannot represent are rejected rather than wrapped.
func ParseMillis(field, value string) (time.Duration, error) {
	ms, err := ParseInt64(field, value)
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		return 0, NewValidationError(field, value, "must not be negative")
	}
	if ms > maxMillis {
		return 0, NewValidationError(field, value, "duration out of range")
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// ParseBool parses a boolean setting value.
func ParseBool(field, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, &ValidationError{Field: field, Value: value, Message: "must be true or false", Err: err}
	}
	return b, nil
}
