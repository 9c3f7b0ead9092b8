// Package logging provides standardized logging utilities for the telemetry SDK.
// This file defines error-logging convenience wrappers.
package logging

import "fmt"

// LogError logs an error at error level with an optional set of key/value
// pairs appended as fields. fields must come in (key, value) pairs with
// string keys; an odd trailing entry or a pair with a non-string key is
// ignored.
func LogError(err error, msg string, fields ...interface{}) {
	logWithFields(Error(), err, msg, fields)
}

// LogWarn logs an error at warn level, used for conditions that are handled
// (a bad config string, a policy refusal) rather than fatal to the caller.
func LogWarn(err error, msg string, fields ...interface{}) {
	logWithFields(Warn(), err, msg, fields)
}

// WrapAndLog wraps err with msg, logs it at error level, and returns the
// wrapped error so callers can `return logging.WrapAndLog(err, "...")`.
func WrapAndLog(err error, msg string) error {
	wrapped := fmt.Errorf("%s: %w", msg, err)
	Error().Err(wrapped).Msg(msg)
	return wrapped
}

func logWithFields(e Event, err error, msg string, fields []interface{}) {
	e = e.Err(err)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, fields[i+1])
	}
	e.Msg(msg)
}
