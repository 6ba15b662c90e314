package vm

import (
	"time"

	"lox/value"
)

// clockNative returns a native binding reporting seconds elapsed since
// startedAt, the Go rendering of a wall-clock native every example Lox
// implementation ships so scripts can benchmark themselves.
func clockNative(startedAt time.Time) value.NativeFn {
	return func(args []value.Value) value.Value {
		return value.Number(time.Since(startedAt).Seconds())
	}
}
