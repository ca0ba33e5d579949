// Package conninfo captures the circumstances under which a monitored
// resource, typically a database connection, was opened: when, from which
// goroutine, and through which call stack.
package conninfo

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// ownPackage is compared against frame function names to strip this
// package's own frames from the top of captured stacks.
const ownPackage = "AppPulse/internal/conninfo"

// stackTracesDisabled switches off stack capture entirely. Fixed at build
// time, not configurable.
const stackTracesDisabled = false

// Frame identifies one call site in a captured stack.
type Frame struct {
	Function string
	File     string
	Line     int
}

// ConnectionInformations is the state of a connection at the instant it was
// opened. Immutable once built, safe to share across goroutines.
type ConnectionInformations struct {
	openingTimeMillis int64
	goroutineID       int64
	openingStackTrace []Frame
}

// New captures the current time, goroutine id and call stack. The returned
// stack starts at the first frame of caller code: the capture machinery and
// any other leading frames from this package are stripped.
func New() *ConnectionInformations {
	ci := &ConnectionInformations{
		openingTimeMillis: time.Now().UnixMilli(),
		goroutineID:       goroutineID(),
	}
	if !stackTracesDisabled {
		ci.openingStackTrace = callerFrames()
	}
	return ci
}

// OpeningDate converts the stored epoch time on each call.
func (c *ConnectionInformations) OpeningDate() time.Time {
	return time.UnixMilli(c.openingTimeMillis)
}

// GoroutineID returns the id of the goroutine that opened the connection.
func (c *ConnectionInformations) GoroutineID() int64 {
	return c.goroutineID
}

// OpeningStackTrace returns the captured stack, empty when capture is
// disabled. The returned slice is a copy.
func (c *ConnectionInformations) OpeningStackTrace() []Frame {
	if len(c.openingStackTrace) == 0 {
		return nil
	}
	out := make([]Frame, len(c.openingStackTrace))
	copy(out, c.openingStackTrace)
	return out
}

func (c *ConnectionInformations) String() string {
	return fmt.Sprintf("ConnectionInformations[openingDate=%s, goroutineID=%d]",
		c.OpeningDate().Format(time.RFC3339), c.goroutineID)
}

// callerFrames collects the call stack above New, dropping any leading
// frames that still belong to this package so the trace starts at actual
// caller code.
func callerFrames() []Frame {
	pcs := make([]uintptr, 64)
	// Skip runtime.Callers, callerFrames and New itself.
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []Frame
	skipping := true
	for {
		frame, more := frames.Next()
		if skipping && strings.HasPrefix(frame.Function, ownPackage+".") {
			if !more {
				break
			}
			continue
		}
		skipping = false
		out = append(out, Frame{Function: frame.Function, File: frame.File, Line: frame.Line})
		if !more {
			break
		}
	}
	return out
}

// goroutineID parses the current goroutine's id from the runtime stack
// header ("goroutine 123 [running]:"); the runtime exposes no direct API.
func goroutineID() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
