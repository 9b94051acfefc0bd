package eligibility

import (
	"strings"
	"time"

	"github.com/attendr/attendr-api/internal/models"
)

// Reason identifies why a check-in attempt was rejected.
type Reason string

const (
	ReasonOutOfWindow      Reason = "OUT_OF_WINDOW"
	ReasonLocationMismatch Reason = "LOCATION_MISMATCH"
)

// Verdict is the outcome of evaluating a check-in attempt.
type Verdict struct {
	Eligible bool
	Reason   Reason
}

// Accepted is the verdict for an eligible attempt.
var Accepted = Verdict{Eligible: true}

// Rejected builds a verdict carrying a rejection reason.
func Rejected(reason Reason) Verdict {
	return Verdict{Reason: reason}
}

// WindowMode selects how a course window is compared against a timestamp.
type WindowMode string

const (
	// WindowModeAbsolute compares full timestamps: start <= at <= end.
	WindowModeAbsolute WindowMode = "absolute"
	// WindowModeWeekly ignores the calendar date and matches only the
	// weekday plus minute-of-day, so the window recurs every week.
	WindowModeWeekly WindowMode = "weekly"
)

// ParseWindowMode maps a configuration string to a WindowMode, defaulting to
// absolute comparison for unrecognised values.
func ParseWindowMode(raw string) WindowMode {
	if WindowMode(strings.ToLower(raw)) == WindowModeWeekly {
		return WindowModeWeekly
	}
	return WindowModeAbsolute
}

// Attempt is a transient check-in candidate. It exists only for the duration
// of an evaluation and is never persisted.
type Attempt struct {
	StudentID       string
	CourseID        string
	ClaimedLocation string
	At              time.Time
}

// Evaluator decides whether a check-in attempt is valid for a course. It is
// pure: no side effects, deterministic given its inputs.
type Evaluator struct {
	mode WindowMode
}

// NewEvaluator constructs an evaluator for the given window mode.
func NewEvaluator(mode WindowMode) *Evaluator {
	if mode != WindowModeWeekly {
		mode = WindowModeAbsolute
	}
	return &Evaluator{mode: mode}
}

// Mode returns the evaluator's window mode.
func (e *Evaluator) Mode() WindowMode {
	return e.mode
}

// Evaluate runs the eligibility checks in order, short-circuiting on the
// first failure: time containment, then location match.
func (e *Evaluator) Evaluate(course models.Course, attempt Attempt) Verdict {
	at := attempt.At
	if at.IsZero() {
		at = time.Now()
	}
	if !e.WindowContains(course, at) {
		return Rejected(ReasonOutOfWindow)
	}
	if !LocationMatches(course.Location, attempt.ClaimedLocation) {
		return Rejected(ReasonLocationMismatch)
	}
	return Accepted
}

// WindowContains reports whether the timestamp falls inside the course's
// check-in window. Both bounds are inclusive. A course with a missing start
// or end time has no window and never contains anything.
func (e *Evaluator) WindowContains(course models.Course, at time.Time) bool {
	if course.StartTime == nil || course.EndTime == nil {
		return false
	}
	start := *course.StartTime
	end := *course.EndTime

	if e.mode == WindowModeWeekly {
		if at.Weekday() != start.Weekday() {
			return false
		}
		minute := minuteOfDay(at)
		return minute >= minuteOfDay(start) && minute <= minuteOfDay(end)
	}

	return !at.Before(start) && !at.After(end)
}

// LocationMatches compares the claimed location against the required one
// using case-insensitive exact equality. An empty claim never matches.
func LocationMatches(required, claimed string) bool {
	if claimed == "" {
		return false
	}
	return strings.EqualFold(required, claimed)
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
