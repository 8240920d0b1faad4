// Package pricing converts table-occupancy intervals into charges.
//
// All money is integer cents. Rate math goes through shopspring/decimal so no
// floating-point drift enters a charge; callers format for display only.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidInterval is returned for negative or malformed time input. It is a
// programming error in the caller, never silently clamped away.
var ErrInvalidInterval = errors.New("invalid time interval")

// Increment is the billing rounding unit configured in venue settings.
type Increment string

const (
	IncrementMinute      Increment = "MINUTE"
	IncrementQuarterHour Increment = "QUARTER_HOUR"
	IncrementHalfHour    Increment = "HALF_HOUR"
	IncrementHour        Increment = "HOUR"
)

// Minutes returns the increment size in minutes. Unknown values fall back to
// per-minute billing, matching the default increment.
func (i Increment) Minutes() int {
	switch i {
	case IncrementMinute:
		return 1
	case IncrementQuarterHour:
		return 15
	case IncrementHalfHour:
		return 30
	case IncrementHour:
		return 60
	default:
		return 1
	}
}

// Valid reports whether i is one of the four known increments.
func (i Increment) Valid() bool {
	switch i {
	case IncrementMinute, IncrementQuarterHour, IncrementHalfHour, IncrementHour:
		return true
	}
	return false
}

// BillableMinutes returns the billable minutes for an occupancy interval with
// pausedMs of accumulated pause time. The result is clamped at zero to guard
// against clock skew or pause-accounting overflow.
func BillableMinutes(start, end time.Time, pausedMs int64) (float64, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("%w: end %s before start %s", ErrInvalidInterval, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if pausedMs < 0 {
		return 0, fmt.Errorf("%w: negative paused duration %dms", ErrInvalidInterval, pausedMs)
	}

	billableMs := end.Sub(start).Milliseconds() - pausedMs
	return math.Max(0, float64(billableMs)/60000.0), nil
}

// RoundToIncrement rounds minutes up to the next multiple of the increment.
// Ceiling, not nearest, so a partial increment is never undercharged. Zero
// stays zero: no charge is created from nothing.
func RoundToIncrement(minutes float64, inc Increment) float64 {
	if minutes <= 0 {
		return 0
	}
	step := float64(inc.Minutes())
	return math.Ceil(minutes/step) * step
}

// ComputeCharge computes the final charge in cents for a session interval.
//
// Sessions whose raw billable minutes fall inside the grace period are free.
// Otherwise the grace period is subtracted, the remainder rounded up to the
// billing increment, converted to hours at rateCents per hour, and floored at
// minimumCents.
func ComputeCharge(start, end time.Time, pausedMs, rateCents, minimumCents int64, graceMinutes int, inc Increment) (int64, error) {
	rawMinutes, err := BillableMinutes(start, end, pausedMs)
	if err != nil {
		return 0, err
	}

	if rawMinutes <= float64(graceMinutes) {
		return 0, nil
	}

	rounded := RoundToIncrement(rawMinutes-float64(graceMinutes), inc)

	charge := decimal.NewFromFloat(rounded).
		Mul(decimal.NewFromInt(rateCents)).
		Div(decimal.NewFromInt(60)).
		Round(0).
		IntPart()

	if charge < minimumCents {
		charge = minimumCents
	}
	return charge, nil
}

// ElapsedSeconds returns the running non-paused seconds of a session, frozen
// at pausedAt when the session is currently paused. Used by dashboard timers.
func ElapsedSeconds(start time.Time, pausedMs int64, pausedAt *time.Time, now time.Time) int64 {
	ref := now
	if pausedAt != nil {
		ref = *pausedAt
	}
	elapsedMs := ref.Sub(start).Milliseconds() - pausedMs
	if elapsedMs < 0 {
		return 0
	}
	return elapsedMs / 1000
}
