package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

func TestBillableMinutes(t *testing.T) {
	m, err := BillableMinutes(base, base.Add(37*time.Minute), 0)
	assert.NoError(t, err)
	assert.Equal(t, 37.0, m)

	// paused time is subtracted
	m, err = BillableMinutes(base, base.Add(60*time.Minute), 10*60*1000)
	assert.NoError(t, err)
	assert.Equal(t, 50.0, m)

	// clamped at zero when pause accounting exceeds wall time
	m, err = BillableMinutes(base, base.Add(5*time.Minute), 10*60*1000)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, m)
}

func TestBillableMinutesInvalidInterval(t *testing.T) {
	_, err := BillableMinutes(base, base.Add(-time.Minute), 0)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = BillableMinutes(base, base.Add(time.Minute), -1)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestRoundToIncrement(t *testing.T) {
	assert.Equal(t, 37.0, RoundToIncrement(36.2, IncrementMinute))
	assert.Equal(t, 45.0, RoundToIncrement(31.0, IncrementQuarterHour))
	assert.Equal(t, 60.0, RoundToIncrement(50.0, IncrementHalfHour))
	assert.Equal(t, 120.0, RoundToIncrement(61.0, IncrementHour))

	// exact multiples stay put
	assert.Equal(t, 30.0, RoundToIncrement(30.0, IncrementHalfHour))

	// zero rounds to zero regardless of increment
	assert.Equal(t, 0.0, RoundToIncrement(0, IncrementHour))
}

func TestRoundToIncrementIdempotent(t *testing.T) {
	for _, inc := range []Increment{IncrementMinute, IncrementQuarterHour, IncrementHalfHour, IncrementHour} {
		for _, m := range []float64{0, 0.5, 3, 14.9, 15, 29.01, 37, 59.999, 60, 61} {
			once := RoundToIncrement(m, inc)
			assert.Equal(t, once, RoundToIncrement(once, inc), "increment %s minutes %v", inc, m)
		}
	}
}

// 37 unpaused minutes at $15/hr, per-minute billing: ceil(37)/60*15 = $9.25.
func TestComputeChargePerMinute(t *testing.T) {
	charge, err := ComputeCharge(base, base.Add(37*time.Minute), 0, 1500, 500, 0, IncrementMinute)
	assert.NoError(t, err)
	assert.Equal(t, int64(925), charge)
}

// 3 minutes at $15/hr computes $0.75 but floors up to the $5 minimum.
func TestComputeChargeMinimum(t *testing.T) {
	charge, err := ComputeCharge(base, base.Add(3*time.Minute), 0, 1500, 500, 0, IncrementMinute)
	assert.NoError(t, err)
	assert.Equal(t, int64(500), charge)
}

// 4m50s inside a 5-minute grace period is free, regardless of rate.
func TestComputeChargeGracePeriod(t *testing.T) {
	charge, err := ComputeCharge(base, base.Add(4*time.Minute+50*time.Second), 0, 1500, 500, 5, IncrementMinute)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), charge)

	charge, err = ComputeCharge(base, base.Add(4*time.Minute+50*time.Second), 0, 99900, 500, 5, IncrementMinute)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), charge)
}

// 60-minute span with 10 minutes paused at $10/hr, half-hour increments:
// 50 billable minutes round up to 60 => $10.00.
func TestComputeChargePausedHalfHour(t *testing.T) {
	charge, err := ComputeCharge(base, base.Add(60*time.Minute), 10*60*1000, 1000, 0, 0, IncrementHalfHour)
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), charge)
}

func TestComputeChargeMonotonic(t *testing.T) {
	var prev int64
	for mins := 1; mins <= 240; mins++ {
		charge, err := ComputeCharge(base, base.Add(time.Duration(mins)*time.Minute), 0, 1500, 500, 5, IncrementQuarterHour)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, charge, prev, "charge decreased at %d minutes", mins)
		prev = charge
	}
}

func TestComputeChargeAboveGraceRespectsMinimum(t *testing.T) {
	for mins := 6; mins <= 120; mins += 7 {
		charge, err := ComputeCharge(base, base.Add(time.Duration(mins)*time.Minute), 0, 1500, 500, 5, IncrementMinute)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, charge, int64(500))
	}
}

func TestComputeChargeInvalidInterval(t *testing.T) {
	_, err := ComputeCharge(base, base.Add(-time.Hour), 0, 1500, 500, 0, IncrementMinute)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestElapsedSeconds(t *testing.T) {
	now := base.Add(30 * time.Minute)
	assert.Equal(t, int64(1800), ElapsedSeconds(base, 0, nil, now))

	// frozen at pausedAt while paused
	pausedAt := base.Add(10 * time.Minute)
	assert.Equal(t, int64(600), ElapsedSeconds(base, 0, &pausedAt, now))

	// subtracts prior pause time
	assert.Equal(t, int64(1500), ElapsedSeconds(base, 5*60*1000, nil, now))

	assert.Equal(t, int64(0), ElapsedSeconds(base, 60*60*1000, nil, now))
}
