package credit

import (
	"math"
	"testing"

	fuzz "github.com/google/gofuzz"

	"github.com/iov-one/pledge"
	"github.com/iov-one/pledge/errors"
	"github.com/iov-one/pledge/pledgetest/assert"
)

const dayMs = 86_400_000

func TestInterest(t *testing.T) {
	cases := map[string]struct {
		amount uint64
		rate   uint32
		now    pledge.UnixMsTime
		since  pledge.UnixMsTime
		want   uint64
	}{
		"one year at ten percent": {
			amount: 1_000_000_000_000,
			rate:   10,
			now:    dayMs + 365*dayMs,
			since:  dayMs,
			want:   105_155_781_613,
		},
		"thirty days at ten percent": {
			amount: 1_000_000_000_000,
			rate:   10,
			now:    dayMs + 30*dayMs,
			since:  dayMs,
			want:   8_251_913_257,
		},
		"half a year at ten percent": {
			amount: 1_000_000_000_000,
			rate:   10,
			now:    dayMs + 182*dayMs,
			since:  dayMs,
			want:   51_119_918_056,
		},
		"one year at seven percent": {
			amount: 1_000_000_000_000,
			rate:   7,
			now:    dayMs + 365*dayMs,
			since:  dayMs,
			want:   72_505_096_314,
		},
		"one second at seven percent": {
			amount: 1_000_000_000_000,
			rate:   7,
			now:    dayMs + 1000,
			since:  dayMs,
			want:   191_791_331,
		},
		"one second at seven percent, doubled principal": {
			amount: 2_000_000_000_000,
			rate:   7,
			now:    dayMs + 1000,
			since:  dayMs,
			want:   383_582_662,
		},
		"zero rate accrues nothing": {
			amount: 1_000_000_000_000,
			rate:   0,
			now:    365 * dayMs,
			since:  0,
			want:   0,
		},
		"no time passed": {
			amount: 1_000_000_000_000,
			rate:   10,
			now:    dayMs,
			since:  dayMs,
			want:   0,
		},
		"zero amount": {
			amount: 0,
			rate:   10,
			now:    365 * dayMs,
			since:  0,
			want:   0,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Interest(tc.amount, tc.rate, tc.now, tc.since)
			assert.Nil(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestInterestClockRegression(t *testing.T) {
	_, err := Interest(1000, 10, 5, 10)
	assert.IsErr(t, errors.ErrInput, err)
}

func TestInterestRateOutOfRange(t *testing.T) {
	_, err := Interest(1000, rateBase+1, dayMs, 0)
	assert.IsErr(t, errors.ErrInput, err)
}

func TestInterestOverflow(t *testing.T) {
	// the maximal principal at the maximal rate blows past uint64 within
	// a few compounding days
	_, err := Interest(math.MaxUint64, rateBase, 40*dayMs, 0)
	assert.IsErr(t, errors.ErrOverflow, err)
}

func TestInterestProperties(t *testing.T) {
	var seed struct {
		Amount uint64
		Rate   uint32
		Days   uint64
	}
	f := fuzz.New()
	for i := 0; i < 1000; i++ {
		f.Fuzz(&seed)
		amount := seed.Amount%1_000_000_000_000 + 1
		rate := seed.Rate%100 + 1
		days := seed.Days % 1000
		now := pledge.UnixMsTime(days * dayMs)

		a, err := Interest(amount, rate, now, 0)
		assert.Nil(t, err)
		b, err := Interest(amount, rate, now, 0)
		assert.Nil(t, err)
		// same inputs must give the same result
		assert.Equal(t, a, b)

		longer, err := Interest(amount, rate, now+dayMs, 0)
		assert.Nil(t, err)
		if longer < a {
			t.Fatalf("interest decreased with time: amount=%d rate=%d days=%d: %d -> %d",
				amount, rate, days, a, longer)
		}
	}
}

func TestSimpleInterest(t *testing.T) {
	cases := map[string]struct {
		principal uint64
		rate      uint32
		elapsed   uint64
		want      uint64
	}{
		"one year at ten percent": {1_000_000_000_000, 10, 31_536_000, 100_000_000_000},
		"one second at ten percent": {1_000_000_000_000, 10, 1, 3_170},
		"zero rate":                 {1_000_000_000_000, 0, 31_536_000, 0},
		"zero elapsed":              {1_000_000_000_000, 10, 0, 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := SimpleInterest(tc.principal, tc.rate, tc.elapsed)
			assert.Nil(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSimpleInterestOverflow(t *testing.T) {
	_, err := SimpleInterest(math.MaxUint64, 100, 10*31_536_000)
	assert.IsErr(t, errors.ErrOverflow, err)
}

func TestDurationInDays(t *testing.T) {
	cases := map[string]struct {
		now   pledge.UnixMsTime
		since pledge.UnixMsTime
		want  uint64
	}{
		"exactly one day":             {86_400_000, 0, 1},
		"exactly two days":            {259_200_000, 86_400_000, 2},
		"one second into the next":    {86_401_000, 86_400_000, 1},
		"three hundred days less one": {300 * dayMs, dayMs, 299},
		"no time passed":              {dayMs, dayMs, 0},
		"half a day":                  {dayMs + dayMs/2, dayMs, 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := DurationInDays(tc.now, tc.since)
			assert.Nil(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDurationInDaysClockRegression(t *testing.T) {
	_, err := DurationInDays(5, 10)
	assert.IsErr(t, errors.ErrInput, err)
}

func TestDurationInDaysOverflow(t *testing.T) {
	_, err := DurationInDays(math.MaxInt64, 0)
	assert.IsErr(t, errors.ErrOverflow, err)
}
