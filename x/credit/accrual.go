package credit

import (
	"math"
	"math/big"

	"github.com/iov-one/pledge"
	"github.com/iov-one/pledge/errors"
)

const (
	secondsPerDay = 86_400

	// rateBase scales whole percent yearly rates, 365 days times 100.
	rateBase = 36_500

	// simpleRateBase is seconds per year times the percent scale, the
	// denominator of the linear estimate.
	simpleRateBase = 3_153_600_000
)

// Interest returns the interest accrued on amount between since and now.
//
// The rate is a whole percent per year. Elapsed time is quantized to whole
// days, any partial day counting as a full one. The result approximates
// amount*((1+rate/36500)^days - 1) with a truncated eight term binomial
// series evaluated in integer arithmetic. The term order and every
// truncating division are fixed, results must stay bit compatible with
// ledgers produced by earlier deployments.
func Interest(amount uint64, rate uint32, now, since pledge.UnixMsTime) (uint64, error) {
	if now < since {
		return 0, errors.Wrap(errors.ErrInput, "time runs backwards")
	}
	if rate == 0 || amount == 0 {
		return 0, nil
	}
	q := uint64(rateBase) / uint64(rate)
	if q == 0 {
		return 0, errors.Wrapf(errors.ErrInput, "rate out of range: %d", rate)
	}
	secs := uint64(now-since) / 1000
	days := secs / secondsPerDay
	if secs-days*days > 0 {
		days++
	}

	var (
		sum  = big.NewInt(0)
		n    = big.NewInt(1)
		b    = big.NewInt(1)
		qPow = big.NewInt(1)
		am   = new(big.Int).SetUint64(amount)
		qInt = new(big.Int).SetUint64(q)
		term = new(big.Int)
	)
	for x := uint64(0); x < 8; x++ {
		term.Mul(am, n)
		term.Quo(term, b)
		term.Quo(term, qPow)
		sum.Add(sum, term)
		if days < x {
			break
		}
		n.Mul(n, new(big.Int).SetUint64(days-x))
		b.Mul(b, big.NewInt(int64(x)+1))
		qPow.Mul(qPow, qInt)
	}
	sum.Sub(sum, am)
	if !sum.IsUint64() {
		return 0, errors.Wrap(errors.ErrOverflow, "interest")
	}
	return sum.Uint64(), nil
}

// SimpleInterest returns a linear, non compounding estimate of the
// interest accrued on principal over the given number of elapsed seconds.
func SimpleInterest(principal uint64, rate uint32, elapsedSeconds uint64) (uint64, error) {
	v := new(big.Int).SetUint64(principal)
	v.Mul(v, new(big.Int).SetUint64(uint64(rate)))
	v.Mul(v, new(big.Int).SetUint64(elapsedSeconds))
	v.Quo(v, big.NewInt(simpleRateBase))
	if !v.IsUint64() {
		return 0, errors.Wrap(errors.ErrOverflow, "interest")
	}
	return v.Uint64(), nil
}

// DurationInDays returns the number of rent days covering the time between
// since and now. The seconds to days quotient is rounded half up at three
// decimal digits before truncating, then any remaining partial day counts
// as a full one. Both rounding stages are required so a renter is never
// charged one day short.
func DurationInDays(now, since pledge.UnixMsTime) (uint64, error) {
	if now < since {
		return 0, errors.Wrap(errors.ErrInput, "time runs backwards")
	}
	secs := uint64(now-since) / 1000
	if secs > math.MaxUint64/10_000 {
		return 0, errors.Wrap(errors.ErrOverflow, "duration")
	}
	days := (secs*10_000/secondsPerDay + 5) / 10 / 1000
	switch {
	case secs > 0 && days == 0:
		days = 1
	case secs > days*secondsPerDay:
		days++
	}
	return days, nil
}
