package codec

import "fmt"

// Rational is an exact fraction. Stream time bases are expressed as
// rationals so that timestamp conversions stay integral.
type Rational struct {
	Num int
	Den int
}

func NewRational(num int, den int) Rational {
	return Rational{Num: num, Den: den}
}

func (r Rational) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Rescale converts a tick count from one time base to another, rounding
// half away from zero.
func Rescale(ticks int64, from Rational, to Rational) int64 {
	if from.IsZero() || to.IsZero() {
		return ticks
	}

	num := ticks * int64(from.Num) * int64(to.Den)
	den := int64(from.Den) * int64(to.Num)

	if num >= 0 {
		return (num + den/2) / den
	}

	return (num - den/2) / den
}
