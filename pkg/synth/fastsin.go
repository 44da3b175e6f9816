package synth

import "math"

const halfPi = math.Pi / 2

// fastSin evaluates sin(2*pi*phase) for phase in any real range by folding
// into the first quadrant and applying a 4-term odd minimax polynomial
// (terms in x, x^3, x^5 and x^7; there is no x^9 term), trading a handful of ULPs of accuracy for a
// branch-light evaluation cheap enough for a per-sample oscillator.
func fastSin(phase float64) float32 {
	p := phase - math.Floor(phase)
	q := int(p * 4)
	t := p*4 - float64(q)
	switch q & 3 {
	case 0:
		return fastQSin(t * halfPi)
	case 1:
		return fastQSin((1 - t) * halfPi)
	case 2:
		return -fastQSin(t * halfPi)
	default:
		return -fastQSin((1 - t) * halfPi)
	}
}

// fastCos evaluates cos(2*pi*phase) via the quarter-period identity
// cos(2*pi*p) = sin(2*pi*(p+0.25)).
func fastCos(phase float64) float32 {
	return fastSin(phase + 0.25)
}

// fastQSin is the degree-7 (4-term, 5 multiply) minimax polynomial for sin(x),
// valid for x in [0, pi/2].
func fastQSin(x float64) float32 {
	const (
		a = -0.00018603054211531987
		b = 0.008316106083806889
		c = -0.1666587129389504
		d = 0.9999991392712565
	)
	x2 := x * x
	return float32(x * (x2*(x2*(a*x2+b)+c) + d))
}
