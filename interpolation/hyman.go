package interpolation

import (
	"fmt"
	"math"
)

// HymanFilter clamps knot derivatives so that the resulting cubic Hermite
// interpolant preserves the monotonicity of the data. It returns the
// filtered derivatives and, per knot, whether it was changed. Filtering an
// already filtered set returns it unchanged.
func HymanFilter(xs, ys, derivatives []float64) ([]float64, []bool, error) {
	if _, err := newPoints("HymanFilter", xs, ys, 2); err != nil {
		return nil, nil, err
	}
	if len(derivatives) != len(xs) {
		return nil, nil, fmt.Errorf("HymanFilter: %w: %d derivatives for %d points", ErrInvalidInput, len(derivatives), len(xs))
	}
	n := len(xs)
	dx := make([]float64, n-1)
	S := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		dx[i] = xs[i+1] - xs[i]
		S[i] = (ys[i+1] - ys[i]) / dx[i]
	}
	tmp := append([]float64(nil), derivatives...)
	return tmp, hyman(dx, S, tmp), nil
}

// hyman filters tmp in place.
func hyman(dx, S, tmp []float64) []bool {
	n := len(tmp)
	adjusted := make([]bool, n)
	set := func(i int, v float64) {
		if v != tmp[i] {
			tmp[i] = v
			adjusted[i] = true
		}
	}
	clamp := func(v, bound float64) float64 {
		return math.Copysign(math.Min(math.Abs(v), bound), v)
	}

	for i := 0; i < n; i++ {
		switch {
		case i == 0:
			if tmp[i]*S[0] > 0 {
				set(i, clamp(tmp[i], math.Abs(3*S[0])))
			} else {
				set(i, 0)
			}
		case i == n-1:
			if tmp[i]*S[n-2] > 0 {
				set(i, clamp(tmp[i], math.Abs(3*S[n-2])))
			} else {
				set(i, 0)
			}
		default:
			pm := (S[i-1]*dx[i] + S[i]*dx[i-1]) / (dx[i-1] + dx[i])
			M := 3 * math.Min(math.Min(math.Abs(S[i-1]), math.Abs(S[i])), math.Abs(pm))
			if i > 1 && (S[i-1]-S[i-2])*(S[i]-S[i-1]) > 0 {
				pd := (S[i-1]*(2*dx[i-1]+dx[i-2]) - S[i-2]*dx[i-1]) / (dx[i-2] + dx[i-1])
				if pm*pd > 0 && pm*(S[i-1]-S[i-2]) > 0 {
					M = math.Max(M, 1.5*math.Min(math.Abs(pm), math.Abs(pd)))
				}
			}
			if i < n-2 && (S[i]-S[i-1])*(S[i+1]-S[i]) > 0 {
				pu := (S[i]*(2*dx[i]+dx[i+1]) - S[i+1]*dx[i]) / (dx[i] + dx[i+1])
				if pm*pu > 0 && -pm*(S[i]-S[i-1]) > 0 {
					M = math.Max(M, 1.5*math.Min(math.Abs(pm), math.Abs(pu)))
				}
			}
			if tmp[i]*pm > 0 {
				set(i, clamp(tmp[i], M))
			} else {
				set(i, 0)
			}
		}
	}
	return adjusted
}
