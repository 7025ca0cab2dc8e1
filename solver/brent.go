package solver

import (
	"fmt"
	"math"
)

// Brent combines bisection, secant and inverse quadratic interpolation.
type Brent struct {
	MaxEvaluations int
}

func (s Brent) Solve(f Func, accuracy, guess, xMin, xMax float64) (float64, error) {
	b, root, done, err := setup("Brent", f, accuracy, guess, xMin, xMax, s.MaxEvaluations)
	if err != nil || done {
		return root, err
	}
	xAcc := accuracyFloor(accuracy)

	// start from the guess, paired with the end point of opposite sign
	froot, err := f(b.root)
	if err != nil {
		return 0, err
	}
	b.evaluations++
	if closeEnough(froot, 0, 42) {
		return b.root, nil
	}
	if froot*b.fxMin < 0 {
		b.xMax, b.fxMax = b.xMin, b.fxMin
	} else {
		b.xMin, b.fxMin = b.xMax, b.fxMax
	}
	d := b.root - b.xMax
	e := d
	for b.evaluations <= b.maxEvals {
		if (froot > 0 && b.fxMax > 0) || (froot < 0 && b.fxMax < 0) {
			// Rename xMin, root, xMax so the root stays bracketed by root and xMax.
			b.xMax, b.fxMax = b.xMin, b.fxMin
			d = b.root - b.xMin
			e = d
		}
		if math.Abs(b.fxMax) < math.Abs(froot) {
			b.xMin, b.root, b.xMax = b.root, b.xMax, b.root
			b.fxMin, froot, b.fxMax = froot, b.fxMax, froot
		}
		xAcc1 := 2*eps*math.Abs(b.root) + 0.5*xAcc
		xMid := (b.xMax - b.root) / 2
		if math.Abs(xMid) <= xAcc1 || closeEnough(froot, 0, 42) {
			if _, err := f(b.root); err != nil {
				return 0, err
			}
			return b.root, nil
		}
		if math.Abs(e) >= xAcc1 && math.Abs(b.fxMin) > math.Abs(froot) {
			var p, q float64
			s := froot / b.fxMin
			if closeEnough(b.xMin, b.xMax, 42) {
				p = 2 * xMid * s
				q = 1 - s
			} else {
				q = b.fxMin / b.fxMax
				r := froot / b.fxMax
				p = s * (2*xMid*q*(q-r) - (b.root-b.xMin)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3*xMid*q - math.Abs(xAcc1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xMid
				e = d
			}
		} else {
			d = xMid
			e = d
		}
		b.xMin, b.fxMin = b.root, froot
		if math.Abs(d) > xAcc1 {
			b.root += d
		} else {
			b.root += math.Copysign(xAcc1, xMid)
		}
		if froot, err = f(b.root); err != nil {
			return 0, err
		}
		b.evaluations++
	}
	return 0, fmt.Errorf("Brent: %w (%d)", ErrMaxEvaluations, b.maxEvals)
}
