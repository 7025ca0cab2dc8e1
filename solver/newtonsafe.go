package solver

import (
	"fmt"
	"math"
)

// NewtonSafe is a safeguarded Newton method whose derivative is a finite
// difference of the last two iterates. It bisects whenever the Newton step
// would leave the bracket or not shrink it fast enough.
type NewtonSafe struct {
	MaxEvaluations int
}

func (s NewtonSafe) Solve(f Func, accuracy, guess, xMin, xMax float64) (float64, error) {
	b, root, done, err := setup("NewtonSafe", f, accuracy, guess, xMin, xMax, s.MaxEvaluations)
	if err != nil || done {
		return root, err
	}
	xAcc := accuracyFloor(accuracy)

	// orient the search so that f(xl) < 0
	xl, xh := b.xMin, b.xMax
	if b.fxMin >= 0 {
		xl, xh = b.xMax, b.xMin
	}

	froot, err := f(b.root)
	if err != nil {
		return 0, err
	}
	b.evaluations++

	var dfroot float64
	if b.xMax-b.root < b.root-b.xMin {
		dfroot = (b.fxMax - froot) / (b.xMax - b.root)
	} else {
		dfroot = (b.fxMin - froot) / (b.xMin - b.root)
	}

	dx := b.xMax - b.xMin
	for b.evaluations <= b.maxEvals {
		frootOld, rootOld, dxOld := froot, b.root, dx

		outOfRange := ((b.root-xh)*dfroot-froot)*((b.root-xl)*dfroot-froot) > 0
		if outOfRange || math.Abs(2*froot) > math.Abs(dxOld*dfroot) {
			dx = (xh - xl) / 2
			b.root = xl + dx
			// slope from the far end when bisection barely moved the root
			if closeEnough(b.root, rootOld, 2500) {
				rootOld = xh
				if frootOld, err = f(xh); err != nil {
					return 0, err
				}
			}
		} else {
			dx = froot / dfroot
			b.root -= dx
		}

		if math.Abs(dx) < xAcc {
			return b.root, nil
		}

		if froot, err = f(b.root); err != nil {
			return 0, err
		}
		b.evaluations++
		dfroot = (frootOld - froot) / (rootOld - b.root)
		if froot < 0 {
			xl = b.root
		} else {
			xh = b.root
		}
	}
	return 0, fmt.Errorf("NewtonSafe: %w (%d)", ErrMaxEvaluations, b.maxEvals)
}
