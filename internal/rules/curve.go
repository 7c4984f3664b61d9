package rules

import "math"

// Apply computes the velocity-curve transformation table from spec.md §4.3
// for a 0-127 input, clamping the result to [0,127].
func (c VelocityCurve) Apply(input uint8) uint8 {
	x := float64(input) / 127.0

	var out float64
	switch c.Type {
	case VelocityFixed:
		out = float64(c.Value)
	case VelocityPassThrough:
		out = 127.0 * x
	case VelocityLinear:
		out = float64(c.Min) + x*float64(c.Max-c.Min)
	case VelocityCurveType:
		switch c.Kind {
		case CurveExponential:
			out = 127.0 * math.Pow(x, 1-c.Intensity)
		case CurveLogarithmic:
			if c.Intensity <= 0 {
				out = 127.0 * x // degrades to Linear(0,127)
			} else {
				out = 127.0 * math.Log(1+c.Intensity*x) / math.Log(1+c.Intensity)
			}
		case CurveSCurve:
			out = sCurve(x, c.Intensity)
		default:
			out = x * 127.0
		}
	default:
		out = x * 127.0
	}

	return clamp127(math.Round(out))
}

// sCurve computes a logistic curve with k = 10*intensity + 0.5, normalized so
// f(0)=0 and f(1)=127, per spec.md §4.3.
func sCurve(x, intensity float64) float64 {
	k := 10*intensity + 0.5
	logistic := func(t float64) float64 {
		return 1.0 / (1.0 + math.Exp(-k*(t-0.5)))
	}
	f0 := logistic(0)
	f1 := logistic(1)
	fx := logistic(x)
	if f1 == f0 {
		return 0
	}
	return 127.0 * (fx - f0) / (f1 - f0)
}

func clamp127(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}
