package render

import "math"

// progressThrottle passes through whole percentages divisible by ten and
// drops a step equal to the previous one.
type progressThrottle struct {
	last    int
	emitted bool
}

// step returns the percentage to report for fraction p, if any. p is
// clamped to [0,1].
func (t *progressThrottle) step(p float64) (int, bool) {
	if math.IsNaN(p) {
		return 0, false
	}
	p = math.Max(0, math.Min(1, p))

	pct := int(math.Round(p * 100))
	if pct%10 != 0 {
		return 0, false
	}
	if t.emitted && pct == t.last {
		return 0, false
	}
	t.last, t.emitted = pct, true
	return pct, true
}
