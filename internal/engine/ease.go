package engine

// easeInOutQuad maps normalized progress to an eased value, quadratic
// on both halves. Continuous and monotonic on [0,1] with fixed points
// at 0, 0.5 and 1.
func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	t = t*2 - 1
	return -0.5 * (t*(t-2) - 1)
}
