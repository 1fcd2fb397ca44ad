package windgl

import "math"

// MaxTimeFraction is the largest time fraction Draw uses. Values up to
// 1 are clamped to it so the frame index never reaches the pair count.
const MaxTimeFraction = 0.99999

// SelectFrame maps a time fraction onto a frame pair of n and the
// blend factor between the pair's two timesteps. NaN is treated as 0.
func SelectFrame(timeFraction float64, n int) (index int, blend float64) {
	t := timeFraction
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	t = math.Min(t, MaxTimeFraction)
	dt := t * float64(n)
	index = int(math.Floor(dt))
	return index, dt - float64(index)
}
