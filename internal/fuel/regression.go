package fuel

// fitLine performs ordinary least squares on (x, y) and returns slope and intercept.
// With fewer than two points, or all x equal, the slope is zero and the intercept is the mean of y.
func fitLine(x, y []float64) (slope, intercept float64) {
	if len(x) != len(y) || len(x) == 0 {
		return 0, 0
	}

	meanX := mean(x)
	meanY := mean(y)
	if len(x) < 2 {
		return 0, meanY
	}

	var sumXY, sumX2 float64
	for i := range x {
		dx := x[i] - meanX
		sumXY += dx * (y[i] - meanY)
		sumX2 += dx * dx
	}

	if sumX2 == 0 {
		return 0, meanY
	}

	slope = sumXY / sumX2
	intercept = meanY - slope*meanX
	return slope, intercept
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
