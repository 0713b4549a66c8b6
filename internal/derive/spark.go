package derive

import "twquant/internal/backend"

// ChartStats summarizes a recommendation's short chart series for the
// header badge: window change percent and close range.
type ChartStats struct {
	ChangePct float64 `json:"change_pct"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Up        bool    `json:"up"`
}

// ChartSeriesStats computes header stats over a chart series. ok is false
// when the series has fewer than two points or a zero first close.
func ChartSeriesStats(points []backend.ChartPoint) (ChartStats, bool) {
	if len(points) < 2 {
		return ChartStats{}, false
	}
	start := points[0].Close
	if start == 0 {
		return ChartStats{}, false
	}
	st := ChartStats{Min: points[0].Close, Max: points[0].Close}
	for _, p := range points[1:] {
		if p.Close < st.Min {
			st.Min = p.Close
		}
		if p.Close > st.Max {
			st.Max = p.Close
		}
	}
	end := points[len(points)-1].Close
	st.ChangePct = (end - start) / start * 100
	st.Up = st.ChangePct >= 0
	return st, true
}

// SparkWindowStats fills in spark statistics when the backend omitted its
// own spark_stats block: window change percent, close range, and the
// least-squares trend slope in percent per day.
func SparkWindowStats(points []backend.SparkPoint) *backend.SparkStats {
	if len(points) == 0 {
		return nil
	}

	st := &backend.SparkStats{}
	min, max := points[0].Close, points[0].Close
	var pcts []float64
	for _, p := range points {
		if p.Close < min {
			min = p.Close
		}
		if p.Close > max {
			max = p.Close
		}
		if p.Pct != nil {
			pcts = append(pcts, *p.Pct)
		}
	}
	st.RangeMin = &min
	st.RangeMax = &max

	// Minimal payloads carry only date/close; rebuild the percent series
	// against the first close so change and slope are still available.
	if len(pcts) == 0 {
		if first := points[0].Close; first != 0 {
			for _, p := range points {
				pcts = append(pcts, (p.Close/first-1)*100)
			}
		}
	}

	if len(pcts) > 0 {
		change := pcts[len(pcts)-1]
		st.ChangePct = &change
	}
	if slope, ok := leastSquaresSlope(pcts); ok {
		st.TrendSlopePctPerDay = &slope
	}
	return st
}

// MaxDrawdownPct returns the deepest (most negative) dd_pct in the window.
// ok is false when no point carries a drawdown value.
func MaxDrawdownPct(points []backend.SparkPoint) (float64, bool) {
	found := false
	worst := 0.0
	for _, p := range points {
		if p.DDPct == nil {
			continue
		}
		if !found || *p.DDPct < worst {
			worst = *p.DDPct
			found = true
		}
	}
	return worst, found
}

// leastSquaresSlope fits y = a*x + b over x = 0..n-1 and returns a.
func leastSquaresSlope(ys []float64) (float64, bool) {
	n := float64(len(ys))
	if len(ys) < 2 {
		return 0, false
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, false
	}
	return (n*sumXY - sumX*sumY) / denom, true
}
