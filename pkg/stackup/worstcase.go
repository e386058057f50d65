package stackup

// WorstCase accumulates the extremal stackup band by exact interval
// arithmetic: every link simultaneously takes its most adverse value.
// A positive link contributes [nominal-minus, nominal+plus]; a negative
// link contributes the negated interval, so subtracting the largest
// possible value lowers the total minimum. An empty chain yields zeros.
func WorstCase(links []ChainLink) WorstCaseResult {
	var totalMin, totalMax float64

	for _, l := range links {
		if l.Direction == DirNegative {
			totalMin -= l.Nominal + l.PlusTol
			totalMax -= l.Nominal - l.MinusTol
		} else {
			totalMin += l.Nominal - l.MinusTol
			totalMax += l.Nominal + l.PlusTol
		}
	}

	return WorstCaseResult{
		Min:       totalMin,
		Max:       totalMax,
		Tolerance: (totalMax - totalMin) / 2,
		Range:     totalMax - totalMin,
	}
}
