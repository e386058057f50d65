package stackup

// Contributions attributes the RSS variance share to each link. The
// variances slice must be the one returned by RSS for the same links.
// When the total variance is zero (all links degenerate), every
// percentage is zero. Output order follows input order; there is no
// tie-break beyond that.
func Contributions(links []ChainLink, variances []float64) []LinkContribution {
	var totalVariance float64
	for _, v := range variances {
		totalVariance += v
	}

	contributions := make([]LinkContribution, len(links))
	for i, l := range links {
		var percent float64
		if totalVariance > 0 {
			percent = 100 * variances[i] / totalVariance
		}
		contributions[i] = LinkContribution{
			Index:          i,
			LinkID:         l.ID,
			Name:           l.Name,
			Nominal:        l.signedNominal(),
			Width:          l.width(),
			Variance:       variances[i],
			PercentOfTotal: percent,
		}
	}
	return contributions
}
