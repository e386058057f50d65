package stackup

import "math"

// linkVariance converts a link's stated tolerance band into a variance.
// Uniform: variance of a flat distribution over the band, width²/12.
// Normal (and triangular, reserved): the band is taken to cover
// 2*sigma standard deviations, so variance = (width/2/sigma)².
func linkVariance(l ChainLink) float64 {
	width := l.width()
	if l.Distribution == DistUniform {
		return width * width / 12
	}
	half := width / 2 / l.sigmaOrDefault()
	return half * half
}

// RSS computes the statistical stackup band assuming each link's error
// is an independent random variable. The reported tolerance is always
// normalized to a 3-sigma band for comparability, regardless of the
// per-link sigma inputs. The per-link variance slice is returned for
// reuse by Contributions, avoiding recomputation.
func RSS(links []ChainLink) (RSSResult, []float64) {
	var totalNominal float64
	variances := make([]float64, len(links))

	var totalVariance float64
	for i, l := range links {
		totalNominal += l.signedNominal()
		variances[i] = linkVariance(l)
		totalVariance += variances[i]
	}

	stdDev := math.Sqrt(totalVariance)
	tolerance := 3 * stdDev

	return RSSResult{
		Min:               totalNominal - tolerance,
		Max:               totalNominal + tolerance,
		Tolerance:         tolerance,
		StdDev:            stdDev,
		ProcessCapability: 1.0,
	}, variances
}
