package stackup

import (
	"fmt"
	"math"
)

// Options controls a full stackup calculation.
type Options struct {
	RunMonteCarlo bool
	Samples       int // Monte Carlo samples; zero means DefaultSamples
	Target        *TargetSpec
	Seed          int64 // zero means non-deterministic
	Workers       int   // Monte Carlo generation goroutines
}

// DefaultOptions returns the standard calculation options: Monte Carlo
// enabled with DefaultSamples.
func DefaultOptions() Options {
	return Options{
		RunMonteCarlo: true,
		Samples:       DefaultSamples,
	}
}

// ValidateLinks rejects numerically invalid links: negative tolerance
// magnitudes, negative sigma, and non-finite values. A zero sigma is
// allowed and means DefaultSigma. The analyzers themselves do not
// validate; callers that bypass Calculate are expected to call this.
func ValidateLinks(links []ChainLink) error {
	for i, l := range links {
		for _, f := range []struct {
			name string
			val  float64
		}{
			{"nominal", l.Nominal},
			{"plus tolerance", l.PlusTol},
			{"minus tolerance", l.MinusTol},
			{"sigma", l.Sigma},
		} {
			if math.IsNaN(f.val) || math.IsInf(f.val, 0) {
				return fmt.Errorf("link %d (%s): %s is not finite", i, l.Name, f.name)
			}
		}
		if l.PlusTol < 0 {
			return fmt.Errorf("link %d (%s): plus tolerance %g is negative", i, l.Name, l.PlusTol)
		}
		if l.MinusTol < 0 {
			return fmt.Errorf("link %d (%s): minus tolerance %g is negative", i, l.Name, l.MinusTol)
		}
		if l.Sigma < 0 {
			return fmt.Errorf("link %d (%s): sigma %g must be positive", i, l.Name, l.Sigma)
		}
	}
	return nil
}

// Calculate runs all analyzers over the links and combines their
// outputs into one Result. An empty chain yields a zero-valued result
// rather than an error, so a partially configured UI state never
// crashes the analyzer. When a target spec is given, MeetsSpec and
// Margin are evaluated against the RSS band only, not worst-case; a
// negative margin signals violation. This is a deliberate policy
// favoring statistical tolerancing.
func Calculate(links []ChainLink, opts Options) (*Result, error) {
	if err := ValidateLinks(links); err != nil {
		return nil, err
	}

	var totalNominal float64
	for _, l := range links {
		totalNominal += l.signedNominal()
	}

	rss, variances := RSS(links)

	result := &Result{
		TotalNominal:  totalNominal,
		WorstCase:     WorstCase(links),
		RSS:           rss,
		Contributions: Contributions(links, variances),
	}

	if opts.RunMonteCarlo && len(links) > 0 {
		mc := MonteCarlo(links, MonteCarloConfig{
			Samples: opts.Samples,
			Target:  opts.Target,
			Seed:    opts.Seed,
			Workers: opts.Workers,
		})
		result.MonteCarlo = &mc
	}

	if opts.Target != nil {
		lower, upper := opts.Target.Limits()
		meets := rss.Min >= lower && rss.Max <= upper
		margin := math.Min(rss.Min-lower, upper-rss.Max)
		result.MeetsSpec = &meets
		result.Margin = &margin
	}

	return result, nil
}

// Insights derives natural-language observations from an already
// computed result. It is pure: nothing is recalculated, nothing is
// mutated.
func Insights(r *Result) []string {
	if r == nil {
		return nil
	}
	var out []string

	if r.WorstCase.Range > 0 {
		tightening := (1 - 2*r.RSS.Tolerance/r.WorstCase.Range) * 100
		if tightening > 0.5 {
			out = append(out, fmt.Sprintf(
				"statistical (RSS) analysis tightens the worst-case band by %.0f%%", tightening))
		}
	}

	if dominant := dominantContribution(r.Contributions); dominant != nil {
		name := dominant.Name
		if name == "" {
			name = fmt.Sprintf("link %d", dominant.Index+1)
		}
		out = append(out, fmt.Sprintf(
			"%s dominates the stackup with %.0f%% of total variance", name, dominant.PercentOfTotal))
	}

	if r.MonteCarlo != nil && r.MeetsSpec != nil {
		out = append(out, cpkGrade(r.MonteCarlo.Cpk))
	}

	if r.MeetsSpec != nil && !*r.MeetsSpec && r.Margin != nil {
		out = append(out, fmt.Sprintf(
			"stackup violates the target specification by %.3f mm at 3 sigma", -*r.Margin))
	}

	return out
}

// dominantContribution returns the contribution with the largest
// variance share, or nil when there is no meaningful dominant (fewer
// than two links, or zero total variance). Ties keep the earlier link.
func dominantContribution(contributions []LinkContribution) *LinkContribution {
	if len(contributions) < 2 {
		return nil
	}
	best := 0
	for i := 1; i < len(contributions); i++ {
		if contributions[i].PercentOfTotal > contributions[best].PercentOfTotal {
			best = i
		}
	}
	if contributions[best].PercentOfTotal <= 0 {
		return nil
	}
	return &contributions[best]
}

// cpkGrade maps a Cpk value to the conventional capability wording.
func cpkGrade(cpk float64) string {
	switch {
	case cpk >= 1.67:
		return fmt.Sprintf("Cpk %.2f: process is highly capable", cpk)
	case cpk >= 1.33:
		return fmt.Sprintf("Cpk %.2f: process is capable", cpk)
	case cpk >= 1.0:
		return fmt.Sprintf("Cpk %.2f: process is marginally capable", cpk)
	default:
		return fmt.Sprintf("Cpk %.2f: process is not capable, expect fallout", cpk)
	}
}
