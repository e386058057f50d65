package stackup

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// DefaultSamples is the Monte Carlo sample count used when none is given.
const DefaultSamples = 10000

// histogramBins is the fixed number of equal-width histogram bins.
const histogramBins = 50

// MonteCarloConfig controls a simulation run.
type MonteCarloConfig struct {
	// Samples is the number of chain realizations to draw.
	// Zero or negative means DefaultSamples.
	Samples int
	// Target, when set, is used to compute Cpk against its limits.
	// Without it Cpk is reported as 1.0 by convention.
	Target *TargetSpec
	// Seed makes the run reproducible. Zero means a time-derived seed.
	Seed int64
	// Workers partitions sample generation across goroutines. Values
	// below 2 run sequentially. For a fixed seed and worker count the
	// run is deterministic: each worker draws from its own derived
	// source into its own slice region.
	Workers int
}

// sampler draws per-link realizations from one random source. Normal
// draws use the Box-Muller transform; the second normal value of each
// pair is cached and used for the next draw.
type sampler struct {
	rng      *rand.Rand
	spare    float64
	hasSpare bool
}

func newSampler(seed int64) *sampler {
	return &sampler{rng: rand.New(rand.NewSource(seed))}
}

// normal returns a standard normal variate.
func (s *sampler) normal() float64 {
	if s.hasSpare {
		s.hasSpare = false
		return s.spare
	}
	u1 := s.rng.Float64()
	for u1 == 0 {
		u1 = s.rng.Float64() // log(0) guard
	}
	u2 := s.rng.Float64()
	r := math.Sqrt(-2 * math.Log(u1))
	s.spare = r * math.Sin(2*math.Pi*u2)
	s.hasSpare = true
	return r * math.Cos(2*math.Pi*u2)
}

// drawLink draws one realization of a single link, unsigned.
func (s *sampler) drawLink(l ChainLink) float64 {
	if l.Distribution == DistUniform {
		lo := l.Nominal - l.MinusTol
		hi := l.Nominal + l.PlusTol
		return lo + (hi-lo)*s.rng.Float64()
	}
	// Normal: shift the mean to the band center so asymmetric
	// tolerances are honored.
	mean := l.Nominal + (l.PlusTol-l.MinusTol)/2
	stdDev := l.width() / (2 * l.sigmaOrDefault())
	return mean + stdDev*s.normal()
}

// drawChain draws one realization of the whole chain.
func (s *sampler) drawChain(links []ChainLink) float64 {
	var total float64
	for _, l := range links {
		total += l.Direction.Sign() * s.drawLink(l)
	}
	return total
}

// MonteCarlo draws independent realizations of the total stackup and
// reports empirical statistics: population mean and standard deviation,
// nearest-rank percentiles, a 50-bin histogram, and Cpk against the
// optional target spec. When the empirical standard deviation is zero
// (all links degenerate) Cpk is +Inf if the mean sits within the
// limits and -Inf otherwise, never NaN.
func MonteCarlo(links []ChainLink, cfg MonteCarloConfig) MonteCarloResult {
	samples := cfg.Samples
	if samples <= 0 {
		samples = DefaultSamples
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	results := make([]float64, samples)
	generate(links, results, seed, cfg.Workers)

	sort.Float64s(results)

	var sum float64
	for _, r := range results {
		sum += r
	}
	mean := sum / float64(samples)

	var sumSq float64
	for _, r := range results {
		d := r - mean
		sumSq += d * d
	}
	stdDev := math.Sqrt(sumSq / float64(samples)) // population

	min := results[0]
	max := results[samples-1]

	return MonteCarloResult{
		Samples:     samples,
		Mean:        mean,
		StdDev:      stdDev,
		Min:         min,
		Max:         max,
		Cpk:         cpk(mean, stdDev, cfg.Target),
		Percentiles: percentiles(results),
		Histogram:   histogram(results, min, max),
	}
}

// generate fills results with chain realizations. Generation is
// embarrassingly parallel; the sort/scan statistics pass that follows
// is sequential, so workers only split the fill.
func generate(links []ChainLink, results []float64, seed int64, workers int) {
	n := len(results)
	if workers < 2 || workers > n {
		s := newSampler(seed)
		for i := range results {
			results[i] = s.drawChain(links)
		}
		return
	}

	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			s := newSampler(seed + int64(w)*0x9E3779B9)
			for i := lo; i < hi; i++ {
				results[i] = s.drawChain(links)
			}
		}(w, lo, hi)
	}
	wg.Wait()
}

// cpk computes the process capability index against a target spec.
func cpk(mean, stdDev float64, target *TargetSpec) float64 {
	if target == nil {
		return 1.0
	}
	lower, upper := target.Limits()
	if stdDev == 0 {
		if mean >= lower && mean <= upper {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	cpu := (upper - mean) / (3 * stdDev)
	cpl := (mean - lower) / (3 * stdDev)
	return math.Min(cpu, cpl)
}

// percentiles indexes the sorted sample array by nearest rank,
// index = floor(samples*p), clamped to samples-1.
func percentiles(sorted []float64) Percentiles {
	at := func(p float64) float64 {
		i := int(float64(len(sorted)) * p)
		if i > len(sorted)-1 {
			i = len(sorted) - 1
		}
		return sorted[i]
	}
	return Percentiles{
		P0_1:  at(0.001),
		P1:    at(0.01),
		P5:    at(0.05),
		P50:   at(0.5),
		P95:   at(0.95),
		P99:   at(0.99),
		P99_9: at(0.999),
	}
}

// histogram builds equal-width bins over [min, max]. Samples equal to
// max land in the last bin. A degenerate range collapses to a single
// bin holding everything so percentages still sum to 100.
func histogram(sorted []float64, min, max float64) []HistogramBin {
	n := len(sorted)
	if max == min {
		return []HistogramBin{{
			Min:        min,
			Max:        max,
			Count:      n,
			Percentage: 100,
		}}
	}

	width := (max - min) / histogramBins
	bins := make([]HistogramBin, histogramBins)
	for i := range bins {
		bins[i].Min = min + float64(i)*width
		bins[i].Max = bins[i].Min + width
	}
	for _, v := range sorted {
		i := int((v - min) / width)
		if i > histogramBins-1 {
			i = histogramBins - 1
		}
		bins[i].Count++
	}
	for i := range bins {
		bins[i].Percentage = 100 * float64(bins[i].Count) / float64(n)
	}
	return bins
}
