package stackup

import (
	"math"
	"testing"
)

func TestMonteCarloDeterministicWithSeed(t *testing.T) {
	links := []ChainLink{NewLink(10, 0.1, 0.1)}
	cfg := MonteCarloConfig{Samples: 1000, Seed: 42}

	a := MonteCarlo(links, cfg)
	b := MonteCarlo(links, cfg)

	if a.Mean != b.Mean || a.StdDev != b.StdDev || a.Min != b.Min || a.Max != b.Max {
		t.Errorf("same seed must reproduce the run: %+v vs %+v", a, b)
	}
}

func TestMonteCarloWorkersDeterministic(t *testing.T) {
	links := []ChainLink{
		NewLink(10, 0.1, 0.1),
		NewLink(5, 0.05, 0.05),
	}
	cfg := MonteCarloConfig{Samples: 4000, Seed: 7, Workers: 4}

	a := MonteCarlo(links, cfg)
	b := MonteCarlo(links, cfg)
	if a.Mean != b.Mean || a.StdDev != b.StdDev {
		t.Errorf("fixed seed and worker count must be deterministic: %+v vs %+v", a, b)
	}
	approx(t, a.Mean, 15, 0.01, "parallel mean")
}

func TestMonteCarloMeanConvergesToNominal(t *testing.T) {
	links := []ChainLink{NewLink(10, 0.1, 0.1)}

	result := MonteCarlo(links, MonteCarloConfig{Samples: 20000, Seed: 1})
	approx(t, result.Mean, 10, 0.01, "mean")
	if result.Samples != 20000 {
		t.Errorf("Samples = %d, want 20000", result.Samples)
	}
}

func TestMonteCarloStdDevMatchesRSS(t *testing.T) {
	// Empirical stdDev converges to the RSS stdDev as samples grow.
	links := []ChainLink{
		NewLink(25, 0.1, 0.1),
		NewLink(30, 0.15, 0.15),
	}
	rss, _ := RSS(links)

	result := MonteCarlo(links, MonteCarloConfig{Samples: 50000, Seed: 3})
	if math.Abs(result.StdDev-rss.StdDev) > 0.05*rss.StdDev {
		t.Errorf("empirical stdDev %v should approach RSS stdDev %v", result.StdDev, rss.StdDev)
	}
}

func TestMonteCarloConvergenceTightens(t *testing.T) {
	// A property of consistency: the mean error band shrinks as the
	// sample count grows.
	links := []ChainLink{NewLink(10, 0.3, 0.3)}

	coarse := MonteCarlo(links, MonteCarloConfig{Samples: 200, Seed: 11})
	fine := MonteCarlo(links, MonteCarloConfig{Samples: 200000, Seed: 11})

	if math.Abs(fine.Mean-10) > 0.02 {
		t.Errorf("fine mean %v should sit within 0.02 of nominal", fine.Mean)
	}
	// The coarse run is only loosely bounded.
	if math.Abs(coarse.Mean-10) > 0.2 {
		t.Errorf("coarse mean %v drifted implausibly far", coarse.Mean)
	}
}

func TestMonteCarloUniformStaysInBand(t *testing.T) {
	link := NewLink(10, 0.1, 0.2)
	link.Distribution = DistUniform

	result := MonteCarlo([]ChainLink{link}, MonteCarloConfig{Samples: 5000, Seed: 5})
	if result.Min < 9.8-1e-9 || result.Max > 10.1+1e-9 {
		t.Errorf("uniform draws must stay in [9.8, 10.1], got [%v, %v]", result.Min, result.Max)
	}
	// Mean of the asymmetric uniform band is its center, 9.95.
	approx(t, result.Mean, 9.95, 0.01, "uniform mean")
}

func TestMonteCarloNegativeDirection(t *testing.T) {
	a := NewLink(10, 0.1, 0.1)
	b := NewLink(4, 0.05, 0.05)
	b.Direction = DirNegative

	result := MonteCarlo([]ChainLink{a, b}, MonteCarloConfig{Samples: 20000, Seed: 9})
	approx(t, result.Mean, 6, 0.01, "mean with negative link")
}

func TestMonteCarloPercentilesOrdered(t *testing.T) {
	links := []ChainLink{NewLink(10, 0.1, 0.1)}

	result := MonteCarlo(links, MonteCarloConfig{Samples: 10000, Seed: 13})
	p := result.Percentiles
	ordered := []float64{p.P0_1, p.P1, p.P5, p.P50, p.P95, p.P99, p.P99_9}
	for i := 1; i < len(ordered); i++ {
		if ordered[i] < ordered[i-1] {
			t.Fatalf("percentiles must be non-decreasing, got %+v", p)
		}
	}
	approx(t, p.P50, result.Mean, 0.01, "median vs mean")
	if p.P0_1 < result.Min || p.P99_9 > result.Max {
		t.Errorf("percentiles must stay within [min, max]")
	}
}

func TestMonteCarloHistogram(t *testing.T) {
	links := []ChainLink{NewLink(10, 0.1, 0.1)}

	result := MonteCarlo(links, MonteCarloConfig{Samples: 10000, Seed: 17})
	if len(result.Histogram) != 50 {
		t.Fatalf("expected 50 bins, got %d", len(result.Histogram))
	}

	var count int
	var percent float64
	for _, bin := range result.Histogram {
		count += bin.Count
		percent += bin.Percentage
	}
	if count != result.Samples {
		t.Errorf("histogram counts %d, want %d", count, result.Samples)
	}
	approx(t, percent, 100, 1e-9, "percentage sum")

	first := result.Histogram[0]
	last := result.Histogram[len(result.Histogram)-1]
	approx(t, first.Min, result.Min, 1e-9, "first bin min")
	approx(t, last.Max, result.Max, 1e-9, "last bin max")
}

func TestMonteCarloCpkAgainstSpec(t *testing.T) {
	// One 3-sigma link with a spec exactly at its tolerance band:
	// Cpk = tol / (3*stdDev) = 1 by construction.
	links := []ChainLink{NewLink(10, 0.1, 0.1)}
	target := &TargetSpec{Nominal: 10, PlusTol: 0.1, MinusTol: 0.1}

	result := MonteCarlo(links, MonteCarloConfig{Samples: 50000, Seed: 19, Target: target})
	approx(t, result.Cpk, 1.0, 0.05, "Cpk")
}

func TestMonteCarloCpkWithoutSpec(t *testing.T) {
	links := []ChainLink{NewLink(10, 0.1, 0.1)}

	result := MonteCarlo(links, MonteCarloConfig{Samples: 1000, Seed: 21})
	if result.Cpk != 1.0 {
		t.Errorf("Cpk without a target spec must be 1.0 by convention, got %v", result.Cpk)
	}
}

func TestMonteCarloDegenerateLinks(t *testing.T) {
	// Zero-tolerance links produce identical samples. Cpk must not be
	// NaN, and the collapsed histogram still sums to 100%.
	links := []ChainLink{NewLink(10, 0, 0)}
	target := &TargetSpec{Nominal: 10, PlusTol: 0.1, MinusTol: 0.1}

	result := MonteCarlo(links, MonteCarloConfig{Samples: 100, Seed: 23, Target: target})
	if result.StdDev != 0 {
		t.Fatalf("expected zero stdDev, got %v", result.StdDev)
	}
	if !math.IsInf(result.Cpk, 1) {
		t.Errorf("Cpk = %v, want +Inf for a centered degenerate chain", result.Cpk)
	}

	var percent float64
	for _, bin := range result.Histogram {
		percent += bin.Percentage
	}
	approx(t, percent, 100, 1e-9, "degenerate percentage sum")

	// Off-spec degenerate chain: -Inf, still not NaN.
	far := &TargetSpec{Nominal: 20, PlusTol: 0.1, MinusTol: 0.1}
	result = MonteCarlo(links, MonteCarloConfig{Samples: 100, Seed: 23, Target: far})
	if !math.IsInf(result.Cpk, -1) {
		t.Errorf("Cpk = %v, want -Inf for an off-spec degenerate chain", result.Cpk)
	}
}

func TestMonteCarloDefaultSamples(t *testing.T) {
	links := []ChainLink{NewLink(1, 0.01, 0.01)}
	result := MonteCarlo(links, MonteCarloConfig{Seed: 25})
	if result.Samples != DefaultSamples {
		t.Errorf("Samples = %d, want default %d", result.Samples, DefaultSamples)
	}
}
