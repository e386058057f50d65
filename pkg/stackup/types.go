package stackup

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultSigma is the assumed process spread used to convert a stated
// tolerance into a standard deviation when a link does not specify one.
const DefaultSigma = 3.0

// Direction indicates whether a link adds to or subtracts from the
// stackup total.
type Direction int

const (
	DirPositive Direction = iota // contributes +nominal
	DirNegative                  // contributes -nominal
)

func (d Direction) String() string {
	switch d {
	case DirPositive:
		return "positive"
	case DirNegative:
		return "negative"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Sign returns +1 or -1 according to the direction.
func (d Direction) Sign() float64 {
	if d == DirNegative {
		return -1
	}
	return 1
}

// Distribution selects the assumed error distribution of a link.
type Distribution int

const (
	DistNormal     Distribution = iota // tolerance band covers 2*sigma standard deviations
	DistUniform                        // flat over the tolerance band
	DistTriangular                     // reserved; treated as normal by the analyzers
)

func (d Distribution) String() string {
	switch d {
	case DistNormal:
		return "normal"
	case DistUniform:
		return "uniform"
	case DistTriangular:
		return "triangular"
	default:
		return fmt.Sprintf("Distribution(%d)", int(d))
	}
}

// LinkKind describes what a chain link represents.
type LinkKind int

const (
	LinkPartDimension  LinkKind = iota // a toleranced dimension of a part
	LinkInterfaceGap                   // a gap or fit at a mating interface
	LinkDatumReference                 // a datum offset
)

func (k LinkKind) String() string {
	switch k {
	case LinkPartDimension:
		return "part_dimension"
	case LinkInterfaceGap:
		return "interface_gap"
	case LinkDatumReference:
		return "datum_reference"
	default:
		return fmt.Sprintf("LinkKind(%d)", int(k))
	}
}

// ChainLink is one signed, toleranced contribution to a stackup total.
// PlusTol and MinusTol are stored as non-negative magnitudes.
// A zero Sigma means "use DefaultSigma".
type ChainLink struct {
	ID           string       `json:"id"`
	Kind         LinkKind     `json:"kind"`
	Name         string       `json:"name,omitempty"`
	PartID       string       `json:"part_id,omitempty"`
	InterfaceID  string       `json:"interface_id,omitempty"`
	FaceID       int64        `json:"face_id,omitempty"`
	Nominal      float64      `json:"nominal"` // signed length in mm
	PlusTol      float64      `json:"plus_tol"`
	MinusTol     float64      `json:"minus_tol"`
	Direction    Direction    `json:"direction"`
	Distribution Distribution `json:"distribution"`
	Sigma        float64      `json:"sigma,omitempty"`
}

// NewLink creates a part-dimension link with the usual defaults:
// positive direction, normal distribution, sigma 3. No validation is
// performed; see ValidateLinks.
func NewLink(nominal, plusTol, minusTol float64) ChainLink {
	return ChainLink{
		ID:           uuid.NewString(),
		Kind:         LinkPartDimension,
		Nominal:      nominal,
		PlusTol:      plusTol,
		MinusTol:     minusTol,
		Direction:    DirPositive,
		Distribution: DistNormal,
		Sigma:        DefaultSigma,
	}
}

// signedNominal returns the link's contribution to the total nominal.
func (l ChainLink) signedNominal() float64 {
	return l.Direction.Sign() * l.Nominal
}

// width returns the combined tolerance band width, plus + minus.
func (l ChainLink) width() float64 {
	return l.PlusTol + l.MinusTol
}

// sigmaOrDefault returns the link's sigma, or DefaultSigma when unset.
func (l ChainLink) sigmaOrDefault() float64 {
	if l.Sigma > 0 {
		return l.Sigma
	}
	return DefaultSigma
}

// TargetSpec is an optional design target the stackup is evaluated
// against: nominal with asymmetric plus/minus limits.
type TargetSpec struct {
	Nominal  float64 `json:"nominal"`
	PlusTol  float64 `json:"plus_tol"`
	MinusTol float64 `json:"minus_tol"`
}

// Limits returns the lower and upper specification limits.
func (t TargetSpec) Limits() (lower, upper float64) {
	return t.Nominal - t.MinusTol, t.Nominal + t.PlusTol
}

// Chain is an ordered sequence of links measured along a nominal axis.
// Link order is significant only for display; the analyzers are
// invariant under permutation. The measurement direction is a unit
// vector and is informational only.
type Chain struct {
	ID             string      `json:"id"`
	Name           string      `json:"name,omitempty"`
	Links          []ChainLink `json:"links"`
	Direction      [3]float64  `json:"direction"`
	StartDatumFace int64       `json:"start_datum_face,omitempty"`
	EndDatumFace   int64       `json:"end_datum_face,omitempty"`
	Target         *TargetSpec `json:"target,omitempty"`
	Result         *Result     `json:"result,omitempty"` // cached; cleared on edit
}

// NewChain creates an empty named chain measured along +X.
func NewChain(name string) *Chain {
	return &Chain{
		ID:        uuid.NewString(),
		Name:      name,
		Direction: [3]float64{1, 0, 0},
	}
}

// WorstCaseResult is the extremal stackup band assuming every link
// simultaneously takes its most adverse value.
type WorstCaseResult struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Tolerance float64 `json:"tolerance"` // (max-min)/2
	Range     float64 `json:"range"`     // max-min
}

// RSSResult is the statistical 3-sigma-equivalent band from summing
// independent link variances.
type RSSResult struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Tolerance float64 `json:"tolerance"` // 3*StdDev, regardless of input sigma
	StdDev    float64 `json:"std_dev"`
	// ProcessCapability is fixed at 1.0: Cp is defined relative to a
	// 3-sigma spec equal to the computed tolerance, pending a real
	// design target.
	ProcessCapability float64 `json:"process_capability"`
}

// Percentiles holds empirical nearest-rank percentiles of a Monte
// Carlo run.
type Percentiles struct {
	P0_1  float64 `json:"p0_1"`
	P1    float64 `json:"p1"`
	P5    float64 `json:"p5"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	P99_9 float64 `json:"p99_9"`
}

// HistogramBin is one equal-width bin of the sampled distribution.
type HistogramBin struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"` // 100*count/samples
}

// MonteCarloResult holds empirical statistics over the sampled chain
// distribution.
type MonteCarloResult struct {
	Samples     int            `json:"samples"`
	Mean        float64        `json:"mean"`
	StdDev      float64        `json:"std_dev"` // population
	Min         float64        `json:"min"`
	Max         float64        `json:"max"`
	Cpk         float64        `json:"cpk"`
	Percentiles Percentiles    `json:"percentiles"`
	Histogram   []HistogramBin `json:"histogram"`
}

// LinkContribution attributes a share of the RSS variance to one link.
// Used for ranking in the UI; ties keep input order.
type LinkContribution struct {
	Index          int     `json:"index"`
	LinkID         string  `json:"link_id,omitempty"`
	Name           string  `json:"name,omitempty"`
	Nominal        float64 `json:"nominal"` // signed by direction
	Width          float64 `json:"width"`   // plus + minus
	Variance       float64 `json:"variance"`
	PercentOfTotal float64 `json:"percent_of_total"`
}

// Result combines all analyzer outputs for one chain. It is a pure
// value object, recomputed on every calculation.
type Result struct {
	TotalNominal  float64            `json:"total_nominal"`
	WorstCase     WorstCaseResult    `json:"worst_case"`
	RSS           RSSResult          `json:"rss"`
	MonteCarlo    *MonteCarloResult  `json:"monte_carlo,omitempty"`
	Contributions []LinkContribution `json:"contributions"`
	// MeetsSpec and Margin are set only when a target spec was given.
	// Both are evaluated against the RSS band, not worst-case.
	MeetsSpec *bool    `json:"meets_spec,omitempty"`
	Margin    *float64 `json:"margin,omitempty"`
}
