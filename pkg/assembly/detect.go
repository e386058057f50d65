package assembly

import (
	"math"
	"sort"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"

	"github.com/chazu/caliper/pkg/stackup"
)

// DetectionParams holds the tunable thresholds of the interface
// detector. The cutoffs are empirically chosen; they are kept as named
// configuration rather than hard-coded literals so they can be
// overridden per assembly.
type DetectionParams struct {
	// ProximityThreshold (mm) scales the coarse pre-filter bound; raw
	// face-center distance is a poor absolute proximity proxy across
	// differently sized parts, so the effective bound per part pair is
	// max(ProximityThreshold*PrefilterScale, half of either part's
	// bounding-box diagonal).
	ProximityThreshold float64
	// MinContactArea (mm^2) drops candidates whose estimated contact
	// area falls below it.
	MinContactArea float64
	// PlanarOpposeCutoff admits a planar/planar pair only when the
	// normals oppose: alignment < -PlanarOpposeCutoff.
	PlanarOpposeCutoff float64
	// FaceToFaceCutoff classifies a planar/planar pair as face_to_face
	// when alignment < -FaceToFaceCutoff.
	FaceToFaceCutoff float64
	// RadiusMatchTolerance (mm) is the maximum radius difference for a
	// cylindrical pair to count as a clearance fit (pin_in_hole).
	RadiusMatchTolerance float64
	// PrefilterScale multiplies ProximityThreshold in the coarse
	// pre-filter bound.
	PrefilterScale float64
	// MaxPerPair bounds the retained candidates per part pair, keeping
	// the highest-scoring ones. Bounds output size on dense assemblies.
	MaxPerPair int

	// Contact-area estimates. These are estimates, not measurements.
	PlanarContactArea    float64 // fixed area for face_to_face, mm^2
	DefaultContactRadius float64 // fallback radius for cylindrical pairs, mm
	ResidualContactArea  float64 // everything else, mm^2
}

// DefaultDetectionParams returns the standard detector thresholds.
func DefaultDetectionParams() DetectionParams {
	return DetectionParams{
		ProximityThreshold:   2.0,
		MinContactArea:       1.0,
		PlanarOpposeCutoff:   0.8,
		FaceToFaceCutoff:     0.9,
		RadiusMatchTolerance: 0.5,
		PrefilterScale:       50,
		MaxPerPair:           10,
		PlanarContactArea:    10.0,
		DefaultContactRadius: 5.0,
		ResidualContactArea:  1.0,
	}
}

// DetectionResult is the detector output for one assembly.
type DetectionResult struct {
	Interfaces []MatingInterface `json:"interfaces"`
	// JunctionParts lists parts participating in more than one
	// interface, sorted by id.
	JunctionParts []string `json:"junction_parts"`
}

// worldFace is a face transformed into world space.
type worldFace struct {
	id     int64
	kind   FaceKind
	center v3.Vec
	normal v3.Vec
	radius *float64
}

func worldFaces(p *Part) []worldFace {
	out := make([]worldFace, len(p.Faces))
	for i, f := range p.Faces {
		out[i] = worldFace{
			id:     f.ID,
			kind:   f.Kind,
			center: p.Transform.Point(f.Center),
			normal: p.Transform.Direction(f.Normal),
			radius: f.Radius,
		}
	}
	return out
}

// Detect finds, classifies, and scores candidate physical contacts
// between every unordered pair of parts. Complexity is O(P^2 * F^2) in
// parts and faces per part; acceptable for assemblies of tens of parts
// and faces, a known scaling limit for larger ones.
func Detect(parts []Part, params DetectionParams) DetectionResult {
	var interfaces []MatingInterface
	counts := make(map[string]int)

	for i := 0; i < len(parts); i++ {
		for j := i + 1; j < len(parts); j++ {
			pair := detectPair(&parts[i], &parts[j], params)
			for _, iface := range pair {
				counts[iface.PartA]++
				counts[iface.PartB]++
			}
			interfaces = append(interfaces, pair...)
		}
	}

	var junctions []string
	for id, n := range counts {
		if n > 1 {
			junctions = append(junctions, id)
		}
	}
	sort.Strings(junctions)

	return DetectionResult{Interfaces: interfaces, JunctionParts: junctions}
}

// detectPair compares every face pair of two parts and returns at most
// MaxPerPair interfaces, sorted descending by score. Only the ordering
// within a pair must be stable; pairs are independent.
func detectPair(a, b *Part, params DetectionParams) []MatingInterface {
	bound := math.Max(
		params.ProximityThreshold*params.PrefilterScale,
		math.Max(0.5*boxDiagonal(a.Bounds), 0.5*boxDiagonal(b.Bounds)),
	)

	facesA := worldFaces(a)
	facesB := worldFaces(b)

	var candidates []MatingInterface
	for _, fa := range facesA {
		if fa.kind != FacePlanar && fa.kind != FaceCylindrical {
			continue
		}
		for _, fb := range facesB {
			if fb.kind != FacePlanar && fb.kind != FaceCylindrical {
				continue
			}

			distance := fa.center.Sub(fb.center).Length()
			if distance > bound {
				continue
			}
			alignment := fa.normal.Dot(fb.normal)

			// Two planar faces only mate when their normals oppose.
			if fa.kind == FacePlanar && fb.kind == FacePlanar &&
				alignment >= -params.PlanarOpposeCutoff {
				continue
			}

			kind := classify(fa, fb, alignment, params)
			if kind == InterfaceUnknown {
				continue
			}

			area := estimateContactArea(fa, fb, kind, params)
			if area < params.MinContactArea {
				continue
			}

			tolerance, distribution := suggestedFit(kind)
			candidates = append(candidates, MatingInterface{
				ID:                    uuid.NewString(),
				PartA:                 a.ID,
				FaceA:                 fa.id,
				PartB:                 b.ID,
				FaceB:                 fb.id,
				Kind:                  kind,
				Proximity:             distance,
				NormalAlignment:       math.Abs(alignment),
				ContactArea:           area,
				ContactPoint:          fa.center.Add(fb.center).MulScalar(0.5),
				Score:                 math.Abs(alignment) / (1 + distance/10),
				SuggestedTolerance:    tolerance,
				SuggestedDistribution: distribution,
			})
		}
	}

	// Closer and better-aligned ranks higher; stable keeps face order
	// for equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if params.MaxPerPair > 0 && len(candidates) > params.MaxPerPair {
		candidates = candidates[:params.MaxPerPair]
	}
	return candidates
}

// classify maps a face pair to an interface kind. Unknown pairs are
// dropped by the caller; only recognized mating types are retained.
func classify(a, b worldFace, alignment float64, params DetectionParams) InterfaceKind {
	if a.kind == FacePlanar && b.kind == FacePlanar {
		if alignment < -params.FaceToFaceCutoff {
			return InterfaceFaceToFace
		}
		return InterfaceUnknown
	}
	if a.kind == FaceCylindrical && b.kind == FaceCylindrical {
		if a.radius != nil && b.radius != nil &&
			math.Abs(*a.radius-*b.radius) < params.RadiusMatchTolerance {
			return InterfacePinInHole
		}
		return InterfaceUnknown
	}
	if (a.kind == FaceCylindrical && b.kind == FacePlanar) ||
		(a.kind == FacePlanar && b.kind == FaceCylindrical) {
		return InterfaceShaftInBore
	}
	return InterfaceUnknown
}

// estimateContactArea returns a rough contact-area figure per kind.
func estimateContactArea(a, b worldFace, kind InterfaceKind, params DetectionParams) float64 {
	switch kind {
	case InterfaceFaceToFace:
		return params.PlanarContactArea
	case InterfacePinInHole, InterfaceShaftInBore:
		r := params.DefaultContactRadius
		if a.radius != nil {
			r = *a.radius
		} else if b.radius != nil {
			r = *b.radius
		}
		return math.Pi * r * r
	default:
		return params.ResidualContactArea
	}
}

// suggestedFit returns the default tolerance and distribution for a
// chain link generated from an interface of the given kind. Clearance
// fits vary uniformly over the gap; surface contacts follow a normal
// process spread.
func suggestedFit(kind InterfaceKind) (float64, stackup.Distribution) {
	switch kind {
	case InterfacePinInHole:
		return 0.025, stackup.DistUniform
	case InterfaceShaftInBore:
		return 0.05, stackup.DistUniform
	default:
		return 0.05, stackup.DistNormal
	}
}

// boxDiagonal returns the length of a box's space diagonal.
func boxDiagonal(b sdf.Box3) float64 {
	return b.Max.Sub(b.Min).Length()
}
