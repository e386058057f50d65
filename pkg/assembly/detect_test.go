package assembly

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/caliper/pkg/stackup"
)

func planarFace(id int64, center, normal v3.Vec) Face {
	return Face{ID: id, Kind: FacePlanar, Center: center, Normal: normal, Area: 100}
}

func cylindricalFace(id int64, center, axis v3.Vec, radius float64) Face {
	r := radius
	a := axis
	return Face{ID: id, Kind: FaceCylindrical, Center: center, Normal: axis, Area: 100, Radius: &r, Axis: &a}
}

// cube returns a 10 mm cube part with six planar faces, local frame
// spanning [0,10]^3, placed by the given transform.
func cube(id string, transform Transform) Part {
	return Part{
		ID:        id,
		Name:      id,
		Transform: transform,
		Bounds:    sdf.Box3{Min: v3.Vec{}, Max: v3.Vec{X: 10, Y: 10, Z: 10}},
		Faces: []Face{
			planarFace(1, v3.Vec{X: 10, Y: 5, Z: 5}, v3.Vec{X: 1}),
			planarFace(2, v3.Vec{X: 0, Y: 5, Z: 5}, v3.Vec{X: -1}),
			planarFace(3, v3.Vec{X: 5, Y: 10, Z: 5}, v3.Vec{Y: 1}),
			planarFace(4, v3.Vec{X: 5, Y: 0, Z: 5}, v3.Vec{Y: -1}),
			planarFace(5, v3.Vec{X: 5, Y: 5, Z: 10}, v3.Vec{Z: 1}),
			planarFace(6, v3.Vec{X: 5, Y: 5, Z: 0}, v3.Vec{Z: -1}),
		},
	}
}

func TestDetectFaceToFace(t *testing.T) {
	// Two cubes sharing the x=10 plane.
	parts := []Part{cube("a", Identity()), cube("b", Translation(10, 0, 0))}

	result := Detect(parts, DefaultDetectionParams())
	if len(result.Interfaces) == 0 {
		t.Fatal("expected at least one interface")
	}

	// Highest score first within a pair; the coincident faces win.
	best := result.Interfaces[0]
	for _, iface := range result.Interfaces {
		if iface.Score > best.Score {
			best = iface
		}
	}
	if best.Kind != InterfaceFaceToFace {
		t.Errorf("best interface kind = %v, want face_to_face", best.Kind)
	}
	approxf(t, best.Proximity, 0, 1e-9, "proximity")
	approxf(t, best.NormalAlignment, 1, 1e-9, "alignment")
	approxf(t, best.Score, 1, 1e-9, "score")
	approxf(t, best.ContactArea, 10, 1e-9, "planar contact area")
	vecApprox(t, best.ContactPoint, v3.Vec{X: 10, Y: 5, Z: 5}, 1e-9, "contact point")
	if best.FaceA != 1 || best.FaceB != 2 {
		t.Errorf("expected a's +x face mating b's -x face, got %d/%d", best.FaceA, best.FaceB)
	}
	if best.SuggestedDistribution != stackup.DistNormal {
		t.Errorf("planar contact should suggest a normal distribution")
	}
}

func TestDetectScoresSortedPerPair(t *testing.T) {
	parts := []Part{cube("a", Identity()), cube("b", Translation(10, 0, 0))}

	result := Detect(parts, DefaultDetectionParams())
	for i := 1; i < len(result.Interfaces); i++ {
		if result.Interfaces[i].Score > result.Interfaces[i-1].Score {
			t.Fatalf("interfaces within a pair must be sorted by descending score")
		}
	}
}

func TestDetectMaxPerPair(t *testing.T) {
	// Opposing cube faces yield six candidates; MaxPerPair keeps the
	// top three.
	parts := []Part{cube("a", Identity()), cube("b", Translation(10, 0, 0))}
	params := DefaultDetectionParams()
	params.MaxPerPair = 3

	result := Detect(parts, params)
	if len(result.Interfaces) != 3 {
		t.Errorf("expected 3 interfaces after truncation, got %d", len(result.Interfaces))
	}
}

func TestDetectJunctionParts(t *testing.T) {
	// Three single-face parts in a row; with a tight pre-filter only
	// adjacent ones mate, so the middle part is the only junction.
	a := Part{
		ID: "a", Transform: Identity(),
		Bounds: sdf.Box3{Max: v3.Vec{X: 10, Y: 10, Z: 10}},
		Faces:  []Face{planarFace(1, v3.Vec{X: 10, Y: 5, Z: 5}, v3.Vec{X: 1})},
	}
	b := Part{
		ID: "b", Transform: Translation(10, 0, 0),
		Bounds: sdf.Box3{Max: v3.Vec{X: 10, Y: 10, Z: 10}},
		Faces: []Face{
			planarFace(2, v3.Vec{Y: 5, Z: 5}, v3.Vec{X: -1}),
			planarFace(3, v3.Vec{X: 10, Y: 5, Z: 5}, v3.Vec{X: 1}),
		},
	}
	c := Part{
		ID: "c", Transform: Translation(20, 0, 0),
		Bounds: sdf.Box3{Max: v3.Vec{X: 10, Y: 10, Z: 10}},
		Faces:  []Face{planarFace(4, v3.Vec{Y: 5, Z: 5}, v3.Vec{X: -1})},
	}

	params := DefaultDetectionParams()
	params.ProximityThreshold = 0.1 // pre-filter bound collapses to the half-diagonal

	result := Detect([]Part{a, b, c}, params)
	if len(result.Interfaces) != 2 {
		t.Fatalf("expected 2 interfaces, got %d", len(result.Interfaces))
	}
	if len(result.JunctionParts) != 1 || result.JunctionParts[0] != "b" {
		t.Errorf("JunctionParts = %v, want [b]", result.JunctionParts)
	}
}

func TestDetectPinInHole(t *testing.T) {
	pin := Part{
		ID: "pin", Transform: Identity(),
		Bounds: sdf.Box3{Min: v3.Vec{X: -5, Y: -5}, Max: v3.Vec{X: 5, Y: 5, Z: 20}},
		Faces:  []Face{cylindricalFace(1, v3.Vec{Z: 10}, v3.Vec{Z: 1}, 5.0)},
	}
	plate := Part{
		ID: "plate", Transform: Identity(),
		Bounds: sdf.Box3{Min: v3.Vec{X: -20, Y: -20}, Max: v3.Vec{X: 20, Y: 20, Z: 20}},
		Faces:  []Face{cylindricalFace(2, v3.Vec{Z: 10}, v3.Vec{Z: 1}, 5.2)},
	}

	result := Detect([]Part{pin, plate}, DefaultDetectionParams())
	if len(result.Interfaces) != 1 {
		t.Fatalf("expected 1 interface, got %d", len(result.Interfaces))
	}
	iface := result.Interfaces[0]
	if iface.Kind != InterfacePinInHole {
		t.Fatalf("kind = %v, want pin_in_hole", iface.Kind)
	}
	approxf(t, iface.ContactArea, math.Pi*25, 1e-9, "cylindrical contact area")
	approxf(t, iface.SuggestedTolerance, 0.025, 1e-12, "clearance fit tolerance")
	if iface.SuggestedDistribution != stackup.DistUniform {
		t.Error("clearance fit should suggest a uniform distribution")
	}
}

func TestDetectRadiusMismatchDropped(t *testing.T) {
	// Radii differ by 2 mm, well past the 0.5 mm match tolerance.
	pin := Part{
		ID: "pin", Transform: Identity(),
		Bounds: sdf.Box3{Max: v3.Vec{X: 10, Y: 10, Z: 10}},
		Faces:  []Face{cylindricalFace(1, v3.Vec{Z: 5}, v3.Vec{Z: 1}, 3.0)},
	}
	hole := Part{
		ID: "hole", Transform: Identity(),
		Bounds: sdf.Box3{Max: v3.Vec{X: 10, Y: 10, Z: 10}},
		Faces:  []Face{cylindricalFace(2, v3.Vec{Z: 5}, v3.Vec{Z: 1}, 5.0)},
	}

	result := Detect([]Part{pin, hole}, DefaultDetectionParams())
	if len(result.Interfaces) != 0 {
		t.Errorf("mismatched radii must not mate, got %d interfaces", len(result.Interfaces))
	}
}

func TestDetectShaftInBore(t *testing.T) {
	// A cylindrical face against a planar one.
	shaft := Part{
		ID: "shaft", Transform: Identity(),
		Bounds: sdf.Box3{Max: v3.Vec{X: 10, Y: 10, Z: 30}},
		Faces:  []Face{cylindricalFace(1, v3.Vec{Z: 15}, v3.Vec{Z: 1}, 4.0)},
	}
	housing := Part{
		ID: "housing", Transform: Identity(),
		Bounds: sdf.Box3{Max: v3.Vec{X: 10, Y: 10, Z: 30}},
		Faces:  []Face{planarFace(2, v3.Vec{Z: 15}, v3.Vec{X: 1})},
	}

	result := Detect([]Part{shaft, housing}, DefaultDetectionParams())
	if len(result.Interfaces) != 1 {
		t.Fatalf("expected 1 interface, got %d", len(result.Interfaces))
	}
	iface := result.Interfaces[0]
	if iface.Kind != InterfaceShaftInBore {
		t.Fatalf("kind = %v, want shaft_in_bore", iface.Kind)
	}
	approxf(t, iface.ContactArea, math.Pi*16, 1e-9, "shaft contact area")
	approxf(t, iface.SuggestedTolerance, 0.05, 1e-12, "running fit tolerance")
}

func TestDetectWeaklyOpposedPlanarDropped(t *testing.T) {
	// Alignment -0.85 passes the -0.8 admission cutoff but misses the
	// -0.9 face_to_face cutoff: admitted then classified unknown.
	s := math.Sqrt(1 - 0.85*0.85)
	a := Part{
		ID: "a", Transform: Identity(),
		Bounds: sdf.Box3{Max: v3.Vec{X: 10, Y: 10, Z: 10}},
		Faces:  []Face{planarFace(1, v3.Vec{X: 10, Y: 5, Z: 5}, v3.Vec{X: 1})},
	}
	b := Part{
		ID: "b", Transform: Identity(),
		Bounds: sdf.Box3{Max: v3.Vec{X: 10, Y: 10, Z: 10}},
		Faces:  []Face{planarFace(2, v3.Vec{X: 10, Y: 5, Z: 5}, v3.Vec{X: -0.85, Y: s})},
	}

	result := Detect([]Part{a, b}, DefaultDetectionParams())
	if len(result.Interfaces) != 0 {
		t.Errorf("weakly opposed planar pair must be dropped, got %d interfaces", len(result.Interfaces))
	}
}

func TestDetectSameDirectionPlanarNotAdmitted(t *testing.T) {
	a := Part{
		ID: "a", Transform: Identity(),
		Bounds: sdf.Box3{Max: v3.Vec{X: 10, Y: 10, Z: 10}},
		Faces:  []Face{planarFace(1, v3.Vec{X: 10, Y: 5, Z: 5}, v3.Vec{X: 1})},
	}
	b := Part{
		ID: "b", Transform: Identity(),
		Bounds: sdf.Box3{Max: v3.Vec{X: 10, Y: 10, Z: 10}},
		Faces:  []Face{planarFace(2, v3.Vec{X: 10.1, Y: 5, Z: 5}, v3.Vec{X: 1})},
	}

	result := Detect([]Part{a, b}, DefaultDetectionParams())
	if len(result.Interfaces) != 0 {
		t.Errorf("parallel same-direction planes must not mate")
	}
}

func TestDetectUsesWorldSpace(t *testing.T) {
	// Rotate the second cube 90 degrees about Z and place it so its
	// world -x side lands on the first cube's +x side. In local frame
	// that side is face 3 (+y).
	m := rotationZ90(20, 0, 0)
	parts := []Part{cube("a", Identity()), cube("b", m)}

	result := Detect(parts, DefaultDetectionParams())
	if len(result.Interfaces) == 0 {
		t.Fatal("expected interfaces between transformed cubes")
	}
	best := result.Interfaces[0]
	for _, iface := range result.Interfaces {
		if iface.Score > best.Score {
			best = iface
		}
	}
	if best.Kind != InterfaceFaceToFace {
		t.Errorf("kind = %v, want face_to_face", best.Kind)
	}
	approxf(t, best.Proximity, 0, 1e-9, "proximity")
	if best.FaceA != 1 || best.FaceB != 3 {
		t.Errorf("expected faces 1/4 to mate across the rotation, got %d/%d", best.FaceA, best.FaceB)
	}
}

func TestDetectEmptyAndSinglePart(t *testing.T) {
	if r := Detect(nil, DefaultDetectionParams()); len(r.Interfaces) != 0 || len(r.JunctionParts) != 0 {
		t.Errorf("empty assembly must detect nothing")
	}
	if r := Detect([]Part{cube("only", Identity())}, DefaultDetectionParams()); len(r.Interfaces) != 0 {
		t.Errorf("a single part has nothing to mate with")
	}
}
