package assembly

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/caliper/pkg/stackup"
)

// FaceKind classifies a part face by its underlying surface.
type FaceKind int

const (
	FacePlanar FaceKind = iota
	FaceCylindrical
	FaceConical
	FaceSpherical
	FaceToroidal
	FaceFreeform
)

func (k FaceKind) String() string {
	switch k {
	case FacePlanar:
		return "planar"
	case FaceCylindrical:
		return "cylindrical"
	case FaceConical:
		return "conical"
	case FaceSpherical:
		return "spherical"
	case FaceToroidal:
		return "toroidal"
	case FaceFreeform:
		return "freeform"
	default:
		return fmt.Sprintf("FaceKind(%d)", int(k))
	}
}

// Face is a per-face geometric summary in the part's local frame.
// Radius and Axis are set for curved faces only.
type Face struct {
	ID     int64    `json:"id"` // global face id from the geometry front end
	Kind   FaceKind `json:"kind"`
	Center v3.Vec   `json:"center"`
	Normal v3.Vec   `json:"normal"` // unit vector
	Area   float64  `json:"area"`   // mm^2
	Radius *float64 `json:"radius,omitempty"`
	Axis   *v3.Vec  `json:"axis,omitempty"`
}

// Part is one component of the assembly. Faces are embedded, not
// shared; the transform maps the part's local frame to world space.
type Part struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	StepEntityID int64     `json:"step_entity_id,omitempty"`
	Transform    Transform `json:"transform"`
	Bounds       sdf.Box3  `json:"bounds"` // local-frame axis-aligned box
	Faces        []Face    `json:"faces"`
	Color        string    `json:"color,omitempty"`
}

// InterfaceKind classifies a detected contact between two parts.
type InterfaceKind int

const (
	InterfaceFaceToFace InterfaceKind = iota
	InterfacePinInHole
	InterfaceShaftInBore
	InterfaceThreadEngagement
	InterfaceUnknown
)

func (k InterfaceKind) String() string {
	switch k {
	case InterfaceFaceToFace:
		return "face_to_face"
	case InterfacePinInHole:
		return "pin_in_hole"
	case InterfaceShaftInBore:
		return "shaft_in_bore"
	case InterfaceThreadEngagement:
		return "thread_engagement"
	case InterfaceUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("InterfaceKind(%d)", int(k))
	}
}

// MatingInterface is a detected physical contact between a face of one
// part and a face of another. Created once per detector run and
// immutable thereafter; consumed by chain auto-generation.
type MatingInterface struct {
	ID              string        `json:"id"`
	PartA           string        `json:"part_a"`
	FaceA           int64         `json:"face_a"`
	PartB           string        `json:"part_b"`
	FaceB           int64         `json:"face_b"`
	Kind            InterfaceKind `json:"kind"`
	Proximity       float64       `json:"proximity"`        // distance between face centers, mm
	NormalAlignment float64       `json:"normal_alignment"` // |dot| of world normals, 0-1
	ContactArea     float64       `json:"contact_area"`     // estimated, mm^2
	ContactPoint    v3.Vec        `json:"contact_point"`    // midpoint of the face centers
	Score           float64       `json:"score"`            // detector ranking score

	// Suggested defaults for a chain link generated from this interface.
	SuggestedTolerance    float64              `json:"suggested_tolerance"`
	SuggestedDistribution stackup.Distribution `json:"suggested_distribution"`
}
