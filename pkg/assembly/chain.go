package assembly

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chazu/caliper/pkg/stackup"
)

// DefaultPartTolerance is the tolerance magnitude assumed for an
// auto-generated part-dimension link when the part carries no stated
// tolerance of its own.
const DefaultPartTolerance = 0.1

// GenerateChain auto-derives a tolerance chain from the shortest path
// between two parts: one interface_gap link per interface traversed
// (nominal from the measured proximity, tolerance and distribution
// from the detector's suggestion), and one part_dimension link per
// intermediate part (nominal from the distance between that part's two
// contact points). The chain's measurement direction is the unit
// vector between the end contact points. The generated chain is
// registered with the graph.
func (g *Graph) GenerateChain(start, end string) (*stackup.Chain, error) {
	path := g.FindPath(start, end)
	if path == nil {
		return nil, fmt.Errorf("no path between parts %q and %q", start, end)
	}
	if len(path.InterfaceIDs) == 0 {
		return nil, fmt.Errorf("parts %q and %q share no interface", start, end)
	}

	chain := &stackup.Chain{
		ID:   uuid.NewString(),
		Name: fmt.Sprintf("%s to %s", partName(g, start), partName(g, end)),
	}

	for i, ifaceID := range path.InterfaceIDs {
		iface := g.Interfaces[ifaceID]

		chain.Links = append(chain.Links, stackup.ChainLink{
			ID:           uuid.NewString(),
			Kind:         stackup.LinkInterfaceGap,
			Name:         fmt.Sprintf("%s gap %s/%s", iface.Kind, partName(g, iface.PartA), partName(g, iface.PartB)),
			InterfaceID:  iface.ID,
			Nominal:      iface.Proximity,
			PlusTol:      iface.SuggestedTolerance,
			MinusTol:     iface.SuggestedTolerance,
			Direction:    stackup.DirPositive,
			Distribution: iface.SuggestedDistribution,
			Sigma:        stackup.DefaultSigma,
		})

		// Intermediate parts span the distance between the contact
		// points of the interfaces on either side.
		if i+1 < len(path.InterfaceIDs) {
			next := g.Interfaces[path.InterfaceIDs[i+1]]
			partID := path.PartIDs[i+1]
			span := next.ContactPoint.Sub(iface.ContactPoint).Length()
			chain.Links = append(chain.Links, stackup.ChainLink{
				ID:           uuid.NewString(),
				Kind:         stackup.LinkPartDimension,
				Name:         partName(g, partID),
				PartID:       partID,
				Nominal:      span,
				PlusTol:      DefaultPartTolerance,
				MinusTol:     DefaultPartTolerance,
				Direction:    stackup.DirPositive,
				Distribution: stackup.DistNormal,
				Sigma:        stackup.DefaultSigma,
			})
		}
	}

	first := g.Interfaces[path.InterfaceIDs[0]]
	last := g.Interfaces[path.InterfaceIDs[len(path.InterfaceIDs)-1]]
	chain.StartDatumFace = first.FaceA
	chain.EndDatumFace = last.FaceB
	chain.Direction = [3]float64{1, 0, 0}
	if axis := last.ContactPoint.Sub(first.ContactPoint); axis.Length() > 1e-10 {
		unit := axis.DivScalar(axis.Length())
		chain.Direction = [3]float64{unit.X, unit.Y, unit.Z}
	}

	g.AddChain(chain)
	return chain, nil
}

func partName(g *Graph, id string) string {
	if p, ok := g.Parts[id]; ok && p.Name != "" {
		return p.Name
	}
	return id
}
