package assembly

import (
	"math"
	"sort"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/caliper/pkg/stackup"
)

// Graph is the assembly adjacency structure: parts, detected
// interfaces, derived tolerance chains, and a symmetric part adjacency
// mapping. It is built once per assembly load and rebuilt wholesale on
// reload; there is no incremental update.
type Graph struct {
	Parts      map[string]*Part            `json:"-"`
	Interfaces map[string]*MatingInterface `json:"-"`
	Chains     map[string]*stackup.Chain   `json:"-"`
	// Adjacency maps a part id to its neighbor part ids, kept sorted
	// for deterministic traversal. Symmetric by construction.
	Adjacency map[string][]string `json:"-"`

	// edgeInterface records the first interface registered between an
	// ordered part pair, for path reconstruction.
	edgeInterface map[[2]string]string
}

// BuildGraph assembles parts and detected interfaces into a Graph.
// Both (A->B) and (B->A) are inserted for each interface, then
// deduplicated and sorted.
func BuildGraph(parts []Part, interfaces []MatingInterface) *Graph {
	g := &Graph{
		Parts:         make(map[string]*Part, len(parts)),
		Interfaces:    make(map[string]*MatingInterface, len(interfaces)),
		Chains:        make(map[string]*stackup.Chain),
		Adjacency:     make(map[string][]string),
		edgeInterface: make(map[[2]string]string),
	}

	for i := range parts {
		p := parts[i]
		g.Parts[p.ID] = &p
	}

	seen := make(map[[2]string]bool)
	for i := range interfaces {
		iface := interfaces[i]
		g.Interfaces[iface.ID] = &iface

		ab := [2]string{iface.PartA, iface.PartB}
		ba := [2]string{iface.PartB, iface.PartA}
		if _, ok := g.edgeInterface[ab]; !ok {
			g.edgeInterface[ab] = iface.ID
			g.edgeInterface[ba] = iface.ID
		}
		if !seen[ab] {
			seen[ab] = true
			seen[ba] = true
			g.Adjacency[iface.PartA] = append(g.Adjacency[iface.PartA], iface.PartB)
			g.Adjacency[iface.PartB] = append(g.Adjacency[iface.PartB], iface.PartA)
		}
	}

	for id := range g.Adjacency {
		sort.Strings(g.Adjacency[id])
	}
	return g
}

// AddChain registers a tolerance chain with the graph.
func (g *Graph) AddChain(c *stackup.Chain) {
	g.Chains[c.ID] = c
}

// InterfaceBetween returns the interface joining two adjacent parts,
// or nil. When several interfaces join the same pair, the first one
// registered wins.
func (g *Graph) InterfaceBetween(a, b string) *MatingInterface {
	id, ok := g.edgeInterface[[2]string{a, b}]
	if !ok {
		return nil
	}
	return g.Interfaces[id]
}

// Path is a sequence of parts joined by interfaces.
type Path struct {
	PartIDs      []string `json:"part_ids"`
	InterfaceIDs []string `json:"interface_ids"`
}

// FindPath runs breadth-first search over the adjacency mapping and
// returns the first (hence shortest, unweighted) path from start to
// end, or nil when the parts are disconnected or unknown. Ties among
// equal-length paths resolve to the lexicographically smallest
// neighbor, since adjacency lists are kept sorted.
func (g *Graph) FindPath(start, end string) *Path {
	if _, ok := g.Parts[start]; !ok {
		return nil
	}
	if _, ok := g.Parts[end]; !ok {
		return nil
	}
	if start == end {
		return &Path{PartIDs: []string{start}}
	}

	parent := map[string]string{start: ""}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Adjacency[cur] {
			if _, visited := parent[next]; visited {
				continue
			}
			parent[next] = cur
			if next == end {
				return g.reconstruct(parent, start, end)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func (g *Graph) reconstruct(parent map[string]string, start, end string) *Path {
	var partIDs []string
	for cur := end; cur != ""; cur = parent[cur] {
		partIDs = append(partIDs, cur)
	}
	// Reverse into start..end order.
	for i, j := 0, len(partIDs)-1; i < j; i, j = i+1, j-1 {
		partIDs[i], partIDs[j] = partIDs[j], partIDs[i]
	}

	path := &Path{PartIDs: partIDs}
	for i := 0; i+1 < len(partIDs); i++ {
		if iface := g.InterfaceBetween(partIDs[i], partIDs[i+1]); iface != nil {
			path.InterfaceIDs = append(path.InterfaceIDs, iface.ID)
		}
	}
	return path
}

// Bounds returns the exact world-space axis-aligned bound of the
// assembly: each part's eight bounding-box corners are transformed and
// the componentwise min/max taken across all parts. This is exact,
// unlike transforming the boxes and unioning them. An empty graph
// yields a zero box.
func (g *Graph) Bounds() sdf.Box3 {
	first := true
	var bounds sdf.Box3

	for _, p := range g.Parts {
		for _, corner := range boxCorners(p.Bounds) {
			w := p.Transform.Point(corner)
			if first {
				bounds = sdf.Box3{Min: w, Max: w}
				first = false
				continue
			}
			bounds.Min = vecMin(bounds.Min, w)
			bounds.Max = vecMax(bounds.Max, w)
		}
	}
	return bounds
}

func boxCorners(b sdf.Box3) [8]v3.Vec {
	return [8]v3.Vec{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}

func vecMin(a, b v3.Vec) v3.Vec {
	return v3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func vecMax(a, b v3.Vec) v3.Vec {
	return v3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}
