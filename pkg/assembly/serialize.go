package assembly

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/chazu/caliper/pkg/stackup"
)

// GraphFormatVersion is written into every serialized graph. Decoding
// rejects any other version.
const GraphFormatVersion = 1

// graphFile is the persisted graph layout: every map is flattened to a
// key-sorted list so the encoding is stable and round-trippable.
type graphFile struct {
	Version    int                `json:"version"`
	Parts      []*Part            `json:"parts"`
	Interfaces []*MatingInterface `json:"interfaces"`
	Chains     []*stackup.Chain   `json:"chains"`
	Adjacency  []adjacencyEntry   `json:"adjacency"`
}

type adjacencyEntry struct {
	PartID    string   `json:"part_id"`
	Neighbors []string `json:"neighbors"`
}

// EncodeGraph serializes a graph to versioned JSON with deterministic
// ordering.
func EncodeGraph(g *Graph) ([]byte, error) {
	file := graphFile{
		Version:    GraphFormatVersion,
		Parts:      make([]*Part, 0, len(g.Parts)),
		Interfaces: make([]*MatingInterface, 0, len(g.Interfaces)),
		Chains:     make([]*stackup.Chain, 0, len(g.Chains)),
		Adjacency:  make([]adjacencyEntry, 0, len(g.Adjacency)),
	}

	for _, id := range sortedKeys(g.Parts) {
		file.Parts = append(file.Parts, g.Parts[id])
	}
	for _, id := range sortedKeys(g.Interfaces) {
		file.Interfaces = append(file.Interfaces, g.Interfaces[id])
	}
	for _, id := range sortedKeys(g.Chains) {
		file.Chains = append(file.Chains, g.Chains[id])
	}
	for _, id := range sortedKeys(g.Adjacency) {
		file.Adjacency = append(file.Adjacency, adjacencyEntry{
			PartID:    id,
			Neighbors: g.Adjacency[id],
		})
	}

	return json.MarshalIndent(file, "", "  ")
}

// DecodeGraph restores a graph from its serialized form.
func DecodeGraph(data []byte) (*Graph, error) {
	var file graphFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	if file.Version != GraphFormatVersion {
		return nil, fmt.Errorf("decode graph: unsupported format version %d", file.Version)
	}

	g := &Graph{
		Parts:         make(map[string]*Part, len(file.Parts)),
		Interfaces:    make(map[string]*MatingInterface, len(file.Interfaces)),
		Chains:        make(map[string]*stackup.Chain, len(file.Chains)),
		Adjacency:     make(map[string][]string, len(file.Adjacency)),
		edgeInterface: make(map[[2]string]string),
	}
	for _, p := range file.Parts {
		g.Parts[p.ID] = p
	}
	for _, iface := range file.Interfaces {
		g.Interfaces[iface.ID] = iface
		ab := [2]string{iface.PartA, iface.PartB}
		if _, ok := g.edgeInterface[ab]; !ok {
			g.edgeInterface[ab] = iface.ID
			g.edgeInterface[[2]string{iface.PartB, iface.PartA}] = iface.ID
		}
	}
	for _, c := range file.Chains {
		g.Chains[c.ID] = c
	}
	for _, e := range file.Adjacency {
		g.Adjacency[e.PartID] = e.Neighbors
	}
	return g, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
