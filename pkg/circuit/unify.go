package circuit

import (
	"fmt"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/device"
)

// unionFind is a plain disjoint-set with path compression over raw node ids.
type unionFind struct {
	parent map[int]int
}

func newUnionFind(nodes []*Node) *unionFind {
	uf := &unionFind{parent: make(map[int]int, len(nodes))}
	for _, n := range nodes {
		uf.parent[n.ID] = n.ID
	}
	return uf
}

func (uf *unionFind) find(id int) int {
	root := id
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[id] != root {
		uf.parent[id], id = root, uf.parent[id]
	}
	return root
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[rb] = ra
	}
}

// BuildNodeMap collapses the raw node graph into the minimal set of
// electrically distinct nodes: coincident positions, wired endpoints and all
// ground terminals merge. The canonical ground root gets matrix index 0;
// every other root gets a distinct index starting at 1 in node-creation
// order. Must run after every topology change and once per solve call.
func (c *Circuit) BuildNodeMap() error {
	uf := newUnionFind(c.nodes)

	// Coincident terminals merge even without an explicit wire.
	for i := 0; i < len(c.nodes); i++ {
		for j := i + 1; j < len(c.nodes); j++ {
			if c.nodes[i].Pos.DistanceTo(c.nodes[j].Pos) <= consts.SnapTolerance {
				uf.union(c.nodes[i].ID, c.nodes[j].ID)
			}
		}
	}

	for _, w := range c.wires {
		uf.union(w.N1, w.N2)
	}

	// All ground symbols are one rail.
	groundRoot := -1
	for _, comp := range c.components {
		if comp.GetType() != "GND" {
			continue
		}
		terminal := comp.Terminals()[0]
		if groundRoot < 0 {
			groundRoot = terminal
		} else {
			uf.union(groundRoot, terminal)
		}
	}
	if groundRoot < 0 {
		for _, n := range c.nodes {
			if n.IsGround {
				groundRoot = n.ID
				break
			}
		}
	}
	if groundRoot < 0 {
		return fmt.Errorf("circuit has no ground node")
	}
	groundRoot = uf.find(groundRoot)

	c.nodeMap = make(map[int]int, len(c.nodes))
	rootIndex := map[int]int{groundRoot: 0}
	nextIndex := 1
	for _, n := range c.nodes {
		root := uf.find(n.ID)
		idx, ok := rootIndex[root]
		if !ok {
			idx = nextIndex
			nextIndex++
			rootIndex[root] = idx
		}
		c.nodeMap[n.ID] = idx
	}
	c.numMatrixNodes = nextIndex - 1

	if c.numMatrixNodes == 0 {
		return fmt.Errorf("circuit has no electrical nodes besides ground")
	}

	return nil
}

// BindMatrix rebinds every component to compact matrix indices and hands out
// the extra unknowns (branch currents and subcircuit internal nodes) in
// component order. Returns the allocator so the caller knows the final matrix
// size and which extra slots are nodes.
func (c *Circuit) BindMatrix() *device.IndexAllocator {
	alloc := device.NewIndexAllocator(c.numMatrixNodes)

	for _, comp := range c.components {
		if ex, ok := comp.(device.Expander); ok {
			ex.AllocateExtra(alloc)
		}
	}
	for _, comp := range c.components {
		terms := comp.Terminals()
		nodes := make([]int, len(terms))
		for i, id := range terms {
			nodes[i] = c.nodeMap[id]
		}
		comp.Bind(nodes)
	}

	return alloc
}

// NonLinearComponents lists components needing per-iteration relinearization.
func (c *Circuit) NonLinearComponents() []device.NonLinear {
	var out []device.NonLinear
	for _, comp := range c.components {
		if nl, ok := comp.(device.NonLinear); ok {
			out = append(out, nl)
		}
	}
	return out
}
