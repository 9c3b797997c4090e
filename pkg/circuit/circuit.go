package circuit

import (
	"math"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/device"
)

// Point is a schematic position.
type Point struct {
	X, Y float64
}

func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Node is a connection point in the schematic. Voltage is overwritten by
// every solve; Refs counts terminals, wire endpoints and probes holding on
// to it.
type Node struct {
	ID       int
	Pos      Point
	Voltage  float64
	IsGround bool
	Refs     int
}

// Wire joins two nodes. Current is derived after each accepted step for
// visualization only; it is not a matrix unknown. Path is a rendering hint.
type Wire struct {
	ID      int
	N1, N2  int
	Current float64
	Path    []Point
}

// Probe watches one node's voltage; probe readings feed the history buffer.
type Probe struct {
	ID     int
	NodeID int
	Label  string
}

// Circuit owns every node, wire, component and probe of one schematic, plus
// the compacted node map rebuilt before every solve pass.
type Circuit struct {
	nodes      []*Node // creation order, which fixes matrix index order
	wires      []*Wire
	components []device.Component
	probes     []*Probe

	nextNodeID  int
	nextWireID  int
	nextProbeID int

	nodeMap        map[int]int // raw node id -> compact matrix index
	numMatrixNodes int

	modified bool
}

func New() *Circuit {
	return &Circuit{
		nextNodeID:  1,
		nextWireID:  1,
		nextProbeID: 1,
		nodeMap:     make(map[int]int),
	}
}

// NodeAt returns the node within snap tolerance of p, creating one when
// nothing is close enough. This is the same tolerance unification later uses,
// so coincident terminals always end up merged.
func (c *Circuit) NodeAt(p Point) *Node {
	for _, n := range c.nodes {
		if n.Pos.DistanceTo(p) <= consts.SnapTolerance {
			return n
		}
	}
	n := &Node{ID: c.nextNodeID, Pos: p}
	c.nextNodeID++
	c.nodes = append(c.nodes, n)
	return n
}

func (c *Circuit) NodeByID(id int) *Node {
	for _, n := range c.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Place connects a component's terminals to nodes at the given positions,
// one per terminal, and adds it to the circuit.
func (c *Circuit) Place(comp device.Component, positions ...Point) {
	ids := make([]int, comp.NumTerminals())
	for i := range ids {
		if i < len(positions) {
			n := c.NodeAt(positions[i])
			if comp.GetType() == "GND" {
				n.IsGround = true
			}
			ids[i] = n.ID
		}
	}
	comp.SetTerminals(ids)
	c.components = append(c.components, comp)
	c.touch()
}

// AddWire joins the nodes at two positions. Wires between a node and itself
// are dropped.
func (c *Circuit) AddWire(a, b Point) *Wire {
	n1 := c.NodeAt(a)
	n2 := c.NodeAt(b)
	if n1.ID == n2.ID {
		return nil
	}
	w := &Wire{ID: c.nextWireID, N1: n1.ID, N2: n2.ID, Path: []Point{a, b}}
	c.nextWireID++
	c.wires = append(c.wires, w)
	c.touch()
	return w
}

// AddProbe watches the node at p.
func (c *Circuit) AddProbe(p Point, label string) *Probe {
	n := c.NodeAt(p)
	pr := &Probe{ID: c.nextProbeID, NodeID: n.ID, Label: label}
	c.nextProbeID++
	c.probes = append(c.probes, pr)
	c.touch()
	return pr
}

func (c *Circuit) RemoveComponent(comp device.Component) {
	for i, cc := range c.components {
		if cc == comp {
			c.components = append(c.components[:i], c.components[i+1:]...)
			break
		}
	}
	c.touch()
}

func (c *Circuit) RemoveWire(w *Wire) {
	for i, ww := range c.wires {
		if ww == w {
			c.wires = append(c.wires[:i], c.wires[i+1:]...)
			break
		}
	}
	c.touch()
}

func (c *Circuit) RemoveProbe(p *Probe) {
	for i, pp := range c.probes {
		if pp == p {
			c.probes = append(c.probes[:i], c.probes[i+1:]...)
			break
		}
	}
	c.touch()
}

// touch marks the circuit dirty and drops nodes nothing references anymore.
func (c *Circuit) touch() {
	c.modified = true
	c.collectNodes()
}

func (c *Circuit) collectNodes() {
	used := make(map[int]int)
	for _, comp := range c.components {
		for _, id := range comp.Terminals() {
			used[id]++
		}
	}
	for _, w := range c.wires {
		used[w.N1]++
		used[w.N2]++
	}
	for _, p := range c.probes {
		used[p.NodeID]++
	}

	kept := c.nodes[:0]
	for _, n := range c.nodes {
		if refs := used[n.ID]; refs > 0 {
			n.Refs = refs
			kept = append(kept, n)
		}
	}
	c.nodes = kept
}

func (c *Circuit) Nodes() []*Node                  { return c.nodes }
func (c *Circuit) Wires() []*Wire                  { return c.wires }
func (c *Circuit) Components() []device.Component  { return c.components }
func (c *Circuit) Probes() []*Probe                { return c.probes }
func (c *Circuit) NumMatrixNodes() int             { return c.numMatrixNodes }
func (c *Circuit) Modified() bool                  { return c.modified }
func (c *Circuit) ClearModified()                  { c.modified = false }

// MatrixIndex maps a raw node id to its compact matrix index (0 = ground).
func (c *Circuit) MatrixIndex(rawID int) int {
	return c.nodeMap[rawID]
}
