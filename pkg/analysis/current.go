package analysis

import (
	"github.com/edaworks/schemsim/pkg/circuit"
	"github.com/edaworks/schemsim/pkg/device"
)

// updateWireCurrents back-annotates a display current onto every wire after
// an accepted step. Wire currents are not matrix unknowns; the value is
// reconstructed from the current-reporting devices hanging off each side of
// the wire. Ambiguous topologies (wire loops) get zero rather than a wrong
// sign.
func (s *Simulation) updateWireCurrents() {
	wires := s.ckt.Wires()
	if len(wires) == 0 {
		return
	}

	// Net current each device delivers into its terminal nodes. Positive
	// device current flows terminal 0 -> terminal 1 internally, so it leaves
	// node 0 and arrives at node 1.
	inject := make(map[int]float64)
	for _, comp := range s.ckt.Components() {
		cr, ok := comp.(device.CurrentReporter)
		if !ok {
			continue
		}
		terms := comp.Terminals()
		if len(terms) < 2 {
			continue
		}
		i := cr.Current(s.solution)
		inject[terms[0]] -= i
		inject[terms[1]] += i
	}

	for _, w := range wires {
		w.Current = s.wireCurrent(w, wires, inject)
	}
}

// wireCurrent removes the target wire from the wire graph and flood-fills
// from its N1 end. If the two ends stay disconnected, conservation forces
// the wire to carry the visited side's net injection.
func (s *Simulation) wireCurrent(target *circuit.Wire, wires []*circuit.Wire, inject map[int]float64) float64 {
	visited := map[int]bool{target.N1: true}
	queue := []int{target.N1}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, w := range wires {
			if w == target {
				continue
			}
			var next int
			switch n {
			case w.N1:
				next = w.N2
			case w.N2:
				next = w.N1
			default:
				continue
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	if visited[target.N2] {
		return 0
	}

	sum := 0.0
	for n := range visited {
		sum += inject[n]
	}
	return sum
}
