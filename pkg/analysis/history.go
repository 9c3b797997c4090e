package analysis

const (
	// historyCapacity bounds the probe ring buffer; old samples are
	// overwritten once full.
	historyCapacity = 4096
	// historySpan is the minimum simulated time the full buffer should
	// cover; samples arriving faster than span/capacity are decimated.
	historySpan = 1e-3
)

type sample struct {
	time   float64
	values []float64
}

// History is a fixed-capacity ring of probe readings, one value per circuit
// probe per accepted step. Decimation keeps fast transient runs from
// flushing slow features out of the buffer.
type History struct {
	capacity int
	span     float64

	samples []sample
	head    int
	count   int

	lastTime float64
	primed   bool
}

func NewHistory(capacity int, span float64) *History {
	return &History{
		capacity: capacity,
		span:     span,
		samples:  make([]sample, capacity),
	}
}

func (h *History) Clear() {
	h.head = 0
	h.count = 0
	h.lastTime = 0
	h.primed = false
}

func (h *History) Len() int { return h.count }

// Append records the current probe voltages at the simulation's present
// time, subject to decimation.
func (h *History) Append(s *Simulation) {
	probes := s.ckt.Probes()
	if len(probes) == 0 {
		return
	}

	minInterval := h.span / float64(h.capacity)
	if h.primed && s.time-h.lastTime < minInterval {
		return
	}

	values := make([]float64, len(probes))
	for i, p := range probes {
		values[i] = s.ProbeVoltage(p)
	}

	slot := (h.head + h.count) % h.capacity
	h.samples[slot] = sample{time: s.time, values: values}
	if h.count < h.capacity {
		h.count++
	} else {
		h.head = (h.head + 1) % h.capacity
	}

	h.lastTime = s.time
	h.primed = true
}

// GetHistory copies up to maxPoints of the most recent samples for one probe
// into the caller's slices, oldest first, and returns how many were written.
func (h *History) GetHistory(probeIdx int, times, values []float64, maxPoints int) int {
	n := h.count
	if n > maxPoints {
		n = maxPoints
	}
	if n > len(times) {
		n = len(times)
	}
	if n > len(values) {
		n = len(values)
	}
	if n <= 0 {
		return 0
	}

	start := h.count - n
	for i := 0; i < n; i++ {
		sm := h.samples[(h.head+start+i)%h.capacity]
		times[i] = sm.time
		if probeIdx >= 0 && probeIdx < len(sm.values) {
			values[i] = sm.values[probeIdx]
		} else {
			values[i] = 0
		}
	}
	return n
}
