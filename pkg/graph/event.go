package graph

import "sort"

// Event is something a node's schedule can fire at a given absolute
// sample index. Activate typically calls a typed setter on the node
// behind target (installing a new Ramp) or, for compound events such as
// a drum hit, schedules follow-on events on g and marks its owning
// ControlObject for a mid-window refresh.
//
// target is the Holder spec.md §4.3/§9 describes: a NodeID the activator
// resolves through g, rather than a raw back-pointer the event stores
// itself. This keeps event values cheap to construct and avoids pinning
// nodes that have since been removed from the graph.
type Event interface {
	Activate(g *Graph, target NodeID, sampleNum uint64)
}

// EventMap is the sample-indexed event schedule: keys are absolute
// sample numbers relative to the owning node's own counter, values are
// the events that fire at that sample, in insertion order.
type EventMap struct {
	keys []uint64
	data map[uint64][]Event
}

// NewEventMap creates an empty schedule.
func NewEventMap() *EventMap {
	return &EventMap{data: make(map[uint64][]Event)}
}

// Add schedules e to fire at the given absolute sample index.
func (m *EventMap) Add(at uint64, e Event) {
	if list, ok := m.data[at]; ok {
		m.data[at] = append(list, e)
		return
	}
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= at })
	m.keys = append(m.keys, 0)
	copy(m.keys[i+1:], m.keys[i:])
	m.keys[i] = at
	m.data[at] = []Event{e}
}

// KeysInRange returns the sorted sample indices in [lo, hi) that have
// events scheduled.
func (m *EventMap) KeysInRange(lo, hi uint64) []uint64 {
	start := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= lo })
	end := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= hi })
	out := make([]uint64, end-start)
	copy(out, m.keys[start:end])
	return out
}

// Take pops and returns the events scheduled at the given sample index.
func (m *EventMap) Take(at uint64) []Event {
	list, ok := m.data[at]
	if !ok {
		return nil
	}
	delete(m.data, at)
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= at })
	if i < len(m.keys) && m.keys[i] == at {
		m.keys = append(m.keys[:i], m.keys[i+1:]...)
	}
	return list
}

// CancelRange removes every event scheduled in [lo, hi), used by events
// (e.g. a drum re-hit) that must supersede a still-pending envelope.
func (m *EventMap) CancelRange(lo, hi uint64) {
	for _, k := range m.KeysInRange(lo, hi) {
		delete(m.data, k)
	}
	start := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= lo })
	end := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= hi })
	m.keys = append(m.keys[:start], m.keys[end:]...)
}

// ControlObject is embedded by every schedulable node: it owns the
// node's EventMap and monotonically increasing sample counter, and
// drives the per-sample event-firing loop described in spec.md §4.3.
type ControlObject struct {
	Events        *EventMap
	currentSample uint64
	refresh       bool
	self          NodeID
}

// InitControlObject must be called once, typically from a node's
// constructor, before the node is added to a Graph.
func InitControlObject(c *ControlObject) {
	c.Events = NewEventMap()
	c.self = Invalid
}

// SetSelf records the Holder (this node's own NodeID) once it has been
// added to a Graph, so events it schedules for itself can be activated
// uniformly with events targeting other nodes.
func (c *ControlObject) SetSelf(id NodeID) { c.self = id }

// Self returns this node's own Holder.
func (c *ControlObject) Self() NodeID { return c.self }

// CurrentSample returns the node's own monotonic sample counter.
func (c *ControlObject) CurrentSample() uint64 { return c.currentSample }

// RequestRefresh marks that the event map changed during a firing
// callback (e.g. a follow-on event was scheduled inside the current
// window) so the pull loop re-queries the key range before continuing.
func (c *ControlObject) RequestRefresh() { c.refresh = true }

// Advance runs the per-sample event/processing loop for nframes samples:
// for each sample index it fires every event scheduled at that absolute
// index (in insertion order, honouring a mid-window refresh), then calls
// perSample so the node can do its own per-sample DSP work. It always
// advances CurrentSample by exactly nframes, even if perSample or an
// event activation is a no-op — satisfying the §8 invariant that a
// node's sample counter advances by exactly n regardless of errors.
func (c *ControlObject) Advance(g *Graph, target NodeID, nframes int, perSample func(i int)) {
	start := c.currentSample
	events := c.Events.KeysInRange(start, start+uint64(nframes))
	keyIdx := 0

	for i := 0; i < nframes; i++ {
		now := start + uint64(i)

		if c.refresh {
			events = c.Events.KeysInRange(now, start+uint64(nframes))
			keyIdx = 0
			c.refresh = false
		}

		for keyIdx < len(events) && events[keyIdx] == now {
			fired := c.Events.Take(now)
			for _, e := range fired {
				e.Activate(g, target, now)
			}
			keyIdx++
		}

		if perSample != nil {
			perSample(i)
		}
	}

	c.currentSample += uint64(nframes)
}
