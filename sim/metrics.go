package sim

import (
	"fmt"
	"math"
	"time"
)

// RunMetrics accumulates counters over one generation/analysis run.
// Not safe for concurrent use; each worker keeps its own and merges.
type RunMetrics struct {
	EventsGenerated    int64
	EventsByType       map[EventType]int64
	ParticlesGenerated int64

	TriggerAccepted int64
	TriggerRejected int64

	InvariantMassSum float64
	InvariantMassMax float64
	MissingETSum     float64
}

// NewRunMetrics returns a zeroed metrics accumulator.
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{
		EventsByType: make(map[EventType]int64),
	}
}

// RecordEvent tallies one generated event.
func (m *RunMetrics) RecordEvent(ev *Event) {
	m.EventsGenerated++
	m.EventsByType[ev.Type]++
	m.ParticlesGenerated += int64(len(ev.Particles))
}

// RecordKinematics tallies one reconstructed event and its trigger decision.
func (m *RunMetrics) RecordKinematics(k Kinematics, accepted bool) {
	m.InvariantMassSum += k.InvariantMass
	m.InvariantMassMax = math.Max(m.InvariantMassMax, k.InvariantMass)
	m.MissingETSum += k.MissingET
	if accepted {
		m.TriggerAccepted++
	} else {
		m.TriggerRejected++
	}
}

// Merge folds another accumulator into this one.
func (m *RunMetrics) Merge(other *RunMetrics) {
	m.EventsGenerated += other.EventsGenerated
	for t, n := range other.EventsByType {
		m.EventsByType[t] += n
	}
	m.ParticlesGenerated += other.ParticlesGenerated
	m.TriggerAccepted += other.TriggerAccepted
	m.TriggerRejected += other.TriggerRejected
	m.InvariantMassSum += other.InvariantMassSum
	m.InvariantMassMax = math.Max(m.InvariantMassMax, other.InvariantMassMax)
	m.MissingETSum += other.MissingETSum
}

// Print writes a run summary to stdout.
func (m *RunMetrics) Print(start time.Time) {
	fmt.Println("=== Collider Run Metrics ===")
	fmt.Printf("Events Generated     : %d\n", m.EventsGenerated)
	for _, t := range []EventType{EventDilepton, EventQCD} {
		if n, ok := m.EventsByType[t]; ok {
			fmt.Printf("  %-18s : %d\n", t, n)
		}
	}
	fmt.Printf("Particles Generated  : %d\n", m.ParticlesGenerated)

	reconstructed := m.TriggerAccepted + m.TriggerRejected
	if reconstructed > 0 {
		fmt.Printf("Trigger Accepted     : %d (%.1f%%)\n",
			m.TriggerAccepted, 100*float64(m.TriggerAccepted)/float64(reconstructed))
		fmt.Printf("Average Invariant Mass : %.2f GeV\n", m.InvariantMassSum/float64(reconstructed))
		fmt.Printf("Max Invariant Mass   : %.2f GeV\n", m.InvariantMassMax)
		fmt.Printf("Average Missing ET   : %.2f GeV\n", m.MissingETSum/float64(reconstructed))
	}
	fmt.Printf("Wall Clock           : %v\n", time.Since(start).Round(time.Millisecond))
}
