package sim

import "time"

// EventType selects which physics process the generator synthesizes.
type EventType string

const (
	// EventDilepton is a two-muon resonance decay.
	EventDilepton EventType = "dilepton"

	// EventQCD is a 2-6 parton multi-jet event.
	EventQCD EventType = "qcd"

	// EventRandom picks uniformly between dilepton and qcd per event.
	EventRandom EventType = "random"
)

// Event is a single synthesized collision. Created once by the generator and
// never mutated afterward.
type Event struct {
	EventID     string
	RunNumber   int64
	EventNumber int64
	Timestamp   time.Time
	COMEnergy   float64
	Type        EventType
	Particles   []Particle
}

// NumParticles returns len(Particles).
func (e *Event) NumParticles() int {
	return len(e.Particles)
}

// TotalEnergy returns the scalar sum of particle energies.
func (e *Event) TotalEnergy() float64 {
	sum := 0.0
	for _, p := range e.Particles {
		sum += p.Energy
	}
	return sum
}

// Table converts the row-oriented particle slice into the canonical columnar
// representation consumed by the kinematics engine.
func (e *Event) Table() *ParticleTable {
	t := NewParticleTable(len(e.Particles))
	for _, p := range e.Particles {
		t.Append(p)
	}
	return t
}
