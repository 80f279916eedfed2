package sim

import "fmt"

// ParticleTable is the canonical columnar particle representation: one
// index-aligned array per field. Wire payloads in either supported shape are
// normalized into this type at the codec boundary, so the kinematics engine
// never branches on input format.
type ParticleTable struct {
	PDGID  []int     `json:"pdg_id"`
	Px     []float64 `json:"px"`
	Py     []float64 `json:"py"`
	Pz     []float64 `json:"pz"`
	Energy []float64 `json:"energy"`
	Charge []float64 `json:"charge"`
	Mass   []float64 `json:"mass"`
}

// NewParticleTable returns an empty table with capacity n in every column.
func NewParticleTable(n int) *ParticleTable {
	return &ParticleTable{
		PDGID:  make([]int, 0, n),
		Px:     make([]float64, 0, n),
		Py:     make([]float64, 0, n),
		Pz:     make([]float64, 0, n),
		Energy: make([]float64, 0, n),
		Charge: make([]float64, 0, n),
		Mass:   make([]float64, 0, n),
	}
}

// Append adds one particle row to every column.
func (t *ParticleTable) Append(p Particle) {
	t.PDGID = append(t.PDGID, p.PDGID)
	t.Px = append(t.Px, p.Px)
	t.Py = append(t.Py, p.Py)
	t.Pz = append(t.Pz, p.Pz)
	t.Energy = append(t.Energy, p.Energy)
	t.Charge = append(t.Charge, p.Charge)
	t.Mass = append(t.Mass, p.Mass)
}

// Len returns the number of rows, defined by the pdg_id column.
func (t *ParticleTable) Len() int {
	return len(t.PDGID)
}

// Row materializes row i as a Particle value.
func (t *ParticleTable) Row(i int) Particle {
	return Particle{
		PDGID:  t.PDGID[i],
		Px:     t.Px[i],
		Py:     t.Py[i],
		Pz:     t.Pz[i],
		Energy: t.Energy[i],
		Charge: t.Charge[i],
		Mass:   t.Mass[i],
	}
}

// Validate checks that every column is index-aligned and matches the declared
// particle count. Returns a *ShapeError on the first violation.
func (t *ParticleTable) Validate(numParticles int) error {
	cols := []struct {
		name string
		n    int
	}{
		{"pdg_id", len(t.PDGID)},
		{"px", len(t.Px)},
		{"py", len(t.Py)},
		{"pz", len(t.Pz)},
		{"energy", len(t.Energy)},
		{"charge", len(t.Charge)},
		{"mass", len(t.Mass)},
	}
	for _, c := range cols {
		if c.n != numParticles {
			return &ShapeError{
				Field: c.name,
				Want:  numParticles,
				Got:   c.n,
			}
		}
	}
	return nil
}

// ShapeError reports a particle column that is missing or misaligned with the
// event's declared particle count. Callers branch on it with errors.As; it is
// never resolved locally by treating the event as empty.
type ShapeError struct {
	Field string
	Want  int
	Got   int
}

func (e *ShapeError) Error() string {
	if e.Got < 0 {
		return fmt.Sprintf("particle field %q is missing", e.Field)
	}
	return fmt.Sprintf("particle column %q has %d entries, want %d", e.Field, e.Got, e.Want)
}
