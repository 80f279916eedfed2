package sim

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

const (
	// Z pole mass and width in GeV, used for the dilepton flavor draw.
	resonanceMassGeV  = 91.2
	resonanceWidthGeV = 2.5

	dileptonPtMeanGeV = 30.0
	dileptonEtaSigma  = 2.0
	dileptonPzSmear   = 10.0

	partonPtMeanGeV  = 50.0
	partonPtFloorGeV = 20.0
	partonEtaRange   = 2.5
	minPartons       = 2
	maxPartons       = 6
)

// GeneratorConfig fixes the per-instance generator parameters.
type GeneratorConfig struct {
	COMEnergy float64 // center-of-mass energy in GeV
	RunNumber int64   // fixed for the instance lifetime
}

// EventGenerator synthesizes collision events. It owns a monotonically
// increasing event counter and the injected RNG; confine one instance per
// goroutine or guard calls externally.
type EventGenerator struct {
	comEnergy float64
	runNumber int64
	counter   int64
	rng       *rand.Rand

	// now and newID are swappable for tests.
	now   func() time.Time
	newID func() string
}

// NewEventGenerator creates a generator with the given configuration and
// randomness source. The RNG is the only entropy the generator consumes, so a
// seeded source makes the kinematic content of the stream deterministic.
func NewEventGenerator(cfg GeneratorConfig, rng *rand.Rand) *EventGenerator {
	return &EventGenerator{
		comEnergy: cfg.COMEnergy,
		runNumber: cfg.RunNumber,
		rng:       rng,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// GenerateEvent synthesizes one event of the requested type. EventRandom
// picks uniformly between dilepton and qcd and records the resolved type on
// the event.
func (g *EventGenerator) GenerateEvent(eventType EventType) (*Event, error) {
	resolved := eventType
	if resolved == EventRandom {
		if g.rng.Float64() < 0.5 {
			resolved = EventDilepton
		} else {
			resolved = EventQCD
		}
	}

	var particles []Particle
	switch resolved {
	case EventDilepton:
		particles = g.generateDilepton()
	case EventQCD:
		particles = g.generateQCD()
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}

	g.counter++
	return &Event{
		EventID:     g.newID(),
		RunNumber:   g.runNumber,
		EventNumber: g.counter,
		Timestamp:   g.now().UTC(),
		COMEnergy:   g.comEnergy,
		Type:        resolved,
		Particles:   particles,
	}, nil
}

// GenerateBatch produces n independent events via the random type selector,
// sharing this generator's run number and counter sequence.
func (g *EventGenerator) GenerateBatch(n int) ([]*Event, error) {
	events := make([]*Event, 0, n)
	for i := 0; i < n; i++ {
		ev, err := g.GenerateEvent(EventRandom)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// generateDilepton produces a mu+ mu- pair from a resonance decay. The
// resonance mass is sampled for flavor context only; the decay kinematics
// below are generated independently and do not enforce it on the pair. That
// is an intentional simplification of the toy model, not a defect.
func (g *EventGenerator) generateDilepton() []Particle {
	_ = g.rng.NormFloat64()*resonanceWidthGeV + resonanceMassGeV

	pt := g.rng.ExpFloat64() * dileptonPtMeanGeV
	phi := g.rng.Float64() * 2 * math.Pi
	eta := g.rng.NormFloat64() * dileptonEtaSigma

	px := pt * math.Cos(phi)
	py := pt * math.Sin(phi)
	pz := pt * math.Sinh(eta)

	muPlus := Particle{
		PDGID:  -PDGMuon,
		Px:     px,
		Py:     py,
		Pz:     pz,
		Energy: muonEnergy(px, py, pz),
		Charge: 1,
		Mass:   MuonMassGeV,
	}

	// Back-to-back partner with a small longitudinal boost.
	pz2 := -pz + g.rng.NormFloat64()*dileptonPzSmear
	muMinus := Particle{
		PDGID:  PDGMuon,
		Px:     -px,
		Py:     -py,
		Pz:     pz2,
		Energy: muonEnergy(-px, -py, pz2),
		Charge: -1,
		Mass:   MuonMassGeV,
	}

	return []Particle{muPlus, muMinus}
}

// generateQCD produces 2-6 massless partons with a 20 GeV pt floor.
func (g *EventGenerator) generateQCD() []Particle {
	n := minPartons + g.rng.Intn(maxPartons-minPartons+1)
	flavors := []int{PDGQuarkUp, PDGQuarkDown, -PDGQuarkUp, -PDGQuarkDown}

	particles := make([]Particle, 0, n)
	for i := 0; i < n; i++ {
		pt := g.rng.ExpFloat64()*partonPtMeanGeV + partonPtFloorGeV
		eta := g.rng.Float64()*2*partonEtaRange - partonEtaRange
		phi := g.rng.Float64() * 2 * math.Pi

		px := pt * math.Cos(phi)
		py := pt * math.Sin(phi)
		pz := pt * math.Sinh(eta)

		pdg := flavors[g.rng.Intn(len(flavors))]
		charge := -1.0 / 3.0
		if pdg == PDGQuarkUp || pdg == -PDGQuarkUp {
			charge = 2.0 / 3.0
		}

		particles = append(particles, Particle{
			PDGID:  pdg,
			Px:     px,
			Py:     py,
			Pz:     pz,
			Energy: math.Sqrt(px*px + py*py + pz*pz),
			Charge: charge,
			Mass:   0,
		})
	}
	return particles
}

// muonEnergy computes E = sqrt(|p|^2 + m_mu^2).
func muonEnergy(px, py, pz float64) float64 {
	return math.Sqrt(px*px + py*py + pz*pz + MuonMassGeV*MuonMassGeV)
}
