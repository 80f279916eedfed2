package sim

import "math"

// PDG Monte Carlo particle numbering codes used by the generator and the
// reconstruction counters. Sign encodes particle vs. antiparticle.
const (
	PDGQuarkDown = 1
	PDGQuarkUp   = 2
	PDGElectron  = 11
	PDGMuon      = 13
	PDGPhoton    = 22
)

// MuonMassGeV is the muon rest mass in GeV.
const MuonMassGeV = 0.106

// Particle is an immutable four-vector plus species metadata.
// Momentum components and energy are in GeV.
type Particle struct {
	PDGID  int
	Px     float64
	Py     float64
	Pz     float64
	Energy float64
	Charge float64
	Mass   float64
}

// Pt returns the transverse momentum sqrt(px^2 + py^2).
func (p Particle) Pt() float64 {
	return math.Sqrt(p.Px*p.Px + p.Py*p.Py)
}

// Phi returns the azimuthal angle atan2(py, px).
func (p Particle) Phi() float64 {
	return math.Atan2(p.Py, p.Px)
}

// IsLepton reports whether the PDG code identifies an electron or muon
// (either sign).
func (p Particle) IsLepton() bool {
	abs := p.PDGID
	if abs < 0 {
		abs = -abs
	}
	return abs == PDGElectron || abs == PDGMuon
}

// IsPhoton reports whether the PDG code identifies a photon.
func (p Particle) IsPhoton() bool {
	return p.PDGID == PDGPhoton
}
