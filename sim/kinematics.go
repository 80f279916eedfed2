package sim

import (
	"math"
	"sort"
)

// JetPtThresholdGeV is the fixed transverse-momentum threshold above which a
// particle counts as its own jet. No clustering or merging is applied.
const JetPtThresholdGeV = 20.0

// etaEpsilon guards the tangent argument in the pseudorapidity formula. The
// offset is applied inside tan(), before the logarithm. Moving it would
// change reconstructed eta values at the edges, so it stays where it is.
const etaEpsilon = 1e-10

// Kinematics holds the derived observables of one event. The three
// leading-jet fields are non-nil exactly when NumJets > 0.
type Kinematics struct {
	EventID       string   `json:"event_id"`
	InvariantMass float64  `json:"invariant_mass"`
	MissingET     float64  `json:"missing_et"`
	MissingETPhi  float64  `json:"missing_et_phi"`
	ScalarHT      float64  `json:"scalar_ht"`
	NumJets       int      `json:"num_jets"`
	LeadingJetPt  *float64 `json:"leading_jet_pt"`
	LeadingJetEta *float64 `json:"leading_jet_eta"`
	LeadingJetPhi *float64 `json:"leading_jet_phi"`
	NumLeptons    int      `json:"num_leptons"`
	NumPhotons    int      `json:"num_photons"`
}

// CalculateKinematics derives the observables of a generated event.
// Pure: identical input yields bit-identical output.
func CalculateKinematics(ev *Event) Kinematics {
	return CalculateFromTable(ev.EventID, ev.Table())
}

// CalculateFromTable derives observables from the canonical columnar particle
// representation. A zero-row table is valid and yields an all-zero record.
// Numerically degenerate configurations are clamped, never NaN and never an
// error.
func CalculateFromTable(eventID string, t *ParticleTable) Kinematics {
	n := t.Len()

	var sumE, sumPx, sumPy, sumPz float64
	var scalarHT float64
	pts := make([]float64, n)
	for i := 0; i < n; i++ {
		sumE += t.Energy[i]
		sumPx += t.Px[i]
		sumPy += t.Py[i]
		sumPz += t.Pz[i]
		pts[i] = math.Sqrt(t.Px[i]*t.Px[i] + t.Py[i]*t.Py[i])
		scalarHT += pts[i]
	}

	// Invariant mass of the summed four-vector, clamped at zero: massless or
	// parallel-momentum configurations can push m^2 slightly negative.
	mSquared := sumE*sumE - (sumPx*sumPx + sumPy*sumPy + sumPz*sumPz)
	invariantMass := math.Sqrt(math.Max(0, mSquared))

	metX := -sumPx
	metY := -sumPy
	missingET := math.Sqrt(metX*metX + metY*metY)
	// Convention: phi of a zero MET vector is 0 rather than the
	// sign-dependent values IEEE atan2 gives for signed zeros.
	missingETPhi := 0.0
	if metX != 0 || metY != 0 {
		missingETPhi = math.Atan2(metY, metX)
	}

	k := Kinematics{
		EventID:       eventID,
		InvariantMass: invariantMass,
		MissingET:     missingET,
		MissingETPhi:  missingETPhi,
		ScalarHT:      scalarHT,
	}

	// Jet selection: every particle above the fixed pt threshold is its own
	// jet, ranked by pt descending with ties broken by original order.
	jets := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if pts[i] > JetPtThresholdGeV {
			jets = append(jets, i)
		}
	}
	sort.SliceStable(jets, func(a, b int) bool {
		return pts[jets[a]] > pts[jets[b]]
	})

	k.NumJets = len(jets)
	if len(jets) > 0 {
		lead := jets[0]
		pt := pts[lead]
		eta := pseudorapidity(pt, t.Pz[lead])
		phi := math.Atan2(t.Py[lead], t.Px[lead])
		k.LeadingJetPt = &pt
		k.LeadingJetEta = &eta
		k.LeadingJetPhi = &phi
	}

	for i := 0; i < n; i++ {
		abs := t.PDGID[i]
		if abs < 0 {
			abs = -abs
		}
		switch abs {
		case PDGElectron, PDGMuon:
			k.NumLeptons++
		case PDGPhoton:
			k.NumPhotons++
		}
	}

	return k
}

// pseudorapidity computes eta = -ln(tan(theta/2 + eps)) with
// theta = atan2(pt, pz).
func pseudorapidity(pt, pz float64) float64 {
	theta := math.Atan2(pt, pz)
	return -math.Log(math.Tan(theta/2 + etaEpsilon))
}
