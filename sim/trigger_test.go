package sim

import "testing"

func floatPtr(v float64) *float64 { return &v }

func TestPassesTrigger_RejectsBelowJetFloor(t *testing.T) {
	k := Kinematics{
		NumJets:      1,
		LeadingJetPt: floatPtr(15),
		MissingET:    500,
		NumLeptons:   4,
	}
	if PassesTrigger(k, DefaultTriggerThresholds()) {
		t.Error("event below the jet floor must be rejected regardless of MET/leptons")
	}
}

func TestPassesTrigger_ZeroJetEventTreatedAsZeroPt(t *testing.T) {
	k := Kinematics{NumJets: 0, MissingET: 500}
	if PassesTrigger(k, DefaultTriggerThresholds()) {
		t.Error("zero-jet event must compare as leading pt 0 and be rejected")
	}

	// With a zero jet floor, the same event falls through to accept.
	th := DefaultTriggerThresholds()
	th.MinJetPt = 0
	if !PassesTrigger(k, th) {
		t.Error("zero-jet event must pass once the jet floor is 0")
	}
}

func TestPassesTrigger_HighMETAccepts(t *testing.T) {
	k := Kinematics{
		NumJets:      1,
		LeadingJetPt: floatPtr(40),
		MissingET:    150,
	}
	if !PassesTrigger(k, DefaultTriggerThresholds()) {
		t.Error("high-MET event above the jet floor must be accepted")
	}
}

func TestPassesTrigger_DileptonAccepts(t *testing.T) {
	k := Kinematics{
		NumJets:      1,
		LeadingJetPt: floatPtr(40),
		MissingET:    10,
		NumLeptons:   2,
	}
	if !PassesTrigger(k, DefaultTriggerThresholds()) {
		t.Error("two-lepton event above the jet floor must be accepted")
	}
}

// The decision falls through to accept even when the MET and lepton branches
// both fail. Existing behavior, asserted literally.
func TestPassesTrigger_FallThroughAccepts(t *testing.T) {
	k := Kinematics{
		NumJets:      1,
		LeadingJetPt: floatPtr(25),
		MissingET:    50,
		NumLeptons:   0,
	}
	if !PassesTrigger(k, DefaultTriggerThresholds()) {
		t.Error("event clearing the jet floor must be accepted by the fall-through default")
	}
}

func TestDefaultTriggerThresholds(t *testing.T) {
	th := DefaultTriggerThresholds()
	if th.MinJetPt != 20.0 {
		t.Errorf("min_jet_pt = %v, want 20", th.MinJetPt)
	}
	if th.MinMET != 100.0 {
		t.Errorf("min_met = %v, want 100", th.MinMET)
	}
}
