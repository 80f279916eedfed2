package sim

// TriggerThresholds configures the trigger decision.
type TriggerThresholds struct {
	MinJetPt float64 `yaml:"min_jet_pt"` // jet floor; events below are rejected
	MinMET   float64 `yaml:"min_met"`    // missing-ET accept threshold
}

// DefaultTriggerThresholds returns the stock trigger menu.
func DefaultTriggerThresholds() TriggerThresholds {
	return TriggerThresholds{
		MinJetPt: 20.0,
		MinMET:   100.0,
	}
}

// PassesTrigger decides whether an event is kept. A zero-jet event counts as
// leading jet pt 0 for the floor comparison.
//
// The final branch accepts: anything that clears the jet floor is kept, so
// the MET and lepton branches only short-circuit. That pass-through default
// is the menu's documented behavior; do not tighten it here.
func PassesTrigger(k Kinematics, th TriggerThresholds) bool {
	leadingPt := 0.0
	if k.LeadingJetPt != nil {
		leadingPt = *k.LeadingJetPt
	}
	if leadingPt < th.MinJetPt {
		return false
	}

	if k.MissingET > th.MinMET {
		return true
	}

	if k.NumLeptons >= 2 {
		return true
	}

	return true
}
