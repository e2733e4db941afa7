package preassess

// Visit tracks the read-or-bypass choice for one visit to a lesson. A
// fresh Visit starts undecided; choosing Read is final for the visit.
type Visit struct {
	decision Decision
	outcome  *Outcome
}

// Decision returns the current choice.
func (v *Visit) Decision() Decision {
	return v.decision
}

// Offer reports whether the bypass choice should be shown.
func (v *Visit) Offer(unlocked, hasRecord bool, bankSize int) bool {
	return Eligible(Trigger{
		Unlocked:  unlocked,
		HasRecord: hasRecord,
		Decision:  v.decision,
		BankSize:  bankSize,
	})
}

// ChooseRead sends the learner to the lesson content.
func (v *Visit) ChooseRead() {
	v.decision = Read
}

// ChooseBypass starts the bypass attempt. It reports false if the learner
// already chose to read.
func (v *Visit) ChooseBypass() bool {
	if v.decision == Read {
		return false
	}
	v.decision = Bypass
	return true
}

// Finish records the outcome. A failed run sends the learner to read mode.
func (v *Visit) Finish(o Outcome) {
	v.outcome = &o
	if !o.Passed {
		v.decision = Read
	}
}

// Outcome returns the finished run, if any.
func (v *Visit) Outcome() (Outcome, bool) {
	if v.outcome == nil {
		return Outcome{}, false
	}
	return *v.outcome, true
}
