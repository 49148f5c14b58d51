package selfservice

import "fmt"

// ContractState tracks how far a guest has gotten with one agreement.
type ContractState int

const (
	ContractUnopened ContractState = iota
	ContractViewing
	ContractViewed
	ContractAccepted
)

func (s ContractState) String() string {
	switch s {
	case ContractViewing:
		return "viewing"
	case ContractViewed:
		return "viewed"
	case ContractAccepted:
		return "accepted"
	default:
		return "unopened"
	}
}

// Contract identifies one of the two required agreements.
type Contract string

const (
	ContractPrivacy Contract = "privacy"
	ContractTerms   Contract = "terms"
)

// bottomThresholdPx: scrolling to within this many pixels of the end of the
// text counts as having read it.
const bottomThresholdPx = 8.0

// ContractGate blocks reservation submission until both agreements have
// been read to completion and accepted. Accepting requires a prior read;
// revoking an acceptance falls back to viewed, never to unopened.
type ContractGate struct {
	states map[Contract]ContractState
}

func NewContractGate() *ContractGate {
	g := &ContractGate{}
	g.Reset()
	return g
}

func (g *ContractGate) State(c Contract) ContractState {
	return g.states[c]
}

// Open records that the guest opened the contract viewer.
func (g *ContractGate) Open(c Contract) {
	if g.states[c] == ContractUnopened {
		g.states[c] = ContractViewing
	}
}

// OnScroll feeds a scroll position. Reaching within bottomThresholdPx of the
// content's end marks the contract viewed.
func (g *ContractGate) OnScroll(c Contract, offset, viewportHeight, contentHeight float64) {
	if offset+viewportHeight >= contentHeight-bottomThresholdPx {
		g.markViewed(c)
	}
}

// MarkRead is the explicit "I have read it" action, equivalent to scrolling
// to the bottom.
func (g *ContractGate) MarkRead(c Contract) {
	g.markViewed(c)
}

func (g *ContractGate) markViewed(c Contract) {
	if g.states[c] < ContractViewed {
		g.states[c] = ContractViewed
	}
}

// Accept requires the contract to have been viewed first.
func (g *ContractGate) Accept(c Contract) error {
	if g.states[c] < ContractViewed {
		return fmt.Errorf("the %s contract must be read to the end before accepting", c)
	}
	g.states[c] = ContractAccepted
	return nil
}

// Revoke withdraws an acceptance. The read is not forgotten.
func (g *ContractGate) Revoke(c Contract) {
	if g.states[c] == ContractAccepted {
		g.states[c] = ContractViewed
	}
}

func (g *ContractGate) Accepted(c Contract) bool {
	return g.states[c] == ContractAccepted
}

// BothAccepted reports whether submission may proceed.
func (g *ContractGate) BothAccepted() bool {
	return g.Accepted(ContractPrivacy) && g.Accepted(ContractTerms)
}

// Reset returns both contracts to unopened, for a fresh draft cycle.
func (g *ContractGate) Reset() {
	g.states = map[Contract]ContractState{
		ContractPrivacy: ContractUnopened,
		ContractTerms:   ContractUnopened,
	}
}
