package autocomplete

// PanelState is the autocomplete panel's coarse mode.
type PanelState int

const (
	Idle PanelState = iota
	Active
)

// Panel implements the Idle/Active state machine from spec.md §4.5. It is
// not safe for concurrent use: the host's input loop is expected to be the
// sole caller.
type Panel struct {
	index *Index

	state      PanelState
	query      string
	candidates []Candidate
	selected   int
}

// NewPanel returns an Idle panel over index.
func NewPanel(index *Index) *Panel {
	return &Panel{index: index, state: Idle}
}

// State, Query, Candidates, and Selected expose the panel's current view for
// rendering.
func (p *Panel) State() PanelState        { return p.state }
func (p *Panel) Query() string            { return p.query }
func (p *Panel) Candidates() []Candidate  { return p.candidates }
func (p *Panel) Selected() int            { return p.selected }

// InputChange handles a keystroke producing a new raw input string. An empty
// input returns the panel to Idle; any other input (re-)enters Active with a
// freshly recomputed candidate list and selection reset to 0.
func (p *Panel) InputChange(input string) {
	if input == "" {
		p.state = Idle
		p.query = ""
		p.candidates = nil
		p.selected = 0
		return
	}

	p.state = Active
	p.query = input
	p.candidates = p.index.Query(input)
	p.selected = 0
}

// SelectPrev moves the selection back by one, wrapping around. A no-op
// outside Active or with zero candidates.
func (p *Panel) SelectPrev() {
	if p.state != Active || len(p.candidates) == 0 {
		return
	}
	p.selected = (p.selected - 1 + len(p.candidates)) % len(p.candidates)
}

// SelectNext moves the selection forward by one, wrapping around. A no-op
// outside Active or with zero candidates.
func (p *Panel) SelectNext() {
	if p.state != Active || len(p.candidates) == 0 {
		return
	}
	p.selected = (p.selected + 1) % len(p.candidates)
}

// TabComplete returns the currently selected candidate without changing
// state, per spec.md §4.5's "Active --TAB_COMPLETE--> Active (yields
// candidates[sel])". The caller is responsible for splicing the label into
// the input buffer and feeding the result back through InputChange.
func (p *Panel) TabComplete() (Candidate, bool) {
	if p.state != Active || p.selected < 0 || p.selected >= len(p.candidates) {
		return Candidate{}, false
	}
	return p.candidates[p.selected], true
}

// Cancel returns the panel to Idle, discarding the current query and
// candidate list.
func (p *Panel) Cancel() {
	p.state = Idle
	p.query = ""
	p.candidates = nil
	p.selected = 0
}
