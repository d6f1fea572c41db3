package filter

import (
	"fmt"
	"sync"

	"salesdash/internal/core"
)

// State is the per-session checklist state.
type State struct {
	Selected  []string
	SelectAll bool
}

// EventKind identifies which control the user touched.
type EventKind int

const (
	ChecklistChanged EventKind = iota + 1
	SelectAllChanged
)

func (k EventKind) String() string {
	switch k {
	case ChecklistChanged:
		return "checklist_changed"
	case SelectAllChanged:
		return "select_all_changed"
	default:
		return fmt.Sprintf("event_kind(%d)", int(k))
	}
}

// Event is one user interaction.
type Event struct {
	Kind     EventKind
	Selected []string // new checklist value, ChecklistChanged only
	Checked  bool     // new select-all value, SelectAllChanged only

	// SelectAllShown is the select-all value the page displayed when the
	// checklist changed. Nil falls back to the session's own flag.
	SelectAllShown *bool
}

// Effects lists the controls an event re-renders.
type Effects struct {
	Rows      Update[[]core.SummaryRow]
	Checklist Update[[]string]
	SelectAll Update[bool]
}

// None reports whether the event produced no visible change at all.
func (e Effects) None() bool {
	return !e.Rows.Changed && !e.Checklist.Changed && !e.SelectAll.Changed
}

// Session applies events to one browser session's State. Events are
// processed one at a time.
type Session struct {
	mu    sync.Mutex
	ctrl  *Controller
	state State
	rows  []core.SummaryRow
}

// NewSession starts with nothing selected and select-all unchecked, so no
// rows are visible.
func NewSession(ctrl *Controller) *Session {
	return &Session{
		ctrl:  ctrl,
		state: State{Selected: []string{}},
		rows:  []core.SummaryRow{},
	}
}

// Controller returns the controller the session was built with.
func (s *Session) Controller() *Controller {
	return s.ctrl
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Selected:  append([]string(nil), s.state.Selected...),
		SelectAll: s.state.SelectAll,
	}
}

// Rows returns the currently visible rows.
func (s *Session) Rows() []core.SummaryRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.SummaryRow(nil), s.rows...)
}

// Apply runs the transitions triggered by ev and returns what to redraw.
// On error the state is left unchanged.
func (s *Session) Apply(ev Event) (Effects, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case ChecklistChanged:
		shown := s.state.SelectAll
		if ev.SelectAllShown != nil {
			shown = *ev.SelectAllShown
		}
		return s.checklistChanged(ev.Selected, shown)
	case SelectAllChanged:
		upd := s.ctrl.SelectAll(s.state.SelectAll, ev.Checked)
		s.state.SelectAll = ev.Checked
		if !upd.Changed {
			return Effects{}, nil
		}
		eff, err := s.checklistChanged(upd.Value, ev.Checked)
		if err != nil {
			return Effects{}, err
		}
		eff.Checklist = upd
		return eff, nil
	default:
		return Effects{}, fmt.Errorf("apply %v: unsupported event", ev.Kind)
	}
}

func (s *Session) checklistChanged(values []string, selectAllShown bool) (Effects, error) {
	selected, err := s.ctrl.Normalize(values)
	if err != nil {
		return Effects{}, err
	}
	s.state.Selected = selected
	s.state.SelectAll = selectAllShown
	s.rows = s.ctrl.filter(selected)

	eff := Effects{Rows: Set(append([]core.SummaryRow(nil), s.rows...))}
	if redraw := s.ctrl.Reconcile(selected, selectAllShown); redraw.Changed {
		s.state.SelectAll = redraw.Value
		eff.SelectAll = redraw
	}
	return eff, nil
}
