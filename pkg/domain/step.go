package domain

import "fmt"

// Structural step names.
const (
	StartStep = "start"
	EndStep   = "end"
)

// Transition is an outgoing edge of a Step, keyed by interaction kind.
type Transition struct {
	Kind   string
	Target *Step
}

// Step is a waiting state of the tutorial. It carries the UI shown while the
// step is active, the side effects run on entry and exit, and its outgoing
// transitions in declaration order.
type Step struct {
	Name     string
	UI       []Directive
	Setup    []Effect
	Teardown []Effect

	transitions []Transition
	index       map[string]int
}

// NewStep creates a step without UI, side effects or transitions.
func NewStep(name string) *Step {
	return &Step{Name: name}
}

// IsFirst reports whether this is the initial step.
func (s *Step) IsFirst() bool {
	return s.Name == StartStep
}

// IsLast reports whether this is the terminal step.
func (s *Step) IsLast() bool {
	return s.Name == EndStep
}

// AddTransition registers target as the step reached when an interaction of
// the given kind occurs. A kind can only be registered once per step.
func (s *Step) AddTransition(kind string, target *Step) error {
	if target == nil {
		return fmt.Errorf("%w: nil target for %q on step %q", ErrUnknownStep, kind, s.Name)
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[kind]; ok {
		return fmt.Errorf("%w: step %q already moves to %q on %q (wanted %q)",
			ErrDuplicateTransition, s.Name, s.transitions[i].Target.Name, kind, target.Name)
	}
	s.index[kind] = len(s.transitions)
	s.transitions = append(s.transitions, Transition{Kind: kind, Target: target})
	return nil
}

// HasTransition reports whether the interaction leads anywhere from this step.
func (s *Step) HasTransition(in Interaction) bool {
	_, ok := s.index[in.Key()]
	return ok
}

// Next returns the step reached by the interaction, or nil.
func (s *Step) Next(in Interaction) *Step {
	i, ok := s.index[in.Key()]
	if !ok {
		return nil
	}
	return s.transitions[i].Target
}

// Transitions returns the outgoing edges in declaration order.
func (s *Step) Transitions() []Transition {
	out := make([]Transition, len(s.transitions))
	copy(out, s.transitions)
	return out
}

// Kinds returns the interaction kinds this step reacts to, in declaration order.
func (s *Step) Kinds() []string {
	kinds := make([]string, 0, len(s.transitions))
	for _, t := range s.transitions {
		kinds = append(kinds, t.Kind)
	}
	return kinds
}
