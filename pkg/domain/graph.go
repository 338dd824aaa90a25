package domain

import "fmt"

// Graph holds the steps of a tutorial and the transitions between them.
// It is built once during load and only read afterwards.
type Graph struct {
	steps map[string]*Step
	order []string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{steps: make(map[string]*Step)}
}

// AddStep adds a step. Step names are unique.
func (g *Graph) AddStep(step *Step) error {
	if step == nil {
		return fmt.Errorf("%w: nil step", ErrUnknownStep)
	}
	if _, exists := g.steps[step.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateStep, step.Name)
	}
	g.steps[step.Name] = step
	g.order = append(g.order, step.Name)
	return nil
}

// Step returns the named step.
func (g *Graph) Step(name string) (*Step, bool) {
	s, ok := g.steps[name]
	return s, ok
}

// Start returns the initial step, or nil when missing.
func (g *Graph) Start() *Step {
	return g.steps[StartStep]
}

// End returns the terminal step, or nil when missing.
func (g *Graph) End() *Step {
	return g.steps[EndStep]
}

// AddTransition connects two previously added steps.
func (g *Graph) AddTransition(source, kind, target string) error {
	from, ok := g.steps[source]
	if !ok {
		return fmt.Errorf("%w: source %q (transition %q)", ErrUnknownStep, source, kind)
	}
	to, ok := g.steps[target]
	if !ok {
		return fmt.Errorf("%w: target %q (transition %q from %q)", ErrUnknownStep, target, kind, source)
	}
	return from.AddTransition(kind, to)
}

// Steps returns every step in insertion order.
func (g *Graph) Steps() []*Step {
	out := make([]*Step, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.steps[name])
	}
	return out
}

// Len returns the number of steps.
func (g *Graph) Len() int {
	return len(g.order)
}

// CheckIntegrity verifies the graph can be played: both structural steps must
// exist. Reachability and cycles are reported by the validator instead.
func (g *Graph) CheckIntegrity() error {
	for _, name := range []string{StartStep, EndStep} {
		if _, ok := g.steps[name]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingStep, name)
		}
	}
	return nil
}
