package dsl

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/guidepost/pkg/domain"
	"github.com/aretw0/guidepost/pkg/registry"
)

// Builder manages the graph construction.
type Builder struct {
	steps []*StepBuilder
	index map[string]*StepBuilder
	caps  *registry.Capabilities
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{index: make(map[string]*StepBuilder)}
}

// WithCapabilities makes Build reject side effects that caps cannot serve.
func (b *Builder) WithCapabilities(caps *registry.Capabilities) *Builder {
	b.caps = caps
	return b
}

// Step declares a step. If the step already exists, it returns the existing builder.
func (b *Builder) Step(name string) *StepBuilder {
	if sb, ok := b.index[name]; ok {
		return sb
	}
	sb := &StepBuilder{name: name}
	b.index[name] = sb
	b.steps = append(b.steps, sb)
	return sb
}

// Build compiles the declared steps into a graph. Steps keep their declaration
// order and the end step is appended. Each call returns a fresh graph.
func (b *Builder) Build() (*domain.Graph, error) {
	g := domain.NewGraph()

	var errs []error
	for _, sb := range b.steps {
		step := sb.compile()
		if step.Name == "" {
			return nil, errors.New("step has no name")
		}
		if b.caps != nil {
			for _, e := range slices.Concat(step.Setup, step.Teardown) {
				if _, err := b.caps.Resolve(e); err != nil {
					errs = append(errs, fmt.Errorf("step %q: %w", step.Name, err))
				}
			}
		}
		if err := g.AddStep(step); err != nil {
			return nil, err
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := g.AddStep(domain.NewStep(domain.EndStep)); err != nil {
		return nil, fmt.Errorf("%w (the end step is implicit)", err)
	}

	for _, sb := range b.steps {
		for _, e := range sb.edges {
			if err := g.AddTransition(sb.name, e.kind, e.target); err != nil {
				return nil, err
			}
		}
	}

	if err := g.CheckIntegrity(); err != nil {
		return nil, err
	}
	return g, nil
}
