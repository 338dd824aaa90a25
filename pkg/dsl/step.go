package dsl

import (
	"slices"

	"github.com/aretw0/guidepost/pkg/domain"
)

type edge struct {
	kind   string
	target string
}

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	name     string
	ui       []domain.Directive
	setup    []domain.Effect
	teardown []domain.Effect
	edges    []edge
}

// UI appends raw directives shown while the step is active.
func (s *StepBuilder) UI(directives ...domain.Directive) *StepBuilder {
	s.ui = append(s.ui, directives...)
	return s
}

// Modal shows a templated dialog. Empty button labels hide the button.
func (s *StepBuilder) Modal(template, next, back string) *StepBuilder {
	return s.UI(domain.Modal{
		Type:       domain.DirectiveModal,
		Template:   template,
		NextButton: next,
		BackButton: back,
	})
}

// Info shows a floating hint with an OK button.
func (s *StepBuilder) Info(title, text string) *StepBuilder {
	return s.UI(domain.StepInfo{
		Type:     domain.DirectiveStepInfo,
		Title:    title,
		Text:     text,
		HasOKBtn: true,
	})
}

// Setup appends a side effect run when the step is entered. kv holds
// alternating parameter names and values.
func (s *StepBuilder) Setup(component, function string, kv ...any) *StepBuilder {
	s.setup = append(s.setup, effect(component, function, kv))
	return s
}

// Teardown appends a side effect run when the step is left.
func (s *StepBuilder) Teardown(component, function string, kv ...any) *StepBuilder {
	s.teardown = append(s.teardown, effect(component, function, kv))
	return s
}

// On moves to target when an interaction of the given kind occurs.
func (s *StepBuilder) On(kind, target string) *StepBuilder {
	s.edges = append(s.edges, edge{kind: kind, target: target})
	return s
}

// Next is shorthand for On("tutorial:next", target).
func (s *StepBuilder) Next(target string) *StepBuilder {
	return s.On(domain.KindTutorialNext, target)
}

// compile returns a new step without transitions.
func (s *StepBuilder) compile() *domain.Step {
	step := domain.NewStep(s.name)
	step.UI = slices.Clone(s.ui)
	step.Setup = slices.Clone(s.setup)
	step.Teardown = slices.Clone(s.teardown)
	return step
}

func effect(component, function string, kv []any) domain.Effect {
	e := domain.Effect{Component: component, Function: function}
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		e.Params = append(e.Params, domain.Param{Key: key, Value: kv[i+1]})
	}
	return e
}
