// Package validator inspects a step graph for problems the graph itself does
// not reject: missing structural steps are errors, while unreachable steps,
// dead ends and cycles are reported as warnings.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/guidepost/pkg/domain"
)

// IssueKind classifies a finding.
type IssueKind string

const (
	IssueMissingStep    IssueKind = "missing_step"
	IssueUnreachable    IssueKind = "unreachable"
	IssueDeadEnd        IssueKind = "dead_end"
	IssueEndUnreachable IssueKind = "end_unreachable"
	IssueCycle          IssueKind = "cycle"
)

// Issue is one finding about a step.
type Issue struct {
	Kind    IssueKind
	Step    string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

// Report collects the findings of Validate.
type Report struct {
	Errors   []Issue
	Warnings []Issue
}

// Valid reports whether the graph can be played.
func (r Report) Valid() bool {
	return len(r.Errors) == 0
}

// Err joins the errors, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, issue := range r.Errors {
		if issue.Kind == IssueMissingStep {
			errs = append(errs, fmt.Errorf("%w: %q", domain.ErrMissingStep, issue.Step))
			continue
		}
		errs = append(errs, errors.New(issue.String()))
	}
	return errors.Join(errs...)
}

func (r Report) String() string {
	var b strings.Builder
	for _, issue := range r.Errors {
		fmt.Fprintf(&b, "error   %s\n", issue)
	}
	for _, issue := range r.Warnings {
		fmt.Fprintf(&b, "warning %s\n", issue)
	}
	return b.String()
}

// Validate checks the graph.
func Validate(g *domain.Graph) Report {
	var r Report

	for _, name := range []string{domain.StartStep, domain.EndStep} {
		if _, ok := g.Step(name); !ok {
			r.Errors = append(r.Errors, Issue{
				Kind:    IssueMissingStep,
				Step:    name,
				Message: fmt.Sprintf("the %q step is missing", name),
			})
		}
	}
	if !r.Valid() {
		return r
	}

	reached := crawl(g.Start())

	for _, step := range g.Steps() {
		if !reached[step.Name] {
			r.Warnings = append(r.Warnings, Issue{
				Kind:    IssueUnreachable,
				Step:    step.Name,
				Message: fmt.Sprintf("step %q cannot be reached from %q", step.Name, domain.StartStep),
			})
		}
		if !step.IsLast() && len(step.Transitions()) == 0 {
			r.Warnings = append(r.Warnings, Issue{
				Kind:    IssueDeadEnd,
				Step:    step.Name,
				Message: fmt.Sprintf("step %q has no transitions, a run entering it never ends", step.Name),
			})
		}
	}

	if !reached[domain.EndStep] {
		r.Warnings = append(r.Warnings, Issue{
			Kind:    IssueEndUnreachable,
			Step:    domain.EndStep,
			Message: fmt.Sprintf("no path leads from %q to %q", domain.StartStep, domain.EndStep),
		})
	}

	for _, cycle := range findCycles(g) {
		r.Warnings = append(r.Warnings, Issue{
			Kind:    IssueCycle,
			Step:    cycle[0],
			Message: "cycle " + strings.Join(cycle, " -> "),
		})
	}

	return r
}

// crawl returns every step reachable from start, breadth first.
func crawl(start *domain.Step) map[string]bool {
	visited := make(map[string]bool)
	queue := []*domain.Step{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current.Name] {
			continue
		}
		visited[current.Name] = true

		for _, t := range current.Transitions() {
			if !visited[t.Target.Name] {
				queue = append(queue, t.Target)
			}
		}
	}
	return visited
}

// findCycles reports one cycle per back edge found by a depth-first search,
// as the list of step names starting and ending with the same step.
func findCycles(g *domain.Graph) [][]string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int)
	var stack []string
	var cycles [][]string

	var visit func(s *domain.Step)
	visit = func(s *domain.Step) {
		color[s.Name] = grey
		stack = append(stack, s.Name)

		for _, t := range s.Transitions() {
			switch color[t.Target.Name] {
			case white:
				visit(t.Target)
			case grey:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == t.Target.Name {
						cycle := append([]string{}, stack[i:]...)
						cycles = append(cycles, append(cycle, t.Target.Name))
						break
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[s.Name] = black
	}

	for _, s := range g.Steps() {
		if color[s.Name] == white {
			visit(s)
		}
	}
	return cycles
}
