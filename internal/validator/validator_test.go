package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/guidepost/internal/compiler"
	"github.com/aretw0/guidepost/pkg/domain"
)

func mustParse(t *testing.T, src string) *domain.Graph {
	t.Helper()
	g, err := compiler.Parse([]byte(src))
	require.NoError(t, err)
	return g
}

func kinds(issues []Issue) []IssueKind {
	var out []IssueKind
	for _, i := range issues {
		out = append(out, i.Kind)
	}
	return out
}

func TestValidate_CleanGraph(t *testing.T) {
	g := mustParse(t, `
- name: start
  transitions:
    - {interaction: a, step: middle}
- name: middle
  transitions:
    - {interaction: b, step: end}
`)
	r := Validate(g)

	assert.True(t, r.Valid())
	assert.Empty(t, r.Warnings)
	assert.NoError(t, r.Err())
	assert.Empty(t, r.String())
}

func TestValidate_Warnings(t *testing.T) {
	g := mustParse(t, `
- name: start
  transitions:
    - {interaction: a, step: loop}
- name: loop
  transitions:
    - {interaction: back, step: start}
- name: orphan
  transitions:
    - {interaction: c, step: end}
`)
	r := Validate(g)

	assert.True(t, r.Valid())
	assert.ElementsMatch(t, []IssueKind{IssueUnreachable, IssueUnreachable, IssueEndUnreachable, IssueCycle}, kinds(r.Warnings))

	var cycle Issue
	for _, w := range r.Warnings {
		if w.Kind == IssueCycle {
			cycle = w
		}
	}
	assert.Equal(t, "cycle start -> loop -> start", cycle.Message)
}

func TestValidate_DeadEnd(t *testing.T) {
	g := mustParse(t, `
- name: start
  transitions:
    - {interaction: a, step: stuck}
    - {interaction: b, step: end}
- name: stuck
`)
	r := Validate(g)

	require.Len(t, r.Warnings, 1)
	assert.Equal(t, IssueDeadEnd, r.Warnings[0].Kind)
	assert.Equal(t, "stuck", r.Warnings[0].Step)
	assert.Contains(t, r.String(), "warning dead_end")
}

func TestValidate_MissingStructuralSteps(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddStep(domain.NewStep("intro")))

	r := Validate(g)

	assert.False(t, r.Valid())
	assert.Len(t, r.Errors, 2)
	assert.ErrorIs(t, r.Err(), domain.ErrMissingStep)
}
