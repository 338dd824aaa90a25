package domain_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/guidepost/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteraction_String(t *testing.T) {
	tests := []struct {
		in   domain.Interaction
		want string
	}{
		{domain.NewInteraction("tutorial:next", "", ""), "tutorial:next"},
		{domain.NewInteraction("create-window", "work", ""), "create-window:work"},
		{domain.NewInteraction("create-window", "work", "Firefox"), "create-window:work:Firefox"},
		{domain.NewInteraction("k", "", "args"), "k::args"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
}

func TestInteraction_Matches(t *testing.T) {
	a := domain.NewInteraction(domain.KindCreateWindow, "work", "x")
	b := domain.NewInteraction(domain.KindCreateWindow, "personal", "y")
	c := domain.NewInteraction(domain.KindCloseWindow, "work", "x")

	assert.True(t, a.Matches(b))
	assert.False(t, a.Matches(c))
}

func TestEffect_Params(t *testing.T) {
	e := domain.Effect{
		Component: domain.LocalComponent,
		Function:  "shell",
		Params: domain.Params{
			{Key: "command", Value: "qvm-start"},
			{Key: "vm", Value: "work"},
			{Key: "count", Value: 2},
		},
	}

	assert.True(t, e.IsLocal())
	assert.Equal(t, "dom0.shell(command=qvm-start, vm=work, count=2)", e.String())
	assert.Equal(t, "2", e.Params.String("count"))
	assert.Equal(t, "", e.Params.String("missing"))
	assert.Equal(t, map[string]any{"command": "qvm-start", "vm": "work", "count": 2}, e.Params.Map())
}

func TestDirective_JSON(t *testing.T) {
	list := []domain.Directive{
		domain.StepInfo{Type: domain.DirectiveStepInfo, Title: "Hi", Text: "there", HasOKBtn: true},
		domain.None{Type: domain.DirectiveNone},
	}

	raw, err := json.Marshal(list)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type":"step_information","title":"Hi","text":"there","has_ok_btn":true},
		{"type":"none"}
	]`, string(raw))
}

func TestDirective_JSONWithoutType(t *testing.T) {
	list := []domain.Directive{
		domain.Modal{Template: "welcome.html", Type: "bogus"},
		domain.StepInfoPointing{Text: "here", X: 10, Y: 20},
		domain.Task{Type: domain.DirectiveCurrentTask, TaskNumber: 2},
		domain.NoMoreTasks{},
	}

	raw, err := json.Marshal(list)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type":"modal","template":"welcome.html"},
		{"type":"step_information_pointing","text":"here","x":10,"y":20},
		{"type":"current_task","task_number":2,"task_description":""},
		{"type":"no_more_tasks"}
	]`, string(raw))
}

func TestDirective_TaskType(t *testing.T) {
	assert.Equal(t, domain.DirectiveNewTask, domain.Task{}.DirectiveType())
	assert.Equal(t, domain.DirectiveCurrentTask, domain.Task{Type: domain.DirectiveCurrentTask}.DirectiveType())
	assert.Len(t, domain.ClearUI(), 1)
	assert.Equal(t, domain.DirectiveNone, domain.ClearUI()[0].DirectiveType())
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnStepEnter: func(context.Context, *domain.StepEvent) { calls = append(calls, "a") },
	}
	b := domain.LifecycleHooks{
		OnStepEnter: func(context.Context, *domain.StepEvent) { calls = append(calls, "b") },
		OnDiscard:   func(context.Context, *domain.InteractionEvent) { calls = append(calls, "discard") },
	}

	merged := a.Merge(b)
	merged.OnStepEnter(context.Background(), &domain.StepEvent{})
	merged.OnDiscard(context.Background(), &domain.InteractionEvent{})

	assert.Equal(t, []string{"a", "b", "discard"}, calls)
	assert.Nil(t, a.Merge(domain.LifecycleHooks{}).OnEffect)
}

func TestState_Done(t *testing.T) {
	assert.False(t, domain.State{Status: domain.StatusActive}.Done())
	assert.True(t, domain.State{Status: domain.StatusTerminated}.Done())
	assert.True(t, domain.State{Status: domain.StatusAborted}.Done())
}
