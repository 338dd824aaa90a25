package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/guidepost/pkg/domain"
)

func TestExtractYAML(t *testing.T) {
	src := []byte("# Title\n\n```yaml\n- a: 1\n```\n\ntext\n\n```go\nfunc main() {}\n```\n\n```yaml\n- b: 2\n```\n")

	assert.Equal(t, "- a: 1\n- b: 2\n", string(ExtractYAML(src)))
	assert.Empty(t, ExtractYAML([]byte("no code here")))
}

func TestDecodeDirective(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want domain.Directive
	}{
		{
			name: "step info with string bool",
			raw:  map[string]any{"type": "step_information", "title": "t", "has_ok_btn": "True", "align_x": "right"},
			want: domain.StepInfo{Type: "step_information", Title: "t", HasOKBtn: true, AlignX: "right"},
		},
		{
			name: "pointing",
			raw:  map[string]any{"type": "step_information_pointing", "x": 10, "y": "20", "corner": "top-left"},
			want: domain.StepInfoPointing{Type: "step_information_pointing", X: 10, Y: 20, Corner: "top-left"},
		},
		{
			name: "new task",
			raw:  map[string]any{"type": "new_task", "task_number": 1, "task_description": "d"},
			want: domain.Task{Type: "new_task", TaskNumber: 1, TaskDescription: "d"},
		},
		{
			name: "no more tasks",
			raw:  map[string]any{"type": "no_more_tasks"},
			want: domain.NoMoreTasks{Type: "no_more_tasks"},
		},
		{
			name: "none",
			raw:  map[string]any{"type": "none"},
			want: domain.None{Type: "none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDirective(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeDirective_Rejects(t *testing.T) {
	for name, raw := range map[string]map[string]any{
		"missing type":     {"title": "x"},
		"unknown type":     {"type": "popup"},
		"unknown field":    {"type": "none", "color": "red"},
		"modal no template": {"type": "modal", "title": "x"},
		"bad bool":         {"type": "step_information", "has_ok_btn": "maybe"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDirective(raw)
			assert.ErrorIs(t, err, domain.ErrUnrecognizedUIDirective)
		})
	}
}

func TestEncodeDirective(t *testing.T) {
	m, err := EncodeDirective(domain.Modal{Type: "modal", Template: "w.html", Title: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "modal", "template": "w.html", "title": "Hi"}, m)
}
