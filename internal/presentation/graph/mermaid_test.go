package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/guidepost/internal/presentation/graph"
	"github.com/aretw0/guidepost/pkg/domain"
)

func tutorial(t *testing.T) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	open := domain.NewStep("open-qube.manager")
	open.Setup = []domain.Effect{{Component: "qui", Function: "highlight"}}
	for _, s := range []*domain.Step{domain.NewStep(domain.StartStep), open, domain.NewStep(domain.EndStep)} {
		require.NoError(t, g.AddStep(s))
	}
	require.NoError(t, g.AddTransition(domain.StartStep, domain.KindTutorialNext, "open-qube.manager"))
	require.NoError(t, g.AddTransition("open-qube.manager", `say "hi"`, domain.EndStep))
	return g
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Shapes",
			contains: []string{
				`start(("start"))`,
				`open_qube_manager[["open-qube.manager"]]`,
				`end_((("end")))`,
			},
			excludes: []string{"classDef"},
		},
		{
			name: "Edges",
			contains: []string{
				`start -- "tutorial:next" --> open_qube_manager`,
				`open_qube_manager -- "say 'hi'" --> end_`,
			},
		},
		{
			name:    "Overlay",
			overlay: &graph.Overlay{CurrentStep: "open-qube.manager"},
			contains: []string{
				"classDef current",
				"class open_qube_manager current;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tutorial(t), tt.overlay)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}
