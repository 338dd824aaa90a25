package analyzer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/aretw0/guidepost/internal/compiler"
	"github.com/aretw0/guidepost/internal/logging"
	"github.com/aretw0/guidepost/pkg/domain"
)

func TestGenerateAcyclicPaths(t *testing.T) {
	g, err := compiler.Parse([]byte(`
- name: start
  transitions:
    - {interaction: a, step: left}
    - {interaction: b, step: right}
- name: left
  transitions:
    - {interaction: c, step: end}
    - {interaction: back, step: start}
- name: right
  transitions:
    - {interaction: d, step: left}
    - {interaction: e, step: end}
`))
	require.NoError(t, err)

	paths := GenerateAcyclicPaths(g)

	assert.Equal(t, []Path{
		{"a", "c"},
		{"b", "d", "c"},
		{"b", "e"},
	}, paths)
	assert.Equal(t, "a -> c", paths[0].String())
}

func buildGraph(t *testing.T, names []string, edges [][3]string) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	for _, name := range names {
		require.NoError(t, g.AddStep(domain.NewStep(name)))
	}
	for _, e := range edges {
		require.NoError(t, g.AddTransition(e[0], e[1], e[2]))
	}
	return g
}

func TestGenerateAcyclicPaths_Linear(t *testing.T) {
	for n := 2; n <= 8; n++ {
		t.Run(fmt.Sprintf("%d_steps", n), func(t *testing.T) {
			names := []string{domain.StartStep}
			for i := 1; i < n-1; i++ {
				names = append(names, fmt.Sprintf("s%d", i))
			}
			names = append(names, domain.EndStep)

			var edges [][3]string
			for i := 0; i+1 < len(names); i++ {
				edges = append(edges, [3]string{names[i], fmt.Sprintf("k%d", i), names[i+1]})
			}

			paths := GenerateAcyclicPaths(buildGraph(t, names, edges))
			require.Len(t, paths, 1)
			assert.Len(t, paths[0], n-1)
		})
	}
}

func TestGenerateAcyclicPaths_BinaryBranches(t *testing.T) {
	for k := 1; k <= 5; k++ {
		t.Run(fmt.Sprintf("%d_branches", k), func(t *testing.T) {
			// start -> {l0, r0} -> m1 -> {l1, r1} -> ... -> end
			joint := func(i int) string {
				switch i {
				case 0:
					return domain.StartStep
				case k:
					return domain.EndStep
				}
				return fmt.Sprintf("m%d", i)
			}
			var names []string
			var edges [][3]string
			for i := 0; i <= k; i++ {
				names = append(names, joint(i))
			}
			for i := 0; i < k; i++ {
				l, r := fmt.Sprintf("l%d", i), fmt.Sprintf("r%d", i)
				names = append(names, l, r)
				edges = append(edges,
					[3]string{joint(i), "to-" + l, l},
					[3]string{joint(i), "to-" + r, r},
					[3]string{l, "from-" + l, joint(i + 1)},
					[3]string{r, "from-" + r, joint(i + 1)},
				)
			}

			paths := GenerateAcyclicPaths(buildGraph(t, names, edges))
			require.Len(t, paths, 1<<k)

			seen := make(map[string]bool, len(paths))
			for _, p := range paths {
				assert.Len(t, p, 2*k)
				assert.False(t, seen[p.String()], "path %s listed twice", p)
				seen[p.String()] = true

				kinds := make(map[string]bool, len(p))
				for _, kind := range p {
					assert.False(t, kinds[kind], "path %s repeats %s", p, kind)
					kinds[kind] = true
				}
			}
		})
	}
}

func TestGenerateAcyclicPaths_EndUnreachable(t *testing.T) {
	g, err := compiler.Parse([]byte(`
- name: start
  transitions:
    - {interaction: a, step: start}
`))
	require.NoError(t, err)

	assert.Empty(t, GenerateAcyclicPaths(g))
}

func TestVerify(t *testing.T) {
	g, err := compiler.Parse([]byte(`
- name: start
  ui:
    - {type: modal, template: w.html}
  setup:
    - {component: qui-domains, function: highlight, parameters: {vm: work}}
  transitions:
    - {interaction: tutorial:next, step: work}
- name: work
  teardown:
    - {component: dom0, function: notify}
  transitions:
    - {interaction: create-window, step: end}
`))
	require.NoError(t, err)

	results, err := Verify(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, domain.EndStep, res.Reached)
	var names []string
	for _, c := range res.Calls {
		names = append(names, c.String())
	}
	assert.Equal(t, []string{
		"ui.setup_ui",
		"qui-domains.enable_tutorial",
		"qui-domains.highlight",
		"ui.teardown_ui",
		"ui.setup_ui",
		"dom0.notify",
		"ui.teardown_ui",
		"qui-domains.disable_tutorial",
	}, names)
}

// randomGraph builds a graph with n named steps and random transitions.
func randomGraph(t *rapid.T) *domain.Graph {
	n := rapid.IntRange(0, 6).Draw(t, "inner")
	names := []string{domain.StartStep}
	for i := range n {
		names = append(names, fmt.Sprintf("s%d", i))
	}
	names = append(names, domain.EndStep)

	g := domain.NewGraph()
	for _, name := range names {
		if err := g.AddStep(domain.NewStep(name)); err != nil {
			t.Fatal(err)
		}
	}
	for _, from := range names[:len(names)-1] {
		edges := rapid.IntRange(0, 3).Draw(t, "edges-"+from)
		for e := range edges {
			to := rapid.SampledFrom(names).Draw(t, "to")
			kind := fmt.Sprintf("%s-%d", from, e)
			if err := g.AddTransition(from, kind, to); err != nil {
				t.Fatal(err)
			}
		}
	}
	return g
}

func TestProperty_PathsAreAcyclicAndReachEnd(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := randomGraph(t)

		for _, path := range GenerateAcyclicPaths(g) {
			step := g.Start()
			seen := map[string]bool{step.Name: true}
			for _, kind := range path {
				step = step.Next(domain.NewInteraction(kind, "", ""))
				if step == nil {
					t.Fatalf("path %s uses a missing transition", path)
				}
				if seen[step.Name] {
					t.Fatalf("path %s revisits %q", path, step.Name)
				}
				seen[step.Name] = true
			}
			if !step.IsLast() {
				t.Fatalf("path %s ends at %q", path, step.Name)
			}
		}
	})
}

func TestProperty_ReplayTerminates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := randomGraph(t)

		results, err := Verify(context.Background(), g)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if len(results) != len(GenerateAcyclicPaths(g)) {
			t.Fatalf("got %d results", len(results))
		}
	})
}

func TestReplay_ShortPathDoesNotTerminate(t *testing.T) {
	g, err := compiler.Parse([]byte(`
- name: start
  transitions:
    - {interaction: go, step: middle}
- name: middle
  transitions:
    - {interaction: done, step: end}
`))
	require.NoError(t, err)

	v := &verifier{logger: logging.NewNop()}
	res := v.replay(context.Background(), g, Path{"go"})

	assert.ErrorIs(t, res.Err, domain.ErrPathDidNotTerminate)
	assert.Equal(t, "middle", res.Reached)
}
