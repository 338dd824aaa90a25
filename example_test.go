package guidepost_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/guidepost"
	"github.com/aretw0/guidepost/pkg/adapters/memory"
	"github.com/aretw0/guidepost/pkg/domain"
)

// ExampleNew_memory plays a graph built in code against in-memory
// collaborators. This is useful for testing or when tutorials are generated.
func ExampleNew_memory() {
	g := domain.NewGraph()
	start := domain.NewStep(domain.StartStep)
	start.UI = []domain.Directive{domain.Modal{Type: domain.DirectiveModal, Title: "Welcome", NextButton: "Start"}}
	for _, s := range []*domain.Step{start, domain.NewStep(domain.EndStep)} {
		if err := g.AddStep(s); err != nil {
			log.Fatal(err)
		}
	}
	if err := g.AddTransition(domain.StartStep, domain.KindTutorialNext, domain.EndStep); err != nil {
		log.Fatal(err)
	}

	rec := memory.NewRecorder()
	engine, err := guidepost.New("", rec, rec, guidepost.WithGraph(g))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := engine.Start(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Current:", engine.State().CurrentStep)

	engine.Register(domain.KindTutorialNext, "", "")
	if _, err := engine.Tick(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Current:", engine.State().CurrentStep)
	fmt.Println("Calls:", rec.Names())

	// Output:
	// Current: start
	// Current: end
	// Calls: [ui.setup_ui ui.teardown_ui]
}
