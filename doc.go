/*
Package guidepost drives interactive, step-by-step tutorials across the
processes of a desktop.

A tutorial is a graph of steps. Each step shows UI directives, runs side
effects on entry and exit, and waits for interactions: button presses
relayed by the UI, windows opening and closing, qrexec policy decisions or
administrative events. Watchers push interactions onto a bus and a single
engine goroutine consumes them, moving to the next step when one matches.

# Concept

The engine owns the current step. Watchers, the UI and extensions never
touch it; they only register interactions. Side effects run either on the
controller host ("dom0") or on named extensions that switch into a tutorial
mode while a run needs them. Everything a tutorial may call is resolved when
it is loaded, so a typo fails before the user sees the first step.

# Key Features

  - Tutorials written as YAML or as literate Markdown with fenced yaml blocks.
  - Transitions keyed by interaction kind, checked for duplicates at load.
  - Per-call deadlines on every remote call. A timeout fails the run.
  - Path analysis: every acyclic way through a tutorial can be replayed.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/guidepost"
		"github.com/aretw0/guidepost/pkg/adapters/http"
	)

	func main() {
		ui := http.NewNotifier("http://127.0.0.1:8488")
		ext := http.NewExtensionClient(map[string]string{"qui-domains": "http://127.0.0.1:9001"})

		eng, err := guidepost.New("./onboarding.md", ui, ext,
			guidepost.WithExtension("qui-domains", "highlight"),
		)
		if err != nil {
			log.Fatal(err)
		}

		// Anything can register interactions, from any goroutine.
		go eng.Register("tutorial:next", "", "")

		if err := eng.Run(context.Background()); err != nil {
			log.Fatal(err)
		}
	}
*/
package guidepost
