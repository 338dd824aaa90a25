/*
Package dsl builds tutorial graphs from Go code.

It is the programmatic counterpart of the YAML loader: steps are declared with
a fluent builder, the implicit end step is added on Build, and side effects can
be checked against a set of capabilities before the graph is handed to the
engine. Useful for tests, generated tutorials and small embedded flows.

Example usage:

	b := dsl.New()

	b.Step("start").
		Modal("welcome.html", "Next", "").
		On("tutorial:next", "open_terminal")

	b.Step("open_terminal").
		Info("Open a terminal", "Start any app in the work qube").
		Setup("qui-domains", "highlight", "qube", "work").
		On("create-window", "end")

	g, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}
	// ... pass g to guidepost.New with guidepost.WithGraph(g)
*/
package dsl
