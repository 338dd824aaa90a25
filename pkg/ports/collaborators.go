package ports

import (
	"context"

	"github.com/aretw0/guidepost/pkg/domain"
)

// UINotifier tells the UI relay what to show.
type UINotifier interface {
	// Setup shows the given directives, replacing whatever was visible.
	Setup(ctx context.Context, directives []domain.Directive) error
	// Teardown hides the widgets of the current step.
	Teardown(ctx context.Context) error
}

// ExtensionClient talks to the extensions running inside collaborator processes.
type ExtensionClient interface {
	EnableTutorial(ctx context.Context, component string) error
	DisableTutorial(ctx context.Context, component string) error
	// Call invokes a declared function of the component with ordered parameters.
	Call(ctx context.Context, component, function string, params domain.Params) error
}

// ShellRunner executes side effects on the controller host.
type ShellRunner interface {
	// Run executes the named command. Params are exposed to the process environment.
	Run(ctx context.Context, name string, params domain.Params) error
	// Commands lists the names Run accepts.
	Commands() []string
}

// WindowInspector answers questions about windows seen by the window watcher.
type WindowInspector interface {
	// Viewable reports whether the window is mapped and visible.
	Viewable(ctx context.Context, resource, windowID string) (bool, error)
	// Title returns the window title. The value comes from an untrusted source.
	Title(ctx context.Context, resource, windowID string) (string, error)
}

// ScopeManager marks resources as part of the tutorial for the duration of a run.
type ScopeManager interface {
	Enter(ctx context.Context, resource string) error
	Leave(ctx context.Context, resource string) error
}

// InteractionRegistrar delivers interactions from another process to the controller.
// Register returns without waiting for delivery.
type InteractionRegistrar interface {
	Register(kind, subject, arguments string)
}
