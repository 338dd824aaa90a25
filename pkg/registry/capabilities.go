package registry

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/aretw0/guidepost/pkg/domain"
	"github.com/aretw0/guidepost/pkg/ports"
)

// Handle executes the functions of one component.
type Handle interface {
	Functions() []string
	Invoke(ctx context.Context, function string, params domain.Params) error
}

// LocalHandle runs side effects of the controller host through a shell runner.
type LocalHandle struct {
	Runner ports.ShellRunner
}

// Functions lists the commands the runner accepts.
func (h LocalHandle) Functions() []string {
	return h.Runner.Commands()
}

// Invoke runs the named command.
func (h LocalHandle) Invoke(ctx context.Context, function string, params domain.Params) error {
	return h.Runner.Run(ctx, function, params)
}

// ExtensionHandle calls a remote extension, enabling it on first use.
type ExtensionHandle struct {
	Name     string
	Declared []string
	Registry *Registry
}

// Functions lists the declared functions plus the tutorial mode toggles.
func (h ExtensionHandle) Functions() []string {
	fns := append([]string{"enable_tutorial", "disable_tutorial"}, h.Declared...)
	slices.Sort(fns)
	return slices.Compact(fns)
}

// Invoke toggles tutorial mode or calls function through the registry.
func (h ExtensionHandle) Invoke(ctx context.Context, function string, params domain.Params) error {
	switch function {
	case "enable_tutorial":
		return h.Registry.Enable(ctx, h.Name)
	case "disable_tutorial":
		return h.Registry.Disable(ctx, h.Name)
	}
	return h.Registry.Call(ctx, h.Name, function, params)
}

// Binding is a side effect resolved at load time.
type Binding struct {
	Effect domain.Effect
	handle Handle
}

// Invoke executes the bound side effect.
func (b Binding) Invoke(ctx context.Context) error {
	return b.handle.Invoke(ctx, b.Effect.Function, b.Effect.Params)
}

// Capabilities maps component names to their handles.
type Capabilities struct {
	handles map[string]Handle
}

// NewCapabilities creates an empty table.
func NewCapabilities() *Capabilities {
	return &Capabilities{handles: make(map[string]Handle)}
}

// Register binds a component name to a handle, replacing any previous one.
func (c *Capabilities) Register(component string, h Handle) {
	c.handles[component] = h
}

// RegisterLocal binds the dom0 component to a shell runner.
func (c *Capabilities) RegisterLocal(runner ports.ShellRunner) {
	c.Register(domain.LocalComponent, LocalHandle{Runner: runner})
}

// RegisterExtension binds an extension and the functions it declares.
func (c *Capabilities) RegisterExtension(name string, functions []string, reg *Registry) {
	c.Register(name, ExtensionHandle{Name: name, Declared: functions, Registry: reg})
}

// Components lists the registered component names.
func (c *Capabilities) Components() []string {
	names := make([]string, 0, len(c.handles))
	for name := range c.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve checks that the effect names a known component and function.
func (c *Capabilities) Resolve(effect domain.Effect) (Binding, error) {
	h, ok := c.handles[effect.Component]
	if !ok {
		return Binding{}, fmt.Errorf("%w: %q (known: %v)",
			domain.ErrUnrecognizedSideEffectComponent, effect.Component, c.Components())
	}
	if !slices.Contains(h.Functions(), effect.Function) {
		return Binding{}, fmt.Errorf("%w: %q on component %q",
			domain.ErrUnrecognizedSideEffectFunction, effect.Function, effect.Component)
	}
	return Binding{Effect: effect, handle: h}, nil
}
