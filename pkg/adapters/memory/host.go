package memory

import (
	"context"
	"sync"
)

// Host implements ports.ScopeManager and ports.WindowInspector without a display.
type Host struct {
	mu      sync.Mutex
	inScope map[string]bool
	titles  map[string]string
	hidden  map[string]bool
}

// NewHost creates a host where every window is viewable and untitled.
func NewHost() *Host {
	return &Host{
		inScope: make(map[string]bool),
		titles:  make(map[string]string),
		hidden:  make(map[string]bool),
	}
}

// SetWindow configures what the inspector reports for a window.
func (h *Host) SetWindow(windowID, title string, viewable bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.titles[windowID] = title
	h.hidden[windowID] = !viewable
}

// InScope reports whether Enter was called for the resource without a matching Leave.
func (h *Host) InScope(resource string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inScope[resource]
}

// Enter adds resource to the scope.
func (h *Host) Enter(_ context.Context, resource string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inScope[resource] = true
	return nil
}

// Leave removes resource from the scope.
func (h *Host) Leave(_ context.Context, resource string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inScope, resource)
	return nil
}

func (h *Host) Viewable(_ context.Context, _, windowID string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.hidden[windowID], nil
}

func (h *Host) Title(_ context.Context, _, windowID string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.titles[windowID]; ok {
		return t, nil
	}
	return "<unnamed window>", nil
}
