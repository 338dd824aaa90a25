package domain

import (
	"fmt"
	"strings"
)

// LocalComponent is the component name for side effects executed on the controller host.
const LocalComponent = "dom0"

// Param is a single named argument of a side effect.
type Param struct {
	Key   string
	Value any
}

// Params keeps side-effect arguments in declaration order.
type Params []Param

// Get returns the value for key.
func (p Params) Get(key string) (any, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// String returns the value for key formatted as text, or "".
func (p Params) String(key string) string {
	v, ok := p.Get(key)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Map flattens the params, e.g. for a JSON body.
func (p Params) Map() map[string]any {
	m := make(map[string]any, len(p))
	for _, kv := range p {
		m[kv.Key] = kv.Value
	}
	return m
}

// Effect is a side-effect record attached to a step's setup or teardown.
type Effect struct {
	Component string
	Function  string
	Params    Params
}

// IsLocal reports whether the effect runs on the controller host.
func (e Effect) IsLocal() bool {
	return e.Component == LocalComponent
}

func (e Effect) String() string {
	var b strings.Builder
	b.WriteString(e.Component)
	b.WriteString(".")
	b.WriteString(e.Function)
	b.WriteString("(")
	for i, kv := range e.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", kv.Key, kv.Value)
	}
	b.WriteString(")")
	return b.String()
}
