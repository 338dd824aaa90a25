package dto

import "gopkg.in/yaml.v3"

// StepRecord is one step of a tutorial definition as written in YAML.
// UI entries stay untyped until the compiler decodes them into directives.
type StepRecord struct {
	Name        string             `yaml:"name"`
	UI          []map[string]any   `yaml:"ui,omitempty"`
	Setup       []EffectRecord     `yaml:"setup,omitempty"`
	Teardown    []EffectRecord     `yaml:"teardown,omitempty"`
	Transitions []TransitionRecord `yaml:"transitions,omitempty"`
}

// EffectRecord is a side effect as written in YAML.
// Parameters is kept as a node so key order survives decoding.
type EffectRecord struct {
	Component  string    `yaml:"component"`
	Function   string    `yaml:"function"`
	Parameters yaml.Node `yaml:"parameters,omitempty"`
}

// TransitionRecord moves to Step when Interaction occurs.
type TransitionRecord struct {
	Interaction string `yaml:"interaction"`
	Step        string `yaml:"step"`
}

// Document is the wrapped form {steps: [...]}, accepted besides a bare list.
type Document struct {
	Steps []StepRecord `yaml:"steps"`
}
