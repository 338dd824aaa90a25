// Package compiler turns tutorial definitions (YAML, or YAML blocks inside
// literate Markdown) into a validated step graph.
package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/guidepost/internal/dto"
	"github.com/aretw0/guidepost/internal/logging"
	"github.com/aretw0/guidepost/pkg/domain"
	"github.com/aretw0/guidepost/pkg/registry"
)

// Format is the container of a definition.
type Format int

const (
	FormatYAML Format = iota
	FormatMarkdown
)

// FormatOf guesses the format from a file name.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	}
	return 0, fmt.Errorf("unsupported tutorial file %q: expected .yaml, .yml or .md", path)
}

// Definition is a loaded tutorial.
type Definition struct {
	Name  string
	Path  string
	Dir   string // Directory templates are resolved against.
	Graph *domain.Graph
}

// Option configures a Loader.
type Option func(*Loader)

// WithCapabilities makes the loader resolve every side effect against caps.
// Without it side effects are only checked for shape.
func WithCapabilities(caps *registry.Capabilities) Option {
	return func(l *Loader) {
		l.caps = caps
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// Loader builds step graphs from definitions.
type Loader struct {
	caps   *registry.Capabilities
	logger *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads and compiles a tutorial file.
func (l *Loader) LoadFile(path string) (*Definition, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tutorial: %w", err)
	}

	g, err := l.Load(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.EqualFold(name, "readme") {
		name = filepath.Base(filepath.Dir(path))
	}
	return &Definition{Name: name, Path: path, Dir: filepath.Dir(path), Graph: g}, nil
}

// Load compiles a definition held in memory.
func (l *Loader) Load(data []byte, format Format) (*domain.Graph, error) {
	if format == FormatMarkdown {
		data = ExtractYAML(data)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return nil, err
	}
	return l.build(records)
}

func decodeRecords(data []byte) ([]dto.StepRecord, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse tutorial: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, nil
	}

	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		var steps []dto.StepRecord
		if err := doc.Decode(&steps); err != nil {
			return nil, fmt.Errorf("failed to decode steps: %w", err)
		}
		return steps, nil
	case yaml.MappingNode:
		var wrapped dto.Document
		if err := doc.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("failed to decode steps: %w", err)
		}
		return wrapped.Steps, nil
	}
	return nil, fmt.Errorf("failed to parse tutorial: expected a list of steps at line %d", doc.Line)
}

func (l *Loader) build(records []dto.StepRecord) (*domain.Graph, error) {
	g := domain.NewGraph()

	// Nodes first, so transitions can point forward.
	for i, rec := range records {
		if rec.Name == "" {
			return nil, fmt.Errorf("step #%d has no name", i+1)
		}
		step, err := l.compileStep(rec)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", rec.Name, err)
		}
		if err := g.AddStep(step); err != nil {
			return nil, err
		}
	}
	if err := g.AddStep(domain.NewStep(domain.EndStep)); err != nil {
		return nil, fmt.Errorf("%w (the end step is implicit)", err)
	}

	for _, rec := range records {
		for _, tr := range rec.Transitions {
			if tr.Interaction == "" {
				return nil, fmt.Errorf("step %q: transition to %q has no interaction", rec.Name, tr.Step)
			}
			if err := g.AddTransition(rec.Name, tr.Interaction, tr.Step); err != nil {
				return nil, err
			}
		}
	}

	if err := g.CheckIntegrity(); err != nil {
		return nil, err
	}

	l.logger.Debug("tutorial compiled", "steps", g.Len())
	return g, nil
}

func (l *Loader) compileStep(rec dto.StepRecord) (*domain.Step, error) {
	step := domain.NewStep(rec.Name)

	for i, raw := range rec.UI {
		d, err := DecodeDirective(raw)
		if err != nil {
			return nil, fmt.Errorf("ui #%d: %w", i+1, err)
		}
		step.UI = append(step.UI, d)
	}

	var err error
	if step.Setup, err = l.compileEffects(rec.Setup); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	if step.Teardown, err = l.compileEffects(rec.Teardown); err != nil {
		return nil, fmt.Errorf("teardown: %w", err)
	}
	return step, nil
}

func (l *Loader) compileEffects(records []dto.EffectRecord) ([]domain.Effect, error) {
	var effects []domain.Effect
	var errs []error
	for i, rec := range records {
		params, err := decodeParams(&rec.Parameters)
		if err != nil {
			errs = append(errs, fmt.Errorf("#%d: %w", i+1, err))
			continue
		}
		e := domain.Effect{Component: rec.Component, Function: rec.Function, Params: params}
		if e.Component == "" || e.Function == "" {
			errs = append(errs, fmt.Errorf("#%d: component and function are required", i+1))
			continue
		}
		if l.caps != nil {
			if _, err := l.caps.Resolve(e); err != nil {
				errs = append(errs, fmt.Errorf("#%d: %w", i+1, err))
				continue
			}
		}
		effects = append(effects, e)
	}
	return effects, errors.Join(errs...)
}

func decodeParams(node *yaml.Node) (domain.Params, error) {
	if node.IsZero() {
		return nil, nil
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parameters must be a mapping (line %d)", node.Line)
	}

	params := make(domain.Params, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var v any
		if err := value.Decode(&v); err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key.Value, err)
		}
		params = append(params, domain.Param{Key: key.Value, Value: v})
	}
	return params, nil
}

// Parse compiles a YAML definition without resolving side effects.
func Parse(data []byte) (*domain.Graph, error) {
	return NewLoader().Load(bytes.TrimSpace(data), FormatYAML)
}
