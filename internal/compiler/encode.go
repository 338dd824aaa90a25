package compiler

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/guidepost/internal/dto"
	"github.com/aretw0/guidepost/pkg/domain"
)

// Marshal writes a graph back as a YAML definition, omitting the implicit end step.
// Loading the result yields an equivalent graph.
func Marshal(g *domain.Graph) ([]byte, error) {
	var records []dto.StepRecord
	for _, step := range g.Steps() {
		if step.IsLast() {
			continue
		}
		rec := dto.StepRecord{Name: step.Name}

		for _, d := range step.UI {
			m, err := EncodeDirective(d)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", step.Name, err)
			}
			rec.UI = append(rec.UI, m)
		}

		var err error
		if rec.Setup, err = encodeEffects(step.Setup); err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Name, err)
		}
		if rec.Teardown, err = encodeEffects(step.Teardown); err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Name, err)
		}

		for _, tr := range step.Transitions() {
			rec.Transitions = append(rec.Transitions, dto.TransitionRecord{
				Interaction: tr.Kind,
				Step:        tr.Target.Name,
			})
		}
		records = append(records, rec)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeEffects(effects []domain.Effect) ([]dto.EffectRecord, error) {
	var out []dto.EffectRecord
	for _, e := range effects {
		rec := dto.EffectRecord{Component: e.Component, Function: e.Function}
		if len(e.Params) > 0 {
			rec.Parameters = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			for _, p := range e.Params {
				var value yaml.Node
				if err := value.Encode(p.Value); err != nil {
					return nil, fmt.Errorf("parameter %q: %w", p.Key, err)
				}
				rec.Parameters.Content = append(rec.Parameters.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key}, &value)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}
