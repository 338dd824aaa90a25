package compiler

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/guidepost/pkg/domain"
)

// DecodeDirective turns an untyped UI record into one of the closed directive
// variants. Values are weakly typed, so has_ok_btn: "True" and task_number: "2"
// are accepted. Unknown keys are rejected.
func DecodeDirective(raw map[string]any) (domain.Directive, error) {
	kind, _ := raw["type"].(string)

	var target domain.Directive
	switch kind {
	case domain.DirectiveModal:
		target = &domain.Modal{}
	case domain.DirectiveStepInfo:
		target = &domain.StepInfo{}
	case domain.DirectiveStepInfoPointing:
		target = &domain.StepInfoPointing{}
	case domain.DirectiveNewTask, domain.DirectiveCurrentTask:
		target = &domain.Task{}
	case domain.DirectiveNoMoreTasks:
		target = &domain.NoMoreTasks{}
	case domain.DirectiveNone:
		target = &domain.None{}
	case "":
		return nil, fmt.Errorf("%w: missing type", domain.ErrUnrecognizedUIDirective)
	default:
		return nil, fmt.Errorf("%w: %q (expected one of %v)",
			domain.ErrUnrecognizedUIDirective, kind, domain.DirectiveTypes())
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrUnrecognizedUIDirective, kind, err)
	}

	if m, ok := target.(*domain.Modal); ok && m.Template == "" {
		return nil, fmt.Errorf("%w: modal requires a template", domain.ErrUnrecognizedUIDirective)
	}

	// Return values, not pointers, so directives compare and marshal plainly.
	switch d := target.(type) {
	case *domain.Modal:
		return *d, nil
	case *domain.StepInfo:
		return *d, nil
	case *domain.StepInfoPointing:
		return *d, nil
	case *domain.Task:
		return *d, nil
	case *domain.NoMoreTasks:
		return *d, nil
	default:
		return *target.(*domain.None), nil
	}
}

// EncodeDirective is the inverse of DecodeDirective, dropping empty fields.
func EncodeDirective(d domain.Directive) (map[string]any, error) {
	var m map[string]any
	if err := mapstructure.Decode(d, &m); err != nil {
		return nil, err
	}
	for k, v := range m {
		switch x := v.(type) {
		case string:
			if x == "" {
				delete(m, k)
			}
		case int:
			if x == 0 && k != "task_number" {
				delete(m, k)
			}
		}
	}
	m["type"] = d.DirectiveType()
	return m, nil
}
