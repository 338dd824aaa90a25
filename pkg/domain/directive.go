package domain

import "encoding/json"

// UI directive types understood by the UI relay.
const (
	DirectiveModal            = "modal"
	DirectiveStepInfo         = "step_information"
	DirectiveStepInfoPointing = "step_information_pointing"
	DirectiveNewTask          = "new_task"
	DirectiveCurrentTask      = "current_task"
	DirectiveNoMoreTasks      = "no_more_tasks"
	DirectiveNone             = "none"
)

// Directive is one UI instruction sent to the relay when a step is entered.
// The set of implementations is closed; decoding happens when the tutorial is loaded.
type Directive interface {
	DirectiveType() string
	directive()
}

// Modal shows a templated dialog with up to two buttons.
type Modal struct {
	Type       string `json:"type" mapstructure:"type"`
	Template   string `json:"template" mapstructure:"template"`
	Title      string `json:"title,omitempty" mapstructure:"title"`
	NextButton string `json:"next_button,omitempty" mapstructure:"next_button"`
	BackButton string `json:"back_button,omitempty" mapstructure:"back_button"`
}

// StepInfo is a small floating hint, optionally acknowledged with an OK button.
type StepInfo struct {
	Type     string `json:"type" mapstructure:"type"`
	Title    string `json:"title,omitempty" mapstructure:"title"`
	Text     string `json:"text,omitempty" mapstructure:"text"`
	HasOKBtn bool   `json:"has_ok_btn" mapstructure:"has_ok_btn"`
	AlignX   string `json:"align_x,omitempty" mapstructure:"align_x"`
	AlignY   string `json:"align_y,omitempty" mapstructure:"align_y"`
}

// StepInfoPointing is a hint anchored by one of its corners to a screen coordinate.
type StepInfoPointing struct {
	Type   string `json:"type" mapstructure:"type"`
	Title  string `json:"title,omitempty" mapstructure:"title"`
	Text   string `json:"text,omitempty" mapstructure:"text"`
	X      int    `json:"x" mapstructure:"x"`
	Y      int    `json:"y" mapstructure:"y"`
	Corner string `json:"corner,omitempty" mapstructure:"corner"`
}

// Task announces a task. Type is either new_task or current_task.
type Task struct {
	Type            string `json:"type" mapstructure:"type"`
	TaskNumber      int    `json:"task_number" mapstructure:"task_number"`
	TaskDescription string `json:"task_description" mapstructure:"task_description"`
	OKAction        string `json:"ok_action,omitempty" mapstructure:"ok_action"`
	ExitAction      string `json:"exit_action,omitempty" mapstructure:"exit_action"`
}

// NoMoreTasks tells the user every task is done.
type NoMoreTasks struct {
	Type string `json:"type" mapstructure:"type"`
}

// None clears every widget shown by the relay.
type None struct {
	Type string `json:"type" mapstructure:"type"`
}

func (Modal) DirectiveType() string            { return DirectiveModal }
func (StepInfo) DirectiveType() string         { return DirectiveStepInfo }
func (StepInfoPointing) DirectiveType() string { return DirectiveStepInfoPointing }
func (t Task) DirectiveType() string {
	if t.Type == DirectiveCurrentTask {
		return DirectiveCurrentTask
	}
	return DirectiveNewTask
}
func (NoMoreTasks) DirectiveType() string { return DirectiveNoMoreTasks }
func (None) DirectiveType() string        { return DirectiveNone }

func (Modal) directive()            {}
func (StepInfo) directive()         {}
func (StepInfoPointing) directive() {}
func (Task) directive()             {}
func (NoMoreTasks) directive()      {}
func (None) directive()             {}

// MarshalJSON methods stamp "type" from DirectiveType, so directives built in
// code without Type set still dispatch on the relay.

func (d Modal) MarshalJSON() ([]byte, error) {
	type wire Modal
	d.Type = d.DirectiveType()
	return json.Marshal(wire(d))
}

func (d StepInfo) MarshalJSON() ([]byte, error) {
	type wire StepInfo
	d.Type = d.DirectiveType()
	return json.Marshal(wire(d))
}

func (d StepInfoPointing) MarshalJSON() ([]byte, error) {
	type wire StepInfoPointing
	d.Type = d.DirectiveType()
	return json.Marshal(wire(d))
}

func (d Task) MarshalJSON() ([]byte, error) {
	type wire Task
	d.Type = d.DirectiveType()
	return json.Marshal(wire(d))
}

func (d NoMoreTasks) MarshalJSON() ([]byte, error) {
	type wire NoMoreTasks
	d.Type = d.DirectiveType()
	return json.Marshal(wire(d))
}

func (d None) MarshalJSON() ([]byte, error) {
	type wire None
	d.Type = d.DirectiveType()
	return json.Marshal(wire(d))
}

// ClearUI is the canonical directive list sent when a step declares no UI.
func ClearUI() []Directive {
	return []Directive{None{Type: DirectiveNone}}
}

// DirectiveTypes lists every accepted directive type.
func DirectiveTypes() []string {
	return []string{
		DirectiveModal,
		DirectiveStepInfo,
		DirectiveStepInfoPointing,
		DirectiveNewTask,
		DirectiveCurrentTask,
		DirectiveNoMoreTasks,
		DirectiveNone,
	}
}
