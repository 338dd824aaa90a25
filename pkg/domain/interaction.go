package domain

import "strings"

// Well-known interaction kinds emitted by the bundled watchers and the UI relay.
const (
	KindCreateWindow = "create-window"
	KindCloseWindow  = "close-window"
	KindPolicyAllow  = "qrexec-policy-allow"
	KindPolicyDeny   = "qrexec-policy-deny"

	// Buttons on the tutorial widgets.
	KindTutorialNext = "tutorial:next"
	KindTutorialBack = "tutorial:back"
	KindTutorialExit = "tutorial:exit"
)

// Interaction is a classified domain event that may trigger a step transition.
// It is a value type; once created it must not be mutated.
//
// Transition matching only looks at Kind. Subject and Arguments are carried for
// logging and reporting.
type Interaction struct {
	Kind      string `json:"kind" yaml:"kind"`
	Subject   string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Arguments string `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// NewInteraction builds an Interaction.
func NewInteraction(kind, subject, arguments string) Interaction {
	return Interaction{Kind: kind, Subject: subject, Arguments: arguments}
}

// Key is the value transitions are matched against.
func (i Interaction) Key() string {
	return i.Kind
}

// Matches reports whether both interactions share a transition key.
func (i Interaction) Matches(other Interaction) bool {
	return i.Key() == other.Key()
}

// String renders the interaction as "kind[:subject[:arguments]]".
func (i Interaction) String() string {
	parts := []string{i.Kind}
	if i.Subject != "" || i.Arguments != "" {
		parts = append(parts, i.Subject)
	}
	if i.Arguments != "" {
		parts = append(parts, i.Arguments)
	}
	return strings.Join(parts, ":")
}
