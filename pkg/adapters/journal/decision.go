package journal

import (
	"fmt"
	"regexp"

	"github.com/aretw0/guidepost/pkg/domain"
)

// Qube names start with a letter; targets may carry a "@" and a "dispvm:" style prefix.
var decisionPattern = regexp.MustCompile(
	`(?P<policy>[.a-zA-Z0-9_-]+): (?P<source>[a-zA-Z][a-zA-Z0-9_-]*) -> @?(?P<intended>[a-zA-Z][a-zA-Z0-9_:-]*): ` +
		`(?:allowed to (?P<target>[a-zA-Z][a-zA-Z0-9_-]*)|(?P<reason>.*))`)

// Decision is a parsed policy-engine log line.
type Decision struct {
	Policy     string
	Source     string
	Target     string
	Success    bool
	FailReason string
}

// ParseDecision extracts a decision from a log message. Lines that are not
// decisions return domain.ErrParseMismatch.
func ParseDecision(line string) (Decision, error) {
	m := decisionPattern.FindStringSubmatch(line)
	if m == nil {
		return Decision{}, fmt.Errorf("%w: not a policy decision", domain.ErrParseMismatch)
	}
	group := func(name string) string {
		return m[decisionPattern.SubexpIndex(name)]
	}

	d := Decision{
		Policy: group("policy"),
		Source: group("source"),
		Target: group("target"),
	}
	if d.Target != "" {
		d.Success = true
		return d, nil
	}

	// A denied call has no actual target; report the one that was asked for.
	d.Target = group("intended")
	d.FailReason = group("reason")
	return d, nil
}

// Interaction converts the decision into the interaction pushed on the bus.
func (d Decision) Interaction() domain.Interaction {
	kind := domain.KindPolicyDeny
	if d.Success {
		kind = domain.KindPolicyAllow
	}
	return domain.NewInteraction(kind, d.Source, fmt.Sprintf("policy=%s target=%s", d.Policy, d.Target))
}
