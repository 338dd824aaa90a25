// Package report records interactions during a session and writes them out as
// a Markdown activity report, numbered in the order they happened.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/guidepost/pkg/domain"
)

// Entry is one recorded interaction.
type Entry struct {
	At          time.Time
	Interaction domain.Interaction
}

// Recorder collects interactions. It implements bus.Sink so it can sit next
// to, or in place of, the engine's bus.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Push records in with the current time.
func (r *Recorder) Push(in domain.Interaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{At: r.now(), Interaction: in})
}

// Entries returns a copy of what was recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Len returns the number of recorded interactions.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Describe turns an interaction into a headline and indented detail lines.
// Subjects and arguments may come from untrusted qubes and are quoted as code.
func Describe(in domain.Interaction) (string, []string) {
	var details []string
	switch in.Kind {
	case domain.KindCreateWindow:
		return fmt.Sprintf("Opened a window in qube %s", code(in.Subject)), withTitle(in.Arguments)
	case domain.KindCloseWindow:
		return fmt.Sprintf("Closed a window in qube %s", code(in.Subject)), nil
	case domain.KindPolicyAllow, domain.KindPolicyDeny:
		verb := "was allowed"
		if in.Kind == domain.KindPolicyDeny {
			verb = "was denied"
		}
		for _, field := range strings.Fields(in.Arguments) {
			k, v, _ := strings.Cut(field, "=")
			details = append(details, fmt.Sprintf("%s: %s", k, code(v)))
		}
		return fmt.Sprintf("Qube %s %s a qrexec call", code(in.Subject), verb), details
	case domain.KindTutorialNext:
		return "Pressed **Next**", nil
	case domain.KindTutorialBack:
		return "Pressed **Back**", nil
	case domain.KindTutorialExit:
		return "Left the tutorial", nil
	}

	if in.Subject != "" {
		details = append(details, "subject: "+code(in.Subject))
	}
	if in.Arguments != "" {
		details = append(details, "arguments: "+code(in.Arguments))
	}
	return code(in.Kind), details
}

func withTitle(title string) []string {
	if title == "" {
		return nil
	}
	return []string{"title: " + code(title)}
}

// code wraps s in a code span, using a longer fence when s holds backticks.
func code(s string) string {
	if s == "" {
		return "``"
	}
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

// Write renders entries as Markdown under a title heading.
func Write(w io.Writer, title string, entries []Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(entries) == 0 {
		b.WriteString("_No activity was recorded._\n")
	}
	for i, e := range entries {
		headline, details := Describe(e.Interaction)
		fmt.Fprintf(&b, "%d. %s\n\n", i, headline)
		if !e.At.IsZero() {
			fmt.Fprintf(&b, "    at %s\n", e.At.Format(time.TimeOnly))
		}
		for _, d := range details {
			fmt.Fprintf(&b, "    %s\n", d)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Markdown renders entries to a string.
func Markdown(title string, entries []Entry) string {
	var b strings.Builder
	_ = Write(&b, title, entries)
	return b.String()
}
