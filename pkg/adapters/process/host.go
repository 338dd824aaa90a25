package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/aretw0/guidepost/internal/logging"
	plog "github.com/aretw0/guidepost/pkg/log"
)

// ScopeTag marks qubes taking part in a tutorial.
const ScopeTag = "tutorial"

// UnnamedWindow is reported for windows without a title.
const UnnamedWindow = "<unnamed window>"

// Exec runs a host command and returns its standard output.
type Exec func(ctx context.Context, name string, args ...string) ([]byte, error)

// SystemExec runs commands with os/exec.
func SystemExec(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return out, err
}

// HostOption configures ScopeManager and XInspector.
type HostOption func(*hostConfig)

type hostConfig struct {
	exec   Exec
	logger *slog.Logger
}

// WithExec replaces os/exec, e.g. in tests.
func WithExec(fn Exec) HostOption {
	return func(c *hostConfig) {
		c.exec = fn
	}
}

// WithHostLogger sets the logger.
func WithHostLogger(logger *slog.Logger) HostOption {
	return func(c *hostConfig) {
		c.logger = logger
	}
}

func newHostConfig(opts []HostOption) hostConfig {
	c := hostConfig{exec: SystemExec, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ScopeManager tags qubes with "tutorial" and turns on their debug mode for
// the duration of a run, so their GUI daemon logs window events.
type ScopeManager struct {
	hostConfig
}

// NewScopeManager creates a ScopeManager using qvm-tags and qvm-prefs.
func NewScopeManager(opts ...HostOption) *ScopeManager {
	return &ScopeManager{newHostConfig(opts)}
}

// Enter tags the qube and turns on its debug mode.
func (s *ScopeManager) Enter(ctx context.Context, resource string) error {
	return s.apply(ctx, resource, "add", "True")
}

// Leave undoes Enter.
func (s *ScopeManager) Leave(ctx context.Context, resource string) error {
	return s.apply(ctx, resource, "del", "False")
}

// apply runs both commands even when the first one fails.
func (s *ScopeManager) apply(ctx context.Context, resource, tagAction, debug string) error {
	var errs []error
	if _, err := s.exec(ctx, "qvm-tags", resource, tagAction, ScopeTag); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.exec(ctx, "qvm-prefs", "--set", resource, "debug", debug); err != nil {
		errs = append(errs, err)
	}
	err := errors.Join(errs...)
	if err != nil {
		s.logger.Error("failed to update qube scope", plog.Resource(resource), plog.Error(err))
	} else {
		s.logger.Debug("updated qube scope", plog.Resource(resource), "debug", debug)
	}
	return err
}

// XInspector queries the X server of the controller host with xwininfo and xprop.
type XInspector struct {
	hostConfig
}

// NewXInspector creates an XInspector.
func NewXInspector(opts ...HostOption) *XInspector {
	return &XInspector{newHostConfig(opts)}
}

var windowIDFormat = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)

func validWindowID(id string) error {
	if !windowIDFormat.MatchString(id) {
		return fmt.Errorf("invalid window id %q", id)
	}
	return nil
}

// Viewable reports whether the window is mapped and viewable.
func (x *XInspector) Viewable(ctx context.Context, _, windowID string) (bool, error) {
	if err := validWindowID(windowID); err != nil {
		return false, err
	}
	out, err := x.exec(ctx, "xwininfo", "-id", windowID)
	if err != nil {
		return false, err
	}
	return strings.Contains(string(out), "Map State: IsViewable"), nil
}

// Title reads WM_NAME. Titles are set by the qube and must not be trusted.
func (x *XInspector) Title(ctx context.Context, _, windowID string) (string, error) {
	if err := validWindowID(windowID); err != nil {
		return "", err
	}
	out, err := x.exec(ctx, "xprop", "-id", windowID, "WM_NAME")
	if err != nil {
		return "", err
	}
	return ParseWindowTitle(out), nil
}

// ParseWindowTitle extracts the quoted value of an xprop WM_NAME line.
// Non-UTF-8 titles are decoded as Latin-1 and control characters dropped.
func ParseWindowTitle(out []byte) string {
	_, rest, found := strings.Cut(string(out), "= ")
	if !found {
		return UnnamedWindow
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, `"`)
	rest = strings.TrimSuffix(rest, `"`)
	rest = strings.ReplaceAll(rest, `\"`, `"`)

	if !utf8.ValidString(rest) {
		if decoded, err := charmap.ISO8859_1.NewDecoder().String(rest); err == nil {
			rest = decoded
		}
	}
	title := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, rest)
	if title == "" {
		return UnnamedWindow
	}
	return title
}
