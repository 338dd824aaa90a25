package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/guidepost/internal/logging"
	"github.com/aretw0/guidepost/pkg/domain"
	plog "github.com/aretw0/guidepost/pkg/log"
)

// ErrUnknownComponent is returned for extensions without a configured address.
var ErrUnknownComponent = errors.New("no address configured for component")

// ClientOption configures the HTTP clients of this package.
type ClientOption func(*clientConfig)

type clientConfig struct {
	http   *http.Client
	logger *slog.Logger
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cfg *clientConfig) {
		cfg.http = c
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

func newClientConfig(opts []ClientOption) clientConfig {
	cfg := clientConfig{http: http.DefaultClient, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c clientConfig) post(ctx context.Context, endpoint string, body any) error {
	var payload io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: %s: %s", endpoint, resp.Status, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func join(base string, elem ...string) (string, error) {
	u, err := url.JoinPath(base, elem...)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", base, err)
	}
	return u, nil
}

// Notifier implements ports.UINotifier against the UI relay.
type Notifier struct {
	clientConfig
	baseURL string
}

// NewNotifier creates a notifier for the UI relay at baseURL.
func NewNotifier(baseURL string, opts ...ClientOption) *Notifier {
	return &Notifier{clientConfig: newClientConfig(opts), baseURL: baseURL}
}

// Setup posts the directive list to /setup_ui.
func (n *Notifier) Setup(ctx context.Context, directives []domain.Directive) error {
	endpoint, err := join(n.baseURL, "setup_ui")
	if err != nil {
		return err
	}
	if directives == nil {
		directives = []domain.Directive{}
	}
	return n.post(ctx, endpoint, directives)
}

// Teardown posts to /teardown_ui.
func (n *Notifier) Teardown(ctx context.Context) error {
	endpoint, err := join(n.baseURL, "teardown_ui")
	if err != nil {
		return err
	}
	return n.post(ctx, endpoint, nil)
}

// ExtensionClient implements ports.ExtensionClient over HTTP. Each component
// is served at its own address.
type ExtensionClient struct {
	clientConfig
	addresses map[string]string
}

// NewExtensionClient creates a client from component name to base URL.
func NewExtensionClient(addresses map[string]string, opts ...ClientOption) *ExtensionClient {
	return &ExtensionClient{clientConfig: newClientConfig(opts), addresses: addresses}
}

func (c *ExtensionClient) endpoint(component string, elem ...string) (string, error) {
	addr, ok := c.addresses[component]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownComponent, component)
	}
	return join(addr, elem...)
}

// EnableTutorial posts to {addr}/enable_tutorial.
func (c *ExtensionClient) EnableTutorial(ctx context.Context, component string) error {
	endpoint, err := c.endpoint(component, "enable_tutorial")
	if err != nil {
		return err
	}
	return c.post(ctx, endpoint, nil)
}

// DisableTutorial posts to {addr}/disable_tutorial.
func (c *ExtensionClient) DisableTutorial(ctx context.Context, component string) error {
	endpoint, err := c.endpoint(component, "disable_tutorial")
	if err != nil {
		return err
	}
	return c.post(ctx, endpoint, nil)
}

// Call posts the parameters as a JSON object to /call/{function}.
func (c *ExtensionClient) Call(ctx context.Context, component, function string, params domain.Params) error {
	endpoint, err := c.endpoint(component, "call", function)
	if err != nil {
		return err
	}
	return c.post(ctx, endpoint, params.Map())
}

// DefaultRegisterTimeout bounds a single background registration.
const DefaultRegisterTimeout = 2 * time.Second

// Registrar implements ports.InteractionRegistrar against a relay server.
type Registrar struct {
	clientConfig
	endpoint string
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewRegistrar creates a registrar posting to relayURL/interactions.
func NewRegistrar(relayURL string, opts ...ClientOption) (*Registrar, error) {
	endpoint, err := join(relayURL, "interactions")
	if err != nil {
		return nil, err
	}
	return &Registrar{
		clientConfig: newClientConfig(opts),
		endpoint:     endpoint,
		timeout:      DefaultRegisterTimeout,
	}, nil
}

// Register sends the interaction in the background. Failures are only logged.
func (r *Registrar) Register(kind, subject, arguments string) {
	in := domain.NewInteraction(kind, subject, arguments)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.post(ctx, r.endpoint, in); err != nil {
			r.logger.Warn("failed to register interaction", plog.Interaction(in), plog.Error(err))
		}
	}()
}

// Wait blocks until pending registrations are done.
func (r *Registrar) Wait() {
	r.wg.Wait()
}

// FetchState reads the run state from the relay at relayURL.
func FetchState(ctx context.Context, relayURL string, opts ...ClientOption) (domain.State, error) {
	var state domain.State
	endpoint, err := join(relayURL, "status")
	if err != nil {
		return state, err
	}
	cfg := newClientConfig(opts)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return state, err
	}
	resp, err := cfg.http.Do(req)
	if err != nil {
		return state, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return state, fmt.Errorf("GET %s: %s", endpoint, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return state, fmt.Errorf("decoding state: %w", err)
	}
	return state, nil
}
