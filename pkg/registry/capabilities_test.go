package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/guidepost/pkg/domain"
	"github.com/aretw0/guidepost/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	ran []string
}

func (f *fakeRunner) Run(_ context.Context, name string, _ domain.Params) error {
	f.ran = append(f.ran, name)
	return nil
}

func (f *fakeRunner) Commands() []string { return []string{"shell", "start-vm"} }

func newCapabilities(t *testing.T) (*registry.Capabilities, *fakeRunner, *mockClient) {
	t.Helper()
	runner := &fakeRunner{}
	client := new(mockClient)
	caps := registry.NewCapabilities()
	caps.RegisterLocal(runner)
	caps.RegisterExtension("qui", []string{"highlight"}, registry.New(client))
	return caps, runner, client
}

func TestCapabilities_Resolve(t *testing.T) {
	caps, _, _ := newCapabilities(t)

	tests := []struct {
		name    string
		effect  domain.Effect
		wantErr error
	}{
		{name: "local command", effect: domain.Effect{Component: "dom0", Function: "start-vm"}},
		{name: "declared extension function", effect: domain.Effect{Component: "qui", Function: "highlight"}},
		{name: "implicit enable", effect: domain.Effect{Component: "qui", Function: "enable_tutorial"}},
		{name: "unknown component", effect: domain.Effect{Component: "nautilus", Function: "x"}, wantErr: domain.ErrUnrecognizedSideEffectComponent},
		{name: "unknown local command", effect: domain.Effect{Component: "dom0", Function: "rm"}, wantErr: domain.ErrUnrecognizedSideEffectFunction},
		{name: "undeclared extension function", effect: domain.Effect{Component: "qui", Function: "explode"}, wantErr: domain.ErrUnrecognizedSideEffectFunction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := caps.Resolve(tt.effect)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBinding_Invoke(t *testing.T) {
	caps, runner, client := newCapabilities(t)
	ctx := context.Background()

	local, err := caps.Resolve(domain.Effect{Component: "dom0", Function: "start-vm"})
	require.NoError(t, err)
	require.NoError(t, local.Invoke(ctx))
	assert.Equal(t, []string{"start-vm"}, runner.ran)

	client.On("EnableTutorial", "qui").Return(nil).Once()
	client.On("Call", "qui", "highlight", domain.Params(nil)).Return(nil).Once()
	remote, err := caps.Resolve(domain.Effect{Component: "qui", Function: "highlight"})
	require.NoError(t, err)
	require.NoError(t, remote.Invoke(ctx))
	client.AssertExpectations(t)
}

func TestCapabilities_Components(t *testing.T) {
	caps, _, _ := newCapabilities(t)
	assert.Equal(t, []string{"dom0", "qui"}, caps.Components())
}
