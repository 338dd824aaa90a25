package registry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/guidepost/pkg/domain"
	"github.com/aretw0/guidepost/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) EnableTutorial(ctx context.Context, component string) error {
	return m.Called(component).Error(0)
}

func (m *mockClient) DisableTutorial(ctx context.Context, component string) error {
	return m.Called(component).Error(0)
}

func (m *mockClient) Call(ctx context.Context, component, function string, params domain.Params) error {
	return m.Called(component, function, params).Error(0)
}

func TestRegistry_EnableIsIdempotent(t *testing.T) {
	client := new(mockClient)
	client.On("EnableTutorial", "x").Return(nil).Once()
	reg := registry.New(client)

	require.NoError(t, reg.Enable(context.Background(), "x"))
	require.NoError(t, reg.Enable(context.Background(), "x"))

	client.AssertNumberOfCalls(t, "EnableTutorial", 1)
	assert.True(t, reg.IsEnabled("x"))
}

func TestRegistry_EnableFailureIsNotRecorded(t *testing.T) {
	client := new(mockClient)
	client.On("EnableTutorial", "qui").Return(errors.New("connection refused"))
	reg := registry.New(client)

	err := reg.Enable(context.Background(), "qui")

	assert.ErrorIs(t, err, domain.ErrExtensionEnable)
	assert.ErrorContains(t, err, `couldn't enable extension "qui", maybe it's not running`)
	assert.False(t, reg.IsEnabled("qui"))
	assert.Empty(t, reg.Enabled())
}

func TestRegistry_DisableRemovesEvenOnFailure(t *testing.T) {
	client := new(mockClient)
	client.On("EnableTutorial", "x").Return(nil)
	client.On("DisableTutorial", "x").Return(errors.New("gone"))
	reg := registry.New(client)
	require.NoError(t, reg.Enable(context.Background(), "x"))

	err := reg.Disable(context.Background(), "x")

	assert.ErrorIs(t, err, domain.ErrExtensionDisable)
	assert.False(t, reg.IsEnabled("x"))
}

func TestRegistry_DisableAllCollectsFailures(t *testing.T) {
	client := new(mockClient)
	for _, c := range []string{"c", "a", "b"} {
		client.On("EnableTutorial", c).Return(nil)
	}
	client.On("DisableTutorial", "a").Return(nil)
	client.On("DisableTutorial", "b").Return(errors.New("b down"))
	client.On("DisableTutorial", "c").Return(errors.New("c down"))
	reg := registry.New(client)

	ctx := context.Background()
	for _, c := range []string{"c", "a", "b"} {
		require.NoError(t, reg.Enable(ctx, c))
	}
	assert.Equal(t, []string{"a", "b", "c"}, reg.Enabled())

	errs := reg.DisableAll(ctx)

	require.Len(t, errs, 2)
	assert.ErrorContains(t, errs[0], `"b"`)
	assert.ErrorContains(t, errs[1], `"c"`)
	assert.Empty(t, reg.Enabled())
	client.AssertExpectations(t)
}

type slowClient struct{}

func (slowClient) EnableTutorial(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}
func (slowClient) DisableTutorial(context.Context, string) error { return nil }
func (slowClient) Call(context.Context, string, string, domain.Params) error {
	return nil
}

func TestRegistry_CallTimeoutIsFailure(t *testing.T) {
	reg := registry.New(slowClient{}, registry.WithCallTimeout(20*time.Millisecond))

	start := time.Now()
	err := reg.Enable(context.Background(), "stuck")

	assert.ErrorIs(t, err, domain.ErrExtensionEnable)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, reg.IsEnabled("stuck"))
}

func TestRegistry_CallEnablesFirst(t *testing.T) {
	params := domain.Params{{Key: "vm", Value: "work"}}
	client := new(mockClient)
	client.On("EnableTutorial", "qui").Return(nil).Once()
	client.On("Call", "qui", "highlight", params).Return(nil).Twice()
	reg := registry.New(client)

	require.NoError(t, reg.Call(context.Background(), "qui", "highlight", params))
	require.NoError(t, reg.Call(context.Background(), "qui", "highlight", params))

	client.AssertExpectations(t)
}
