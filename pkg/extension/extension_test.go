package extension_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/aretw0/guidepost/pkg/adapters/http"
	"github.com/aretw0/guidepost/pkg/domain"
	"github.com/aretw0/guidepost/pkg/extension"
	"github.com/aretw0/guidepost/pkg/registry"
)

type registrar struct {
	mu  sync.Mutex
	got []string
}

func (r *registrar) Register(kind, subject, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, kind+":"+subject)
}

func TestMode(t *testing.T) {
	var m extension.Mode
	var changes []bool
	m.OnChange(func(enabled bool) { changes = append(changes, enabled) })

	assert.False(t, m.Enabled())
	assert.True(t, m.Set(true))
	assert.False(t, m.Set(true), "enabling twice is a no-op")
	assert.True(t, m.Set(false))

	assert.Equal(t, []bool{true, false}, changes)
}

func TestExtension_RegisterOnlyInTutorialMode(t *testing.T) {
	reg := &registrar{}
	ext := extension.New("nautilus", extension.WithRegistrar(reg))

	ext.Register("nautilus:open", "work", "")
	ext.Mode.Set(true)
	ext.Register("nautilus:open", "vault", "")

	assert.Equal(t, []string{"nautilus:open:vault"}, reg.got)
}

func TestExtension_Call(t *testing.T) {
	var got map[string]any
	ext := extension.New("qui", extension.WithFunction("highlight", func(_ context.Context, p map[string]any) error {
		got = p
		return nil
	}))
	ctx := context.Background()

	err := ext.Call(ctx, "highlight", map[string]any{"vm": "work"})
	assert.ErrorIs(t, err, extension.ErrModeDisabled)

	ext.Mode.Set(true)
	require.NoError(t, ext.Call(ctx, "highlight", map[string]any{"vm": "work"}))
	assert.Equal(t, map[string]any{"vm": "work"}, got)

	assert.ErrorIs(t, ext.Call(ctx, "explode", nil), extension.ErrUnknownFunction)
	assert.Equal(t, []string{"highlight"}, ext.Functions())
}

func TestHandler_StatusCodes(t *testing.T) {
	ext := extension.New("qui", extension.WithFunction("fail", func(context.Context, map[string]any) error {
		return errors.New("boom")
	}))
	ts := httptest.NewServer(ext.Handler())
	defer ts.Close()

	post := func(path string) int {
		resp, err := http.Post(ts.URL+path, "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusConflict, post("/call/fail"))
	assert.Equal(t, http.StatusNoContent, post("/enable_tutorial"))
	assert.Equal(t, http.StatusInternalServerError, post("/call/fail"))
	assert.Equal(t, http.StatusNotFound, post("/call/missing"))
	assert.Equal(t, http.StatusNoContent, post("/disable_tutorial"))
	assert.False(t, ext.Mode.Enabled())
}

func TestRegistryOverHTTP(t *testing.T) {
	var calls int
	ext := extension.New("qui", extension.WithFunction("highlight", func(_ context.Context, p map[string]any) error {
		calls++
		assert.Equal(t, "work", p["vm"])
		return nil
	}))
	ts := httptest.NewServer(ext.Handler())
	defer ts.Close()

	reg := registry.New(httpadapter.NewExtensionClient(map[string]string{"qui": ts.URL}))
	ctx := context.Background()

	require.NoError(t, reg.Call(ctx, "qui", "highlight", domain.Params{{Key: "vm", Value: "work"}}))
	require.NoError(t, reg.Call(ctx, "qui", "highlight", domain.Params{{Key: "vm", Value: "work"}}))
	assert.True(t, ext.Mode.Enabled())
	assert.Equal(t, 2, calls)

	assert.Empty(t, reg.DisableAll(ctx))
	assert.False(t, ext.Mode.Enabled())
}
