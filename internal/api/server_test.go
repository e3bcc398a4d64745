package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagsmith/bundle-registry-server/internal/bundles"
	"github.com/dagsmith/bundle-registry-server/internal/config"
	"github.com/dagsmith/bundle-registry-server/internal/state"
)

type stubStateService struct{}

func (*stubStateService) Reconcile(_ context.Context, _ []string) error { return nil }

func (*stubStateService) ListRecords(_ context.Context) ([]state.BundleRecord, error) {
	return nil, nil
}

func (*stubStateService) GetRecord(_ context.Context, _ string) (*state.BundleRecord, error) {
	return nil, state.ErrBundleNotFound
}

func newTestServer(t *testing.T, opts ...ServerOption) http.Handler {
	t.Helper()

	manager, err := bundles.NewManager(nil, &config.Config{DagsFolder: t.TempDir()})
	require.NoError(t, err)

	return NewServer(manager, &stubStateService{}, opts...)
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPIMountedUnderV0(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/bundles", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWithMiddlewares(t *testing.T) {
	t.Parallel()

	var called bool
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}

	server := newTestServer(t, WithMiddlewares(mw))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, called)
}
