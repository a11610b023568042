package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisdata/trellis/internal/api"
	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/mocks"
)

type catalogFixture struct {
	handler   *api.CatalogHandler
	catalog   *mocks.MockCatalogStore
	instances *mocks.MockInstanceStore
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		catalog:   &mocks.MockCatalogStore{},
		instances: &mocks.MockInstanceStore{},
	}
	f.handler = api.NewCatalogHandler(f.catalog, f.instances, testLogger())
	return f
}

// withURLParam injects a chi route parameter into the request context, as
// the router would during dispatch.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestListDefinitions(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture()
	f.catalog.Definitions = []domain.TaskDefinition{
		{ID: "skills-outlook", InputTemplate: "t1", OutputFields: []string{"summary"}},
		{ID: "wage-analysis", InputTemplate: "t2", OutputFields: []string{"median"}},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/definitions", nil)
	rec := httptest.NewRecorder()
	f.handler.ListDefinitions(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var defs []domain.TaskDefinition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &defs))
	require.Len(t, defs, 2)
	assert.Equal(t, "skills-outlook", defs[0].ID)
}

func TestPublishDefinition(t *testing.T) {
	t.Parallel()

	t.Run("publishes with ID from URL", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture()

		body := bytes.NewBufferString(
			`{"input_template": "Analyze {{occupation_name}}.", "output_fields": ["summary"]}`)
		req := withURLParam(
			httptest.NewRequest(http.MethodPut, "/api/definitions/skills-outlook", body),
			"id", "skills-outlook")
		rec := httptest.NewRecorder()
		f.handler.PublishDefinition(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, f.catalog.Upserted, 1)
		assert.Equal(t, "skills-outlook", f.catalog.Upserted[0].ID)
		assert.Equal(t, []string{"summary"}, f.catalog.Upserted[0].OutputFields)
	})

	t.Run("rejects missing template", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture()

		body := bytes.NewBufferString(`{"output_fields": ["summary"]}`)
		req := withURLParam(
			httptest.NewRequest(http.MethodPut, "/api/definitions/x", body),
			"id", "x")
		rec := httptest.NewRecorder()
		f.handler.PublishDefinition(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, f.catalog.Upserted)
	})

	t.Run("rejects empty output fields", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture()

		body := bytes.NewBufferString(`{"input_template": "t", "output_fields": []}`)
		req := withURLParam(
			httptest.NewRequest(http.MethodPut, "/api/definitions/x", body),
			"id", "x")
		rec := httptest.NewRecorder()
		f.handler.PublishDefinition(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSeedInstances(t *testing.T) {
	t.Parallel()

	t.Run("seeds a published definition", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture()
		f.catalog.Definition = &domain.TaskDefinition{ID: "skills-outlook"}
		f.instances.SeededCount = 1200

		body := bytes.NewBufferString(`{"task_id": "skills-outlook", "priority": 5}`)
		req := httptest.NewRequest(http.MethodPost, "/api/seed", body)
		rec := httptest.NewRecorder()
		f.handler.SeedInstances(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.SeedResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(1200), resp.Created)
	})

	t.Run("rejects seeding an unknown definition", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture()
		// catalog.Definition left nil: GetDefinition returns not found.

		body := bytes.NewBufferString(`{"task_id": "nonexistent"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/seed", body)
		rec := httptest.NewRecorder()
		f.handler.SeedInstances(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("re-seeding reports only newly created rows", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture()
		f.catalog.Definition = &domain.TaskDefinition{ID: "skills-outlook"}
		f.instances.SeededCount = 0 // everything already seeded

		body := bytes.NewBufferString(`{"task_id": "skills-outlook"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/seed", body)
		rec := httptest.NewRecorder()
		f.handler.SeedInstances(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.SeedResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(0), resp.Created)
	})
}
