package provider_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cascade.dev/cascade/internal/provider"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreatePRDecodesResponse(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          42,
			"title":       "Add feature",
			"state":       "OPEN",
			"fromRef":     map[string]string{"displayId": "feature-1"},
			"toRef":       map[string]string{"displayId": "main"},
			"createdDate": 1700000000000,
			"updatedDate": 1700000000000,
		})
	})

	bb := provider.NewBitbucket(provider.BitbucketConfig{
		BaseURL: srv.URL, Project: "PRJ", Repo: "repo", Token: "tok",
	})

	pr, err := bb.CreatePR(t.Context(), provider.CreatePrRequest{
		Title: "Add feature", Source: "feature-1", Target: "main",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", pr.ID)
	assert.Equal(t, provider.StatusOpen, pr.Status)
	assert.Equal(t, "feature-1", pr.Source)
}

func TestGetPRSurfacesNonSuccessAsProviderError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"message":"not found"}]}`))
	})

	bb := provider.NewBitbucket(provider.BitbucketConfig{BaseURL: srv.URL, Project: "PRJ", Repo: "repo", Token: "tok"})

	_, err := bb.GetPR(t.Context(), "99")
	require.Error(t, err)
}

func TestBranchExistsReturnsFalseOn404(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	bb := provider.NewBitbucket(provider.BitbucketConfig{BaseURL: srv.URL, Project: "PRJ", Repo: "repo", Token: "tok"})

	exists, err := bb.BranchExists(t.Context(), "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdatePRSendsFetchedVersion(t *testing.T) {
	var putBody map[string]any
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": 42, "version": 7, "title": "Add feature", "state": "OPEN",
				"fromRef": map[string]string{"displayId": "feature-1"},
				"toRef":   map[string]string{"displayId": "main"},
			})
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&putBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 42, "version": 8, "title": "Add feature", "state": "OPEN",
			"fromRef": map[string]string{"displayId": "feature-1-v2"},
			"toRef":   map[string]string{"displayId": "main"},
		})
	})

	bb := provider.NewBitbucket(provider.BitbucketConfig{BaseURL: srv.URL, Project: "PRJ", Repo: "repo", Token: "tok"})

	src := "feature-1-v2"
	_, err := bb.UpdatePR(t.Context(), "42", provider.PrPatch{Source: &src})
	require.NoError(t, err)
	assert.EqualValues(t, 7, putBody["version"])
}

func TestSupportsSourceBranchUpdate(t *testing.T) {
	bb := provider.NewBitbucket(provider.BitbucketConfig{BaseURL: "http://example.invalid"})
	assert.True(t, bb.SupportsSourceBranchUpdate())
}
