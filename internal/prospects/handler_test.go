package prospects

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
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func newProspectHandler(t *testing.T) (*Handler, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	require.NoError(t, repo.Create(context.Background(), &Prospect{
		FullName:     "Ada Lovelace",
		Company:      "Analytical Engines",
		Location:     "London",
		LinkedInURL:  "https://linkedin.com/in/ada-lovelace",
		CanonicalURL: "https://www.linkedin.com/in/ada-lovelace",
		Phones:       []string{"+44 20 7946 0000"},
	}))
	return NewHandler(repo, nil), repo
}

func TestSearchEndpoint(t *testing.T) {
	handler, _ := newProspectHandler(t)

	body, _ := json.Marshal(SearchQuery{Name: "ada"})
	w := httptest.NewRecorder()
	handler.Search(w, httptest.NewRequest(http.MethodPost, "/prospects/search", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	var out []Prospect
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, "Ada Lovelace", out[0].FullName)
}

func TestGetEndpoint(t *testing.T) {
	handler, _ := newProspectHandler(t)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/prospects/1", nil), "prospectID", "1")
	w := httptest.NewRecorder()
	handler.Get(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/prospects/99", nil), "prospectID", "99")
	w = httptest.NewRecorder()
	handler.Get(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/prospects/abc", nil), "prospectID", "abc")
	w = httptest.NewRecorder()
	handler.Get(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEndpointDeduplicates(t *testing.T) {
	handler, repo := newProspectHandler(t)

	// Same profile, different raw spelling: returns the existing row with 200.
	body, _ := json.Marshal(CreateProspectRequest{
		FullName:    "A. Lovelace",
		LinkedInURL: "linkedin.com/in/ADA-LOVELACE/",
	})
	w := httptest.NewRecorder()
	handler.Create(w, httptest.NewRequest(http.MethodPost, "/prospects", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)

	// New profile: 201.
	body, _ = json.Marshal(CreateProspectRequest{
		FullName:    "Grace Hopper",
		LinkedInURL: "https://linkedin.com/in/grace-hopper",
	})
	w = httptest.NewRecorder()
	handler.Create(w, httptest.NewRequest(http.MethodPost, "/prospects", bytes.NewReader(body)))
	assert.Equal(t, http.StatusCreated, w.Code)

	all, err := repo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateEndpointValidation(t *testing.T) {
	handler, _ := newProspectHandler(t)

	body, _ := json.Marshal(CreateProspectRequest{
		FullName: "Too Many",
		Phones:   []string{"1", "2", "3", "4", "5"},
	})
	w := httptest.NewRecorder()
	handler.Create(w, httptest.NewRequest(http.MethodPost, "/prospects", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateEndpointRecanonicalizes(t *testing.T) {
	handler, repo := newProspectHandler(t)

	body, _ := json.Marshal(CreateProspectRequest{
		FullName:    "Ada Lovelace",
		Company:     "Babbage & Co",
		LinkedInURL: "https://linkedin.com/in/Ada-Lovelace-2",
	})
	req := withURLParam(httptest.NewRequest(http.MethodPut, "/prospects/1", bytes.NewReader(body)), "prospectID", "1")
	w := httptest.NewRecorder()
	handler.Update(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	p, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Babbage & Co", p.Company)
	assert.Equal(t, "https://www.linkedin.com/in/ada-lovelace-2", p.CanonicalURL)
}

func TestLookupEndpoint(t *testing.T) {
	handler, _ := newProspectHandler(t)

	body, _ := json.Marshal(map[string]string{"linkedin_url": "https://www.linkedin.com/in/ada-lovelace?utm=x"})
	w := httptest.NewRecorder()
	handler.LookupByLinkedIn(w, httptest.NewRequest(http.MethodPost, "/functions/prospect-lookup", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	var res LookupResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.True(t, res.Found)

	body, _ = json.Marshal(map[string]string{"linkedin_url": ""})
	w = httptest.NewRecorder()
	handler.LookupByLinkedIn(w, httptest.NewRequest(http.MethodPost, "/functions/prospect-lookup", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
