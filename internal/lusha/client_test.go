package lusha

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/rtne"
)

func TestPersonForwardsKeyAndParams(t *testing.T) {
	var gotKey string
	var gotParams Params
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api_key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotParams))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"emailAddresses":[]}`))
	}))
	defer upstream.Close()

	client := NewClient(nil, WithBaseURL(upstream.URL))
	resp, err := client.Person(context.Background(), Request{
		APIKey: "key-123",
		Params: Params{LinkedInURL: "https://linkedin.com/in/ada-lovelace"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "key-123", gotKey)
	assert.Equal(t, "https://linkedin.com/in/ada-lovelace", gotParams.LinkedInURL)
}

func TestPersonRelaysUpstreamErrorsVerbatim(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer upstream.Close()

	client := NewClient(nil, WithBaseURL(upstream.URL))
	resp, err := client.Person(context.Background(), Request{Params: Params{FirstName: "Ada"}})
	require.NoError(t, err, "a non-200 status is not a transport error")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.JSONEq(t, `{"error":"rate limited"}`, string(resp.Body))
}

func TestPersonFallsBackToServerKey(t *testing.T) {
	var gotKey string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api_key")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	client := NewClient(nil, WithBaseURL(upstream.URL), WithAPIKey("server-key"))
	_, err := client.Person(context.Background(), Request{Params: Params{FirstName: "Ada"}})
	require.NoError(t, err)
	assert.Equal(t, "server-key", gotKey)
}

func TestEnrichExtractsSuggestions(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"emailAddresses":[{"address":"ada@engines.example"},{"address":""}],
			"phoneNumbers":[{"internationalNumber":"+44 20 7946 0001"}]
		}`))
	}))
	defer upstream.Close()

	client := NewClient(nil, WithBaseURL(upstream.URL), WithAPIKey("server-key"))
	result, err := client.Enrich(context.Background(), &rtne.MasterProspect{
		ID:          7,
		LinkedInURL: "https://linkedin.com/in/ada-lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ada@engines.example"}, result.SuggestedEmails)
	assert.Equal(t, []string{"+44 20 7946 0001"}, result.SuggestedPhones)
}

func TestEnrichFailsOnUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	client := NewClient(nil, WithBaseURL(upstream.URL))
	_, err := client.Enrich(context.Background(), &rtne.MasterProspect{ID: 7})
	assert.Error(t, err)
}

func TestProxyHandler(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"fullName":"Ada Lovelace"}`))
	}))
	defer upstream.Close()

	handler := NewHandler(NewClient(nil, WithBaseURL(upstream.URL)), nil)

	body, _ := json.Marshal(Request{APIKey: "k", Params: Params{LinkedInURL: "https://linkedin.com/in/ada"}})
	req := httptest.NewRequest(http.MethodPost, "/functions/lusha-enrich-proxy", bytes.NewReader(body))
	req = req.WithContext(auth.NewContext(req.Context(), auth.Session{UserID: "agent-1"}))
	w := httptest.NewRecorder()
	handler.Proxy(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"fullName":"Ada Lovelace"}`, w.Body.String())
}

func TestProxyHandlerRejectsAnonymous(t *testing.T) {
	handler := NewHandler(NewClient(nil), nil)

	body, _ := json.Marshal(Request{Params: Params{FirstName: "Ada"}})
	w := httptest.NewRecorder()
	handler.Proxy(w, httptest.NewRequest(http.MethodPost, "/functions/lusha-enrich-proxy", bytes.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProxyHandlerRequiresParams(t *testing.T) {
	handler := NewHandler(NewClient(nil), nil)

	body, _ := json.Marshal(Request{APIKey: "k"})
	req := httptest.NewRequest(http.MethodPost, "/functions/lusha-enrich-proxy", bytes.NewReader(body))
	req = req.WithContext(auth.NewContext(req.Context(), auth.Session{UserID: "agent-1"}))
	w := httptest.NewRecorder()
	handler.Proxy(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
