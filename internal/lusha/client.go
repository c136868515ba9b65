// Package lusha provides a client for the Lusha v2 person enrichment API and
// the edge proxy that forwards browser requests to it.
package lusha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/rtne"
	"github.com/prashantsingh432/prospect-pulse-searcher/pkg/logging"
)

const (
	defaultBaseURL = "https://api.lusha.com"
	personPath     = "/v2/person"
	defaultTimeout = 15 * time.Second
)

// Params identifies the person to enrich. Either LinkedInURL or the
// name/company triple must be set.
type Params struct {
	LinkedInURL string `json:"linkedinUrl,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
}

// Request is the body accepted by the proxy and forwarded upstream.
type Request struct {
	APIKey string `json:"apiKey"`
	Params Params `json:"params"`
}

// Response carries the upstream reply verbatim.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client calls the Lusha person API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the upstream endpoint, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithAPIKey sets a server-held key used when the request carries none.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a Lusha API client.
func NewClient(logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Person calls the v2 person endpoint and returns the upstream status and
// body untouched. Only transport failures produce an error.
func (c *Client) Person(ctx context.Context, req Request) (*Response, error) {
	key := req.APIKey
	if key == "" {
		key = c.apiKey
	}

	payload, err := json.Marshal(req.Params)
	if err != nil {
		return nil, fmt.Errorf("lusha: encode params: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+personPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("lusha: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api_key", key)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("lusha: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("lusha: read response: %w", err)
	}

	c.logger.Debug("lusha person call", "status", resp.StatusCode, "bytes", len(body))
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// personPayload is the subset of the upstream response the enricher needs.
type personPayload struct {
	Emails []struct {
		Address string `json:"address"`
	} `json:"emailAddresses"`
	Phones []struct {
		Number string `json:"internationalNumber"`
	} `json:"phoneNumbers"`
}

// Enrich satisfies the enrichment worker: it queries the person API for the
// master record's LinkedIn URL and extracts suggested contact details. A
// non-200 upstream status is an error; the job stays in processing.
func (c *Client) Enrich(ctx context.Context, master *rtne.MasterProspect) (*rtne.EnrichmentResult, error) {
	resp, err := c.Person(ctx, Request{Params: Params{LinkedInURL: master.LinkedInURL}})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lusha: upstream returned %d", resp.StatusCode)
	}

	var payload personPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("lusha: decode person payload: %w", err)
	}

	result := &rtne.EnrichmentResult{SuggestedEmails: []string{}, SuggestedPhones: []string{}}
	for _, e := range payload.Emails {
		if e.Address != "" {
			result.SuggestedEmails = append(result.SuggestedEmails, e.Address)
		}
	}
	for _, p := range payload.Phones {
		if p.Number != "" {
			result.SuggestedPhones = append(result.SuggestedPhones, p.Number)
		}
	}
	return result, nil
}
