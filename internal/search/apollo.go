package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/leadscout/leadscout/internal/cache"
	"github.com/leadscout/leadscout/internal/model"
	"github.com/leadscout/leadscout/internal/util"
)

const peopleSearchPath = "/api/v1/mixed_people/search"

// ApolloClient implements the Provider interface for the Apollo.io
// people search API.
type ApolloClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
}

// Apollo API structures
type apolloSearchRequest struct {
	PersonTitles      []string `json:"person_titles,omitempty"`
	QKeywords         string   `json:"q_keywords,omitempty"`
	PersonSeniorities []string `json:"person_seniorities,omitempty"`
	EmployeeRanges    []string `json:"organization_num_employees_ranges,omitempty"`
	Page              int      `json:"page"`
	PerPage           int      `json:"per_page"`
}

type apolloPerson struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Title        string `json:"title"`
	Email        string `json:"email"`
	LinkedinURL  string `json:"linkedin_url"`
	Organization struct {
		Name     string `json:"name"`
		Industry string `json:"industry"`
	} `json:"organization"`
}

type apolloSearchResponse struct {
	People     []apolloPerson `json:"people"`
	Pagination struct {
		Page         int `json:"page"`
		PerPage      int `json:"per_page"`
		TotalEntries int `json:"total_entries"`
		TotalPages   int `json:"total_pages"`
	} `json:"pagination"`
}

// NewApolloClient creates a new Apollo client. The response cache is
// optional; pass nil to always hit the API.
func NewApolloClient(cfg model.ProviderConfig, respCache cache.Cache, cacheTTL time.Duration) (*ApolloClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Apollo API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.apollo.io"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	return &ApolloClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
		},
		limiter:  rate.NewLimiter(rate.Limit(perMinute/60.0), burst),
		cache:    respCache,
		cacheTTL: cacheTTL,
	}, nil
}

// Name returns the provider name.
func (c *ApolloClient) Name() string {
	return "apollo"
}

// SearchContacts executes one people search. Identical payloads within
// the cache TTL are served from memory without touching the API.
func (c *ApolloClient) SearchContacts(ctx context.Context, spec model.QuerySpec, maxResults int) ([]model.ContactRecord, error) {
	if maxResults <= 0 || maxResults > 100 {
		maxResults = 100 // API max is 100 per page
	}

	apiReq := apolloSearchRequest{
		PersonTitles:      spec.Titles,
		QKeywords:         strings.Join(spec.Keywords, " "),
		PersonSeniorities: spec.Seniorities,
		EmployeeRanges:    spec.EmployeeRanges,
		Page:              1,
		PerPage:           maxResults,
	}

	payload, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	key := cache.Key(payload)
	if c.cache != nil {
		if raw, found := c.cache.Get(key); found {
			return c.parseResponse(raw)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	raw, err := c.makeRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	contacts, err := c.parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		_ = c.cache.Set(key, raw, c.cacheTTL)
	}

	return contacts, nil
}

// makeRequest posts the payload to the people search endpoint and maps
// HTTP status codes onto the provider error taxonomy.
func (c *ApolloClient) makeRequest(ctx context.Context, payload []byte) ([]byte, error) {
	url := c.baseURL + peopleSearchPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrProviderUnavailable, err)
	}

	switch {
	case httpResp.StatusCode == http.StatusOK:
		return respBody, nil
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP 429", ErrProviderQuotaExceeded)
	case httpResp.StatusCode == http.StatusBadRequest || httpResp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrProviderInvalidQuery, httpResp.StatusCode, truncateBody(respBody))
	default:
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrProviderUnavailable, httpResp.StatusCode, truncateBody(respBody))
	}
}

func (c *ApolloClient) parseResponse(raw []byte) ([]model.ContactRecord, error) {
	var resp apolloSearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v", ErrProviderUnavailable, err)
	}

	contacts := make([]model.ContactRecord, 0, len(resp.People))
	for _, p := range resp.People {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = strings.TrimSpace(p.FirstName + " " + p.LastName)
		}
		if name == "" {
			continue // Name is the one required field
		}
		contacts = append(contacts, model.ContactRecord{
			Name:       name,
			Title:      p.Title,
			Email:      p.Email,
			ProfileURL: p.LinkedinURL,
			Company:    p.Organization.Name,
			Industry:   p.Organization.Industry,
			ProviderID: p.ID,
		})
	}

	return contacts, nil
}

func truncateBody(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
