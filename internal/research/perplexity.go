// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research gathers company intelligence from the Perplexity search
// API, one query per research category, and assembles the results into a
// SourceRecord ready for chunking.
// Implements: docs/ARCHITECTURE § Data Gathering.
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/memo-engine/internal/httputil"
	"github.com/pdiddy/memo-engine/pkg/types"
)

const (
	defaultBaseURL = "https://api.perplexity.ai"
	defaultTimeout = 90 * time.Second
)

// Client calls the Perplexity search API.
type Client struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
	userAgent  string
}

type searchRequest struct {
	Query            string `json:"query"`
	MaxResults       int    `json:"max_results,omitempty"`
	MaxTokensPerPage int    `json:"max_tokens_per_page,omitempty"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
		Snippet string `json:"snippet"`
	} `json:"results"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient creates a Perplexity search client from stage configuration.
func NewClient(cfg types.ResearchConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("perplexity: API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		userAgent:  cfg.UserAgent,
	}, nil
}

// Search runs one search query and folds the hits into a single content
// block with the hit URLs as citations. Each hit contributes its title,
// URL, and page content (or snippet when content is absent), separated by
// "---" markers.
func (c *Client) Search(ctx context.Context, query string, maxResults, maxTokensPerPage int) (types.ResearchResult, error) {
	payload, err := json.Marshal(searchRequest{
		Query:            query,
		MaxResults:       maxResults,
		MaxTokensPerPage: maxTokensPerPage,
	})
	if err != nil {
		return types.ResearchResult{}, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return types.ResearchResult{}, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.maxRetries)
	if err != nil {
		return types.ResearchResult{}, fmt.Errorf("calling search API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.ResearchResult{}, fmt.Errorf("reading search response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return types.ResearchResult{}, fmt.Errorf("decoding search response: %w", err)
	}
	if parsed.Error != nil {
		return types.ResearchResult{}, fmt.Errorf("search API: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return types.ResearchResult{}, fmt.Errorf("search API returned status %d: %s", resp.StatusCode, string(body))
	}

	var (
		parts     []string
		citations []string
	)
	for _, hit := range parsed.Results {
		parts = append(parts, fmt.Sprintf("**%s**", hit.Title))
		parts = append(parts, fmt.Sprintf("Source: %s", hit.URL))
		if hit.Content != "" {
			parts = append(parts, hit.Content)
		} else if hit.Snippet != "" {
			parts = append(parts, hit.Snippet)
		}
		parts = append(parts, "---")
		if hit.URL != "" {
			citations = append(citations, hit.URL)
		}
	}

	return types.ResearchResult{
		Content:          strings.Join(parts, "\n"),
		Citations:        citations,
		SearchSuccessful: true,
	}, nil
}
