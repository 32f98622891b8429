package hltb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/giwty/steam-library-manager/db"
)

// Candidate is one search result from the beat time database.
type Candidate struct {
	Title string             `json:"title"`
	Times db.CompletionTimes `json:"times"`
}

type searchResponse struct {
	Results []Candidate `json:"results"`
}

// Searcher is the lookup capability the enrichment engine consumes.
type Searcher interface {
	Search(ctx context.Context, title string) ([]Candidate, error)
}

// Client queries the beat time proxy API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("beat time api base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search looks up a title and returns zero or more candidates. A non 2xx
// response is a hard failure. Transport errors are retried a couple of
// times; batch pacing upstream still bounds the aggregate request rate.
func (c *Client) Search(ctx context.Context, title string) ([]Candidate, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s", c.baseURL, url.QueryEscape(title))

	var result searchResponse
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return retry.Unrecoverable(errors.New("got a non 200 response - " + resp.Status))
			}

			result = searchResponse{}
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Attempts(2),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, err
	}
	return result.Results, nil
}
