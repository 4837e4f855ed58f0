package episodes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"podcast-home/internal/models"
)

// ErrNotFound is returned when the API has no episode with the requested id.
var ErrNotFound = errors.New("episode not found")

// StatusError reports a non-successful response from the episodes API.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("episodes api %s returned %d", e.URL, e.StatusCode)
}

// HTTPDoer describes the HTTP client used to reach the episodes API.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Query selects a page of episodes using json-server conventions.
type Query struct {
	Limit int
	Sort  string
	Order string
}

// LatestQuery returns the query for the newest limit episodes.
func LatestQuery(limit int) Query {
	return Query{Limit: limit, Sort: "published_at", Order: "desc"}
}

func (q Query) values() url.Values {
	values := url.Values{}
	if q.Limit > 0 {
		values.Set("_limit", strconv.Itoa(q.Limit))
	}
	if q.Sort != "" {
		values.Set("_sort", q.Sort)
	}
	if q.Order != "" {
		values.Set("_order", q.Order)
	}
	return values
}

// Client talks to the episodes REST API.
type Client struct {
	baseURL string
	client  HTTPDoer
}

// NewClient returns a client rooted at baseURL. A nil doer uses http.DefaultClient.
func NewClient(baseURL string, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  doer,
	}
}

// List fetches the episodes selected by q.
func (c *Client) List(ctx context.Context, q Query) ([]models.SourceEpisode, error) {
	endpoint := c.baseURL + "/episodes"
	if encoded := q.values().Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var result []models.SourceEpisode
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Get fetches a single episode by id.
func (c *Client) Get(ctx context.Context, id string) (models.SourceEpisode, error) {
	endpoint := c.baseURL + "/episodes/" + url.PathEscape(id)

	var result models.SourceEpisode
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return models.SourceEpisode{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return models.SourceEpisode{}, err
	}
	return result, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build episodes request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}
