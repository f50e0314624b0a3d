// Package content is a client for the content catalog REST API.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pavelanni/examcreator/internal/model"
)

// ErrUnavailable marks transport failures reaching the content API.
var ErrUnavailable = errors.New("content API unavailable")

// APIError is a non-2xx response from the content API.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("content API %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client talks to the content API of a learning platform server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a content API client. A zero timeout disables the per-request
// deadline.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w: %w", u, ErrUnavailable, err)
	}
	defer resp.Body.Close()
	slog.Debug("content API call", "url", u, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{StatusCode: resp.StatusCode, URL: u, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

// FetchNode returns a single content node by id.
func (c *Client) FetchNode(ctx context.Context, id string) (model.ContentNode, error) {
	var node model.ContentNode
	err := c.get(ctx, "/api/content/contentnode/"+url.PathEscape(id)+"/", nil, &node)
	return node, err
}

// FetchChildren returns the direct children of a node restricted to kinds.
func (c *Client) FetchChildren(ctx context.Context, parentID string, kinds ...model.ContentKind) ([]model.ContentNode, error) {
	q := url.Values{"parent": {parentID}}
	if len(kinds) > 0 {
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		q.Set("kind_in", strings.Join(names, ","))
	}
	var nodes []model.ContentNode
	err := c.get(ctx, "/api/content/contentnode/", q, &nodes)
	return nodes, err
}

// FetchAncestors returns the ancestor chain of a node, root first.
func (c *Client) FetchAncestors(ctx context.Context, id string) ([]model.ContentNode, error) {
	var nodes []model.ContentNode
	err := c.get(ctx, "/api/content/contentnode_slim/"+url.PathEscape(id)+"/ancestors/", nil, &nodes)
	return nodes, err
}

// Search runs a catalog search. The channel filter is only sent when set.
func (c *Client) Search(ctx context.Context, sq model.SearchQuery) (model.SearchResults, error) {
	q := url.Values{"search": {sq.Term}}
	if sq.Kind != "" {
		q.Set("kind", string(sq.Kind))
	}
	if sq.Channel != "" {
		q.Set("channel_id", sq.Channel)
	}
	var res model.SearchResults
	err := c.get(ctx, "/api/content/contentnode_search/", q, &res)
	return res, err
}

// FetchDescendantAssessmentCount returns the number of assessable exercise
// descendants of a topic.
func (c *Client) FetchDescendantAssessmentCount(ctx context.Context, topicID string) (int, error) {
	var counts []struct {
		ID             string `json:"id"`
		NumAssessments int    `json:"num_assessments"`
	}
	q := url.Values{"ids": {topicID}}
	if err := c.get(ctx, "/api/content/contentnode/descendants_assessments/", q, &counts); err != nil {
		return 0, err
	}
	total := 0
	for _, cnt := range counts {
		if cnt.ID == topicID {
			total += cnt.NumAssessments
		}
	}
	return total, nil
}

// FetchDescendants returns the descendants of a topic of the given kind,
// projected onto fields.
func (c *Client) FetchDescendants(ctx context.Context, topicID string, kind model.ContentKind, fields []string) ([]model.ExerciseStub, error) {
	q := url.Values{"ids": {topicID}}
	if kind != "" {
		q.Set("descendant_kind", string(kind))
	}
	if len(fields) > 0 {
		q.Set("fields", strings.Join(fields, ","))
	}
	var stubs []model.ExerciseStub
	err := c.get(ctx, "/api/content/contentnode/descendants/", q, &stubs)
	return stubs, err
}

// FetchAvailableChannels lists the channels available on the server.
func (c *Client) FetchAvailableChannels(ctx context.Context, hasExercise bool) ([]model.Channel, error) {
	q := url.Values{"available": {"true"}}
	if hasExercise {
		q.Set("has_exercise", "true")
	}
	var channels []model.Channel
	err := c.get(ctx, "/api/content/channel/", q, &channels)
	return channels, err
}

// Ping checks that the content API answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.FetchAvailableChannels(ctx, false)
	return err
}
