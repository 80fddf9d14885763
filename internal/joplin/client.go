// Package joplin is a NoteStore backed by the Joplin Data API, the REST
// service the Joplin desktop app exposes when its web clipper is enabled.
package joplin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/exporters"
)

const (
	DefaultBaseURL = "http://localhost:41184"

	defaultTimeout     = 30 * time.Second
	maxRetries         = 3
	initialRetryDelay  = 500 * time.Millisecond
	maxRetryDelay      = 5 * time.Second
	retryBackoffFactor = 2
	pageSize           = 100
)

// Client talks to one Joplin instance
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retryDelay time.Duration
}

var _ exporters.NoteStore = (*Client)(nil)

// NewClient creates a client for the Data API at baseURL (DefaultBaseURL when empty)
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		retryDelay: initialRetryDelay,
	}
}

// item is the subset of note, folder and tag fields the client reads
type item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

// page is a paginated listing response
type page struct {
	Items   []item `json:"items"`
	HasMore bool   `json:"has_more"`
}

// Ping checks that the service is up and the token is accepted
func (c *Client) Ping(ctx context.Context) error {
	var folders page
	query := url.Values{"fields": {"id"}, "limit": {"1"}}
	return c.get(ctx, "/folders", query, &folders)
}

// FindNoteByTitle searches notes and returns the first exact title match
func (c *Client) FindNoteByTitle(ctx context.Context, title string) (*entities.Note, error) {
	query := url.Values{
		"query":  {title},
		"type":   {"note"},
		"fields": {"id,title,body,parent_id"},
	}
	items, err := c.list(ctx, "/search", query)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.Title == title {
			return it.note(), nil
		}
	}
	return nil, nil
}

func (c *Client) CreateNote(ctx context.Context, title, body, parentID string) (*entities.Note, error) {
	var created item
	err := c.send(ctx, http.MethodPost, "/notes", item{Title: title, Body: body, ParentID: parentID}, &created)
	if err != nil {
		return nil, err
	}
	return created.note(), nil
}

func (c *Client) UpdateNote(ctx context.Context, id, title, body, parentID string) error {
	return c.send(ctx, http.MethodPut, "/notes/"+url.PathEscape(id), item{Title: title, Body: body, ParentID: parentID}, nil)
}

// CreateOrGetTag looks the tag up first; Joplin refuses to create a tag twice.
// Joplin stores tag titles in lower case, so the lookup ignores case.
func (c *Client) CreateOrGetTag(ctx context.Context, name string) (*entities.Tag, error) {
	query := url.Values{
		"query":  {name},
		"type":   {"tag"},
		"fields": {"id,title"},
	}
	items, err := c.list(ctx, "/search", query)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if strings.EqualFold(it.Title, name) {
			return &entities.Tag{ID: it.ID, Title: it.Title}, nil
		}
	}

	var created item
	if err := c.send(ctx, http.MethodPost, "/tags", item{Title: name}, &created); err != nil {
		return nil, err
	}
	return &entities.Tag{ID: created.ID, Title: created.Title}, nil
}

func (c *Client) AttachTag(ctx context.Context, tagID, noteID string) error {
	return c.send(ctx, http.MethodPost, "/tags/"+url.PathEscape(tagID)+"/notes", item{ID: noteID}, nil)
}

// ListCollections returns every notebook
func (c *Client) ListCollections(ctx context.Context) ([]entities.Collection, error) {
	items, err := c.list(ctx, "/folders", url.Values{"fields": {"id,title,parent_id"}})
	if err != nil {
		return nil, err
	}
	collections := make([]entities.Collection, 0, len(items))
	for _, it := range items {
		collections = append(collections, entities.Collection{ID: it.ID, Title: it.Title, ParentID: it.ParentID})
	}
	return collections, nil
}

func (c *Client) CreateCollection(ctx context.Context, title string) (*entities.Collection, error) {
	var created item
	if err := c.send(ctx, http.MethodPost, "/folders", item{Title: title}, &created); err != nil {
		return nil, err
	}
	return &entities.Collection{ID: created.ID, Title: created.Title, ParentID: created.ParentID}, nil
}

func (it item) note() *entities.Note {
	return &entities.Note{ID: it.ID, Title: it.Title, Body: it.Body, ParentID: it.ParentID}
}

// list follows has_more through every page of a listing
func (c *Client) list(ctx context.Context, path string, query url.Values) ([]item, error) {
	var all []item
	for pageNum := 1; ; pageNum++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(pageNum))
		q.Set("limit", strconv.Itoa(pageSize))

		var p page
		if err := c.get(ctx, path, q, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Items...)
		if !p.HasMore {
			return all, nil
		}
	}
}

// get retries on server errors; writes are sent once
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.calculateRetryDelay(attempt)):
			}
		}

		lastErr = c.do(ctx, http.MethodGet, path, query, nil, out)
		if lastErr == nil {
			return nil
		}
		var serverErr *ServerError
		if !errors.As(lastErr, &serverErr) {
			return lastErr
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) send(ctx context.Context, method, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, method, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.token)
	endpoint := c.baseURL + path + "?" + query.Encode()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode >= 500:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &ServerError{StatusCode: resp.StatusCode, Body: string(msg)}
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) calculateRetryDelay(attempt int) time.Duration {
	delay := c.retryDelay
	for i := 1; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
