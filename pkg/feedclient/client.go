// Package feedclient talks to the announcement board API and keeps a local
// view that applies interactions optimistically.
package feedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the board API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("board api: %d %s: %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error"`
}

// Client issues board requests with a bearer session token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client rooted at baseURL, for example
// "https://portal.example.edu/api/v1". A nil httpClient gets a 10s timeout.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: httpClient}
}

// List fetches a page of announcements, newest first.
func (c *Client) List(ctx context.Context, header string, limit, skip int) ([]Announcement, error) {
	q := url.Values{}
	if header != "" {
		q.Set("header", header)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if skip > 0 {
		q.Set("skip", fmt.Sprint(skip))
	}
	path := "/announcements"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []Announcement
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one announcement.
func (c *Client) Get(ctx context.Context, id string) (*Announcement, error) {
	var out Announcement
	if err := c.do(ctx, http.MethodGet, "/announcements/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Like sets or clears the caller's like.
func (c *Client) Like(ctx context.Context, id string, req likeRequest) (*Announcement, error) {
	return c.interact(ctx, id, "/like", req)
}

// Comment appends a comment.
func (c *Client) Comment(ctx context.Context, id string, req commentRequest) (*Announcement, error) {
	return c.interact(ctx, id, "/comments", req)
}

// Reply appends a reply under an existing comment.
func (c *Client) Reply(ctx context.Context, id string, req replyRequest) (*Announcement, error) {
	return c.interact(ctx, id, "/replies", req)
}

func (c *Client) interact(ctx context.Context, id, suffix string, body interface{}) (*Announcement, error) {
	var out Announcement
	if err := c.do(ctx, http.MethodPost, "/announcements/"+url.PathEscape(id)+suffix, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&env); err != nil && err != io.EOF {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if env.Error != nil {
			return env.Error
		}
		return &APIError{Status: resp.StatusCode, Code: "HTTP_ERROR", Message: http.StatusText(resp.StatusCode)}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
