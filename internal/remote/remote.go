// Package remote implements the HTTP client for the storage API. Calls are
// pure request/response: no caching and no internal retry — retry policy
// belongs to the callers that need it.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/Arcelliteserver/arcellite-sub000/internal/logging"
	"github.com/Arcelliteserver/arcellite-sub000/internal/protocol"
)

// Client talks to the storage API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.RWMutex
	online    bool
	lastPing  time.Time
	authToken string
}

// Config holds client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	AuthToken string
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		online:    true,
		authToken: cfg.AuthToken,
	}
}

// SetAuthToken sets the bearer token for requests.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

// applyAuth adds the auth header to a request if a token is set.
func (c *Client) applyAuth(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

// IsOnline returns true if the server was reachable on the last call.
func (c *Client) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

func (c *Client) setOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.online != online {
		if online {
			logging.Info("server is back online")
		} else {
			logging.Warn("server is offline")
		}
	}
	c.online = online
	c.lastPing = time.Now()
}

// APIError is a structured error returned by the server.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// AsAPIError checks if an error is an APIError and returns it.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// errorFrom builds an APIError from a non-success response body.
func errorFrom(resp *http.Response) error {
	ae := &APIError{Status: resp.StatusCode}
	var body protocol.ErrorResponse
	if json.NewDecoder(resp.Body).Decode(&body) == nil {
		ae.Message = body.Error
		ae.Details = body.Details
	}
	return ae
}

// List fetches the folder and file entries at (namespace, path).
// Any non-success response is a hard failure for this call.
func (c *Client) List(ctx context.Context, namespace, path string) (*protocol.ListResponse, error) {
	u := c.baseURL + "/api/v1/list?" + url.Values{
		"namespace": {namespace},
		"path":      {path},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	c.applyAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.setOnline(false)
		return nil, errorFrom(resp)
	}

	c.setOnline(true)

	var result protocol.ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// postJSON issues a JSON POST and decodes an error body on failure.
func (c *Client) postJSON(ctx context.Context, endpoint string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.setOnline(false)
		return errorFrom(resp)
	}

	c.setOnline(true)
	return nil
}

// Mkdir creates a folder at path; path includes the new folder's name.
func (c *Client) Mkdir(ctx context.Context, namespace, path string) error {
	return c.postJSON(ctx, "/api/v1/mkdir", protocol.MkdirRequest{
		Namespace: namespace,
		Path:      path,
	})
}

// Move moves or renames an entry. Fails with a server message on name
// collision or missing source.
func (c *Client) Move(ctx context.Context, namespace, sourcePath, targetPath string) error {
	return c.postJSON(ctx, "/api/v1/move", protocol.MoveRequest{
		Namespace:  namespace,
		SourcePath: sourcePath,
		TargetPath: targetPath,
	})
}

// MoveToTrash soft-deletes an entry.
func (c *Client) MoveToTrash(ctx context.Context, namespace, path string) error {
	return c.postJSON(ctx, "/api/v1/trash", protocol.TrashRequest{
		Namespace: namespace,
		Path:      path,
	})
}

// AutoRename asks the server to classify and rename an uploaded image.
func (c *Client) AutoRename(ctx context.Context, namespace, path string) (*protocol.RenameSuggestion, error) {
	payload, err := json.Marshal(protocol.ClassifyRenameRequest{Namespace: namespace, Path: path})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/classify-rename", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.setOnline(false)
		return nil, errorFrom(resp)
	}

	c.setOnline(true)

	var result protocol.RenameSuggestion
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TrackRecent registers an access with the recency endpoint.
func (c *Client) TrackRecent(ctx context.Context, req protocol.TrackRecentRequest) error {
	return c.postJSON(ctx, "/api/v1/recent", req)
}

// Recent fetches the most recently accessed entries.
func (c *Client) Recent(ctx context.Context, limit int) (*protocol.RecentResponse, error) {
	u := c.baseURL + "/api/v1/recent?limit=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	c.applyAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.setOnline(false)
		return nil, errorFrom(resp)
	}

	c.setOnline(true)

	var result protocol.RecentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FileURL returns the direct serve/download URL for an entry.
func (c *Client) FileURL(namespace, path string) string {
	return c.baseURL + "/api/v1/serve?" + url.Values{
		"namespace": {namespace},
		"path":      {path},
	}.Encode()
}
