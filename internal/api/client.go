package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Result is the uniform outcome of a single API call. Transport failures
// carry Status 0; remote failures carry the HTTP status and any body the
// remote returned.
type Result struct {
	Success bool
	Status  int
	Data    []byte
	Err     error
}

// Decode unmarshals the result payload into v
func (r Result) Decode(v interface{}) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("empty response payload")
	}
	return json.Unmarshal(r.Data, v)
}

// Client issues HTTP calls to the remote game API and normalizes every
// outcome into a Result
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an API client for the given base URL with a request
// timeout. The timeout bounds the whole call including body read.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SendRequest performs a single HTTP call. The path is joined to the base
// URL. A nil body sends an empty request. Never panics; every failure mode
// is captured in the returned Result.
func (c *Client) SendRequest(ctx context.Context, method, path string, headers map[string]string, body interface{}) Result {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Result{Err: &Error{Category: ErrorConfiguration, Message: "encode request body", Cause: err}}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Result{Err: &Error{Category: ErrorConfiguration, Message: "build request", Cause: err}}
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Err: &Error{Category: ErrorTransport, Message: err.Error(), Cause: err}}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Status: resp.StatusCode, Err: &Error{Category: ErrorTransport, Message: "read response body", Cause: err}}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{
			Status: resp.StatusCode,
			Data:   data,
			Err: &Error{
				Category: classifyStatus(resp.StatusCode),
				Status:   resp.StatusCode,
				Message:  strings.TrimSpace(string(data)),
			},
		}
	}

	return Result{Success: true, Status: resp.StatusCode, Data: data}
}

// Get issues an authorized GET request
func (c *Client) Get(ctx context.Context, path, token string) Result {
	return c.SendRequest(ctx, http.MethodGet, path, authHeaders(token), nil)
}

// Post issues an authorized POST request with an optional JSON body
func (c *Client) Post(ctx context.Context, path, token string, body interface{}) Result {
	return c.SendRequest(ctx, http.MethodPost, path, authHeaders(token), body)
}

func authHeaders(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}
