package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mobile-banking-core/internal/pkg/helper"
	"net/http"
	"strings"
	"unicode/utf8"
)

const maxErrorMessage = 256

// ErrNotFound is returned when the backend answers 404.
var ErrNotFound = errors.New("backend: not found")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type Config struct {
	BaseURL        string
	Token          string
	ProxyURL       string
	RequestTimeout int
}

// Client talks to the banking REST backend. It is safe for concurrent use.
type Client struct {
	http    *helper.HTTPClient
	baseURL string
	token   string
}

func NewClient(cfg *Config) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30
	}
	return &Client{
		http: helper.NewHTTPClient(&helper.HTTPClientConfig{
			ProxyURL:       cfg.ProxyURL,
			RequestTimeout: timeout,
		}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
	}
}

type call struct {
	method  helper.HTTPMethod
	path    string
	body    any
	headers http.Header
}

func (c *Client) do(ctx context.Context, req call, out any) error {
	headers := http.Header{}
	for k, v := range req.headers {
		headers[k] = v
	}
	if c.token != "" {
		headers.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(&helper.HTTPRequestPayload{
		Method: req.method,
		URL:    c.baseURL + req.path,
		Body:   req.body,
	}, &helper.HTTPRequestConfig{
		Ctx:     ctx,
		Headers: headers,
	})
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Data)}
	}

	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessage {
		cut := maxErrorMessage
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}
