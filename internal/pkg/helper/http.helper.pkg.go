package helper

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"mobile-banking-core/internal/pkg/logger"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"time"
)

type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	PUT    HTTPMethod = "PUT"
	DELETE HTTPMethod = "DELETE"
)

func (m HTTPMethod) ToString() string {
	return string(m)
}

// MultipartFile is one file part of a multipart/form-data body.
type MultipartFile struct {
	Field       string
	FileName    string
	ContentType string
	Content     []byte
}

// MultipartBody is sent as multipart/form-data when used as a request body.
type MultipartBody struct {
	Fields map[string]string
	Files  []MultipartFile
}

type HTTPRequestPayload struct {
	Method HTTPMethod
	URL    string
	Params map[string]string
	Body   any
}

type BasicAuth struct {
	Username string
	Password string
}

type HTTPRequestConfig struct {
	Ctx     context.Context
	Headers http.Header
	Auth    *BasicAuth
}

type HTTPAPIResponse struct {
	StatusCode int
	Headers    http.Header
	Data       []byte
}

// HTTPClientConfig configures the outbound client used for backend calls.
type HTTPClientConfig struct {
	ProxyURL       string
	SkipTLSVerify  bool
	RequestTimeout int
}

type HTTPClient struct {
	Client *http.Client
	Config *HTTPClientConfig
}

// NewHTTPClient creates an HTTP client with dial/TLS timeouts and an optional proxy.
func NewHTTPClient(cfg *HTTPClientConfig) *HTTPClient {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.SkipTLSVerify,
		},
	}

	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			logger.Error.Printf("Invalid proxy URL: %v", err)
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
			logger.Debug.Printf("Using proxy: %s", cfg.ProxyURL)
		}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   time.Duration(cfg.RequestTimeout) * time.Second,
	}

	return &HTTPClient{
		Client: client,
		Config: cfg,
	}
}

// Do performs the request described by payload.
func (h *HTTPClient) Do(payload *HTTPRequestPayload, config *HTTPRequestConfig) (*HTTPAPIResponse, error) {
	if config.Headers == nil {
		config.Headers = http.Header{}
	}

	requestBody, err := handleRequestBody(payload, config)
	if err != nil {
		logger.Debug.Println("Error handling request body:", err.Error())
		return nil, err
	}

	req, err := h.prepareRequest(payload, requestBody, config)
	if err != nil {
		logger.Debug.Println("Error preparing request:", err.Error())
		return nil, err
	}

	return h.executeRequest(req)
}

// handleRequestBody encodes the body and sets the matching Content-Type header.
func handleRequestBody(payload *HTTPRequestPayload, config *HTTPRequestConfig) (io.Reader, error) {
	switch body := payload.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(body), nil
	case *MultipartBody:
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		for key, value := range body.Fields {
			if err := w.WriteField(key, value); err != nil {
				return nil, fmt.Errorf("failed to write field %s: %w", key, err)
			}
		}
		for _, f := range body.Files {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.FileName))
			h.Set("Content-Type", f.ContentType)
			part, err := w.CreatePart(h)
			if err != nil {
				return nil, fmt.Errorf("failed to create part %s: %w", f.Field, err)
			}
			if _, err := part.Write(f.Content); err != nil {
				return nil, fmt.Errorf("failed to write part %s: %w", f.Field, err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to close multipart body: %w", err)
		}
		config.Headers.Set("Content-Type", w.FormDataContentType())
		return buf, nil
	default:
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		config.Headers.Set("Content-Type", "application/json")
		return bytes.NewReader(b), nil
	}
}

func (h *HTTPClient) prepareRequest(payload *HTTPRequestPayload, body io.Reader, config *HTTPRequestConfig) (*http.Request, error) {
	ctx := config.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, payload.Method.ToString(), payload.URL, body)
	if err != nil {
		return nil, err
	}

	for key, values := range config.Headers {
		req.Header[key] = append(req.Header[key], values...)
	}
	req.Header.Set("Accept", "application/json")

	if config.Auth != nil {
		req.SetBasicAuth(config.Auth.Username, config.Auth.Password)
	}

	if len(payload.Params) > 0 {
		q := req.URL.Query()
		for key, value := range payload.Params {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	return req, nil
}

func (h *HTTPClient) executeRequest(req *http.Request) (*HTTPAPIResponse, error) {
	logger.Debug.Printf("%s %s", req.Method, req.URL.String())

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	result, err := parseResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	logger.Debug.Printf("%s %s -> %d", req.Method, req.URL.Path, resp.StatusCode)

	return &HTTPAPIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Data:       result,
	}, nil
}

// parseResponseBody reads at most 8 MiB of the body.
func parseResponseBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
}
