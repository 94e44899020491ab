// Package submission sends finalized audio to the processing service and
// delivers the outcome to the presentation layer.
package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"voice-query-client/internal/models"
)

// The processing service contract.
const (
	ProcessPath    = "/process"
	HealthPath     = "/health"
	FormField      = "file"
	UploadFileName = "recording.webm" // fixed whatever the source; the service sniffs the format
)

// Config contains processing service client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration // 0 means no client-side timeout
	UserAgent string
}

// Client performs the single multipart round trip to the processing service.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a processing service client.
func NewClient(config Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", config.BaseURL)
	}
	if config.UserAgent == "" {
		config.UserAgent = "voice-query-client"
	}

	return &Client{
		baseURL:   base,
		userAgent: config.UserAgent,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// BaseURL returns the normalized base address (no trailing slash).
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Process uploads the payload and decodes the processing result. It issues
// exactly one request and never retries.
func (c *Client) Process(ctx context.Context, payload models.AudioPayload) (*models.ProcessingResult, error) {
	body, contentType, err := createMultipartBody(payload)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ProcessPath, body)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &SubmissionError{StatusCode: resp.StatusCode}
	}

	result, err := decodeResult(resp.Body)
	if err != nil {
		return nil, &SubmissionError{Err: &MalformedResponseError{Err: err}}
	}
	return result, nil
}

// decodeResult reads exactly one JSON object from r. A null body or any data
// after the object is rejected.
func decodeResult(r io.Reader) (*models.ProcessingResult, error) {
	dec := json.NewDecoder(r)

	var result *models.ProcessingResult
	if err := dec.Decode(&result); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if result == nil {
		return nil, errors.New("response body is null")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after response object")
	}
	return result, nil
}

// Health probes the processing service.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health probe: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health probe: status %d", resp.StatusCode)
	}
	return nil
}

// createMultipartBody writes the payload bytes untouched under the fixed
// field and filename. An empty payload still yields the part.
func createMultipartBody(payload models.AudioPayload) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	mediaType := payload.MediaType
	if mediaType == "" {
		mediaType = models.DefaultMediaType
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FormField, UploadFileName))
	header.Set("Content-Type", mediaType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(payload.Data); err != nil {
		return nil, "", fmt.Errorf("write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
