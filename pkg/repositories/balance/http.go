package balance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 * 1024

// HTTPClient talks to a remote balance endpoint over JSON/HTTP.
type HTTPClient struct {
	baseURL   string
	authToken string
	http      *http.Client
}

// NewHTTPClient creates a client for the balance endpoint at baseURL.
// The auth token, when set, is sent as a bearer token.
func NewHTTPClient(baseURL, authToken string) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		authToken: authToken,
		http:      &http.Client{Timeout: defaultRequestTimeout},
	}
}

// errorEnvelope is the wire shape of endpoint rejections.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	CurrentBalance *int64 `json:"currentBalance,omitempty"`
}

// UpdateChips posts a chip update and decodes either the success
// payload or a structured *APIError.
func (c *HTTPClient) UpdateChips(ctx context.Context, req *ChipUpdateRequest) (*ChipUpdateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error encoding chip update: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chips/update", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error building chip update request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error calling balance endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out ChipUpdateResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("error decoding chip update response: %w", err)
		}
		return &out, nil
	}

	return nil, c.decodeError(resp)
}

// decodeError turns a non-2xx response into an *APIError, tolerating
// bodies that are not valid JSON.
func (c *HTTPClient) decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		var envelope errorEnvelope
		if json.Unmarshal(raw, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
			apiErr.CurrentBalance = envelope.CurrentBalance
		}
	}

	if apiErr.Code == "" {
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			apiErr.Code = CodeUnauthorized
		case http.StatusTooManyRequests:
			apiErr.Code = CodeRateLimited
		default:
			apiErr.Code = CodeDatabaseError
		}
	}

	if apiErr.Code == CodeRateLimited {
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
			apiErr.RetryAfter = time.Duration(seconds) * time.Second
		}
	}

	return apiErr
}
