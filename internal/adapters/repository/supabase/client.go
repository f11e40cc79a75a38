// Package supabase talks to a hosted Supabase project through its PostgREST
// interface. Vote totals are computed remotely by the ideas_with_votes view.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

const (
	codeUniqueViolation = "23505"
	codeQuotaExhausted  = "P0001"
)

// apiError is the PostgREST error body.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(url, key string, timeout time.Duration) *Client {
	if !strings.HasPrefix(url, "http") {
		url = "https://" + url
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(url, "/"),
		apiKey:     key,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, body any, headers map[string]string) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/rest/v1"+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUnavailableError(fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewUnavailableError(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(respBody, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, domain.NewUnavailableError(apiErr)
		}
		return nil, apiErr
	}

	return respBody, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	data, err := c.makeRequest(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func apiCode(err error) string {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		if apiErr.Code == "" && apiErr.Status == http.StatusConflict {
			return codeUniqueViolation
		}
		return apiErr.Code
	}
	return ""
}
