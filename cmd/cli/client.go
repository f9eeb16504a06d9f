package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/iho/checkledger/internal/adapter/http/dto"
)

// apiClient talks to the ledger HTTP API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// apiError is a non-2xx answer from the API.
type apiError struct {
	Status  int
	Message string
	Details string
}

func (e *apiError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Message, e.Details, e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, body, out any, headers ...string) error {
	u := strings.TrimRight(c.baseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		if headers[i+1] != "" {
			req.Header.Set(headers[i], headers[i+1])
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e dto.ErrorResponse
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error, Details: e.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func accountPath(id string, parts ...string) string {
	p := "/api/v1/accounts/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}
