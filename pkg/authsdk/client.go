package authsdk

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

// Client is a client for the PakGroccrry authentication service. All methods
// are safe for concurrent use.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new auth service client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login starts (or restarts) a verification flow for the address. A response
// with Delivered=false means the flow exists but the code email did not go
// out; the caller should surface a resend affordance.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	resp, err := c.postJSON(ctx, "/v1/auth/login", req)
	if err != nil {
		return nil, err
	}

	var loginResp LoginResponse
	if err := decodeJSON(resp, &loginResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &loginResp, nil
}

// Verify submits a code against the pending flow. On success it returns the
// minted session and its bearer token.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	resp, err := c.postJSON(ctx, "/v1/auth/verify", req)
	if err != nil {
		return nil, err
	}

	var verifyResp VerifyResponse
	if err := decodeJSON(resp, &verifyResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &verifyResp, nil
}

// Resend reissues the code for a pending flow. A *APIError with code
// "delivery_failed" still means the flow was reset with a fresh code.
func (c *Client) Resend(ctx context.Context, req ResendRequest) (*ResendResponse, error) {
	resp, err := c.postJSON(ctx, "/v1/auth/resend", req)
	if err != nil {
		return nil, err
	}

	var resendResp ResendResponse
	if err := decodeJSON(resp, &resendResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &resendResp, nil
}

// Logout clears the pending flow and all sessions for the address. It is
// idempotent: logging out an address with nothing to clear succeeds.
func (c *Client) Logout(ctx context.Context, req LogoutRequest) error {
	resp, err := c.postJSON(ctx, "/v1/auth/logout", req)
	if err != nil {
		return err
	}

	return checkStatusNoContent(resp)
}

// GetPending fetches the read-only projection of the in-flight verification
// for the address. Returns a *APIError with code "no_pending_flow" when no
// live flow exists.
func (c *Client) GetPending(ctx context.Context, address string) (*PendingResponse, error) {
	path := "/v1/auth/pending?address=" + url.QueryEscape(address)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var pendingResp PendingResponse
	if err := decodeJSON(resp, &pendingResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &pendingResp, nil
}

// GetSession fetches the session identified by the bearer token.
func (c *Client) GetSession(ctx context.Context, token string) (*Session, error) {
	headers := map[string]string{"Authorization": "Bearer " + token}
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/auth/session", nil, headers)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := decodeJSON(resp, &session, http.StatusOK); err != nil {
		return nil, err
	}

	return &session, nil
}

// GetLiveness checks whether the service process is up.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/livez", nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}

	return &health, nil
}

// GetReadiness checks whether the service and its backing stores are ready.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/readyz", nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}

	return &health, nil
}

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doRequest performs an HTTP request with the client's HTTP client.
func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// postJSON marshals the payload and POSTs it with the JSON content type.
func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	return c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(data), headers)
}

// decodeJSON decodes a JSON response into the target. Non-expected status
// codes are turned into a *APIError via parseErrorResponse.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// checkStatusNoContent returns a typed error if the response status is not
// 204 No Content.
func checkStatusNoContent(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp, bodyBytes)
	}

	return nil
}

// parseErrorResponse turns an HTTP error response into a *APIError. Bodies
// that are not the standard error shape fall back to a generic error carrying
// the status code.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Code != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Code,
			Description: errResp.Description,
		}
	}

	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
