package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medimeet/telehealth-platform/pkg/logging"
)

const defaultTimeout = 10 * time.Second

// HTTPIssuer calls an external session provider over HTTP.
type HTTPIssuer struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// Option configures an HTTPIssuer.
type Option func(*HTTPIssuer)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(i *HTTPIssuer) {
		i.httpClient = c
	}
}

// NewHTTPIssuer creates a client for the session provider at baseURL.
func NewHTTPIssuer(baseURL, apiKey string, logger *logging.Logger, opts ...Option) *HTTPIssuer {
	if logger == nil {
		logger = logging.Default()
	}
	i := &HTTPIssuer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

// CreateSession requests one token from the provider. Any transport or
// provider error is wrapped in ErrIssuance; the caller treats it as fatal for
// the reservation in flight.
func (i *HTTPIssuer) CreateSession(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/sessions", nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrIssuance, err)
	}
	req.Header.Set("Authorization", "Bearer "+i.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIssuance, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		i.logger.Error("session provider rejected request",
			"status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("%w: provider returned status %d", ErrIssuance, resp.StatusCode)
	}

	var out createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrIssuance, err)
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("%w: provider returned empty session id", ErrIssuance)
	}
	return out.SessionID, nil
}
