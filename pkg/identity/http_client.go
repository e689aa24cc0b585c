package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HTTPClient talks to a hosted identity provider exposing a Clerk-compatible users API.
type HTTPClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
	logger    *zap.Logger
}

// NewHTTPClient constructs a hosted provider client. timeout bounds every call on top of the
// caller's context.
func NewHTTPClient(baseURL, secretKey string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type createUserRequest struct {
	Username       string            `json:"username"`
	Password       string            `json:"password,omitempty"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	EmailAddress   []string          `json:"email_address,omitempty"`
	PublicMetadata map[string]string `json:"public_metadata"`
}

// updateUserRequest always carries email_address so that a cleared email is cleared upstream too.
type updateUserRequest struct {
	Username       string            `json:"username"`
	Password       string            `json:"password,omitempty"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	EmailAddress   []string          `json:"email_address"`
	PublicMetadata map[string]string `json:"public_metadata,omitempty"`
}

type userResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Errors []struct {
		Code        string `json:"code"`
		Message     string `json:"message"`
		LongMessage string `json:"long_message"`
	} `json:"errors"`
	TraceID string `json:"clerk_trace_id"`
}

// Provision creates a user record and returns its id.
func (c *HTTPClient) Provision(ctx context.Context, profile Profile) (string, error) {
	body := createUserRequest{
		Username:       profile.Username,
		Password:       profile.Password,
		FirstName:      profile.FirstName,
		LastName:       profile.LastName,
		PublicMetadata: map[string]string{"role": string(profile.Role)},
	}
	if profile.Email != "" {
		body.EmailAddress = []string{profile.Email}
	}
	var out userResponse
	if err := c.do(ctx, http.MethodPost, "/users", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", NewError(CodeUnexpectedProviderErr, "provider returned no user id")
	}
	return out.ID, nil
}

// Update replaces the mirrored profile fields, email included. An empty password leaves the
// credential untouched and an empty role leaves the stored role.
func (c *HTTPClient) Update(ctx context.Context, id string, profile Profile) error {
	body := updateUserRequest{
		Username:     profile.Username,
		Password:     profile.Password,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		EmailAddress: []string{},
	}
	if email := strings.TrimSpace(profile.Email); email != "" {
		body.EmailAddress = []string{email}
	}
	if profile.Role != "" {
		body.PublicMetadata = map[string]string{"role": string(profile.Role)}
	}
	return c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id), body, nil)
}

// Deprovision deletes the user record.
func (c *HTTPClient) Deprovision(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

// FindByUsername looks a user up by exact username.
func (c *HTTPClient) FindByUsername(ctx context.Context, username string) (string, error) {
	var out []userResponse
	if err := c.do(ctx, http.MethodGet, "/users?username="+url.QueryEscape(username), nil, &out); err != nil {
		return "", err
	}
	if len(out) == 0 || out[0].ID == "" {
		return "", NewError(CodeIdentifierNotFound, "no user with username "+username)
	}
	return out[0].ID, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal identity request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Transient(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Transient(err)
	}

	if resp.StatusCode >= 400 {
		return c.decodeError(method, path, resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindRejected, Code: CodeUnexpectedProviderErr, Status: resp.StatusCode, Err: err}
	}
	return nil
}

func (c *HTTPClient) decodeError(method, path string, status int, raw []byte) error {
	var body errorResponse
	_ = json.Unmarshal(raw, &body)

	c.logger.Warn("identity provider error",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("trace_id", body.TraceID),
		zap.Any("errors", body.Errors),
	)

	if status >= 500 || status == http.StatusTooManyRequests {
		return &Error{Kind: KindTransient, Code: CodeProviderUnavailable, Status: status, Err: errors.New(http.StatusText(status))}
	}

	// The first recognised code wins so that e.g. a pwned-password rejection is not masked by a
	// generic validation code reported alongside it.
	var first *Error
	for _, e := range body.Errors {
		classified := NewError(e.Code, e.LongMessage)
		classified.Status = status
		if classified.Message == "" {
			classified.Message = e.Message
		}
		if classified.Kind != KindRejected {
			return classified
		}
		if first == nil {
			first = classified
		}
	}
	if first != nil {
		return first
	}
	if status == http.StatusNotFound {
		return &Error{Kind: KindNotFound, Code: CodeResourceNotFound, Status: status}
	}
	return &Error{Kind: KindRejected, Code: CodeUnexpectedProviderErr, Status: status, Message: string(raw)}
}
