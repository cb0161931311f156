package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/adspilot/metads-assistant/internal/config"
)

// SupabaseUser is the GoTrue representation of an account. Profile fields
// and Meta credentials live in the user metadata map.
type SupabaseUser struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt string         `json:"email_confirmed_at"`
	CreatedAt        string         `json:"created_at"`
	UpdatedAt        string         `json:"updated_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
}

// MetadataString reads a string field from the user metadata, returning
// fallback when the field is absent or not a string.
func (u *SupabaseUser) MetadataString(key, fallback string) string {
	if u.UserMetadata == nil {
		return fallback
	}
	if v, ok := u.UserMetadata[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

type supabaseSession struct {
	AccessToken string        `json:"access_token"`
	User        *SupabaseUser `json:"user"`
}

// GoTrue error bodies come in two shapes depending on the endpoint.
type supabaseError struct {
	Msg         string `json:"msg"`
	ErrorField  string `json:"error"`
	Description string `json:"error_description"`
}

func (e *supabaseError) message() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Description != "":
		return e.Description
	case e.ErrorField != "":
		return e.ErrorField
	default:
		return "unknown auth error"
	}
}

// SupabaseClient talks to the Supabase GoTrue REST API. User-facing flows
// use the anon key; admin lookups use the service key.
type SupabaseClient struct {
	baseURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
}

// NewSupabaseClient creates a client for the configured Supabase project.
func NewSupabaseClient(cfg config.SupabaseConfig) *SupabaseClient {
	return &SupabaseClient{
		baseURL:    cfg.URL,
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// SignUp registers a new account. Supabase requires email confirmation
// before the account becomes active.
func (c *SupabaseClient) SignUp(ctx context.Context, email, password, fullName string) (*SupabaseUser, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data": map[string]any{
			"full_name": fullName,
			"role":      "user",
		},
	}

	var user SupabaseUser
	if err := c.doRequest(ctx, http.MethodPost, "/auth/v1/signup", c.anonKey, body, &user); err != nil {
		return nil, fmt.Errorf("signing up: %w", err)
	}
	return &user, nil
}

// SignInWithPassword authenticates with email and password, returning the
// Supabase user record.
func (c *SupabaseClient) SignInWithPassword(ctx context.Context, email, password string) (*SupabaseUser, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}

	var session supabaseSession
	if err := c.doRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", c.anonKey, body, &session); err != nil {
		return nil, fmt.Errorf("signing in: %w", err)
	}
	if session.User == nil {
		return nil, fmt.Errorf("signing in: no user in response")
	}
	return session.User, nil
}

// AdminGetUser fetches a user record by id using the service key.
func (c *SupabaseClient) AdminGetUser(ctx context.Context, userID string) (*SupabaseUser, error) {
	var user SupabaseUser
	if err := c.doRequest(ctx, http.MethodGet, "/auth/v1/admin/users/"+userID, c.serviceKey, nil, &user); err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}
	return &user, nil
}

// AdminUpdateUserMetadata merges fields into a user's metadata using the
// service key. Used to attach Meta credentials after the OAuth callback.
func (c *SupabaseClient) AdminUpdateUserMetadata(ctx context.Context, userID string, metadata map[string]any) (*SupabaseUser, error) {
	body := map[string]any{"user_metadata": metadata}

	var user SupabaseUser
	if err := c.doRequest(ctx, http.MethodPut, "/auth/v1/admin/users/"+userID, c.serviceKey, body, &user); err != nil {
		return nil, fmt.Errorf("updating user %s: %w", userID, err)
	}
	return &user, nil
}

func (c *SupabaseClient) doRequest(ctx context.Context, method, path, apiKey string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr supabaseError
		if err := json.Unmarshal(raw, &apiErr); err == nil {
			return fmt.Errorf("%s (status %d)", apiErr.message(), resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
