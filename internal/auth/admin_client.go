package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"testtaker/internal/domain"
)

// AdminClient provides access to the Supabase Admin API.
// Operator tooling only; it authenticates with the service role key.
type AdminClient struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

// NewAdminClient creates a new Supabase Admin API client.
// Requires the service role key for elevated permissions.
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		supabaseURL: strings.TrimRight(supabaseURL, "/"),
		serviceKey:  serviceKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AdminUser is a user record returned by the Admin API
type AdminUser struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	LastSign  *time.Time `json:"last_sign_in_at"`
}

type listUsersResponse struct {
	Users []AdminUser `json:"users"`
}

// ListUsers returns one page of users
func (c *AdminClient) ListUsers(ctx context.Context, page, perPage int) ([]AdminUser, error) {
	url := fmt.Sprintf("%s/auth/v1/admin/users?page=%d&per_page=%d", c.supabaseURL, page, perPage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create list request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list users failed with status %d: %s", resp.StatusCode, string(body))
	}

	var listResp listUsersResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, fmt.Errorf("failed to decode list response: %w", err)
	}

	return listResp.Users, nil
}

// FindUserByEmail pages through users until one matches email (case-insensitive).
func (c *AdminClient) FindUserByEmail(ctx context.Context, email string) (*AdminUser, error) {
	const perPage = 200
	for page := 1; ; page++ {
		users, err := c.ListUsers(ctx, page, perPage)
		if err != nil {
			return nil, err
		}
		for i := range users {
			if strings.EqualFold(users[i].Email, email) {
				return &users[i], nil
			}
		}
		if len(users) < perPage {
			return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
		}
	}
}
