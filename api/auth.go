package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Backend authentication endpoints.
const (
	PathAuthenticate = "/auth/authenticate"
	PathRegister     = "/auth/register"
	PathLogout       = "/auth/logout"
	PathMe           = "/api/users/me"
	// PathMeByEmail is the legacy identity lookup, kept for backends that
	// predate /api/users/me.
	PathMeByEmail = "/api/users/email/%s"
)

// ErrInvalidCredentials is the only error a failed login surfaces to the
// user. It deliberately carries no detail about what the backend rejected
// or which response field was missing.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginRequest is the body of POST /auth/authenticate.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the backend's answer to a successful authentication.
// All six fields are required; Missing lists the absent ones.
type LoginResponse struct {
	Token  string      `json:"token"`
	UserID json.Number `json:"userId"`
	Email  string      `json:"email"`
	Nom    string      `json:"nom"`
	Prenom string      `json:"prenom"`
	Role   string      `json:"role"`

	// Actif is optional; absent means active.
	Actif *bool `json:"actif,omitempty"`
}

// Missing returns the names of required fields absent from the response.
// The list is for logging only and must never reach the user.
func (r *LoginResponse) Missing() []string {
	var missing []string
	if r.Token == "" {
		missing = append(missing, "token")
	}
	if r.UserID.String() == "" {
		missing = append(missing, "userId")
	}
	if r.Email == "" {
		missing = append(missing, "email")
	}
	if r.Nom == "" {
		missing = append(missing, "nom")
	}
	if r.Prenom == "" {
		missing = append(missing, "prenom")
	}
	if r.Role == "" {
		missing = append(missing, "role")
	}
	return missing
}

// UserResponse is the identity shape returned by the current-identity
// lookups. It matches LoginResponse minus the token.
type UserResponse struct {
	UserID json.Number `json:"userId"`
	Email  string      `json:"email"`
	Nom    string      `json:"nom"`
	Prenom string      `json:"prenom"`
	Role   string      `json:"role"`
	Actif  *bool       `json:"actif,omitempty"`
}

// Authenticate performs the login call. A 4xx from the backend is folded
// into ErrInvalidCredentials; the raw reason is available only through the
// returned response's absence and the client logs.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*LoginResponse, error) {
	r := c.NewRequest(http.MethodPost, PathAuthenticate)
	if err := r.SetJSONBody(&LoginRequest{Email: email, Password: password}); err != nil {
		return nil, err
	}

	resp, err := c.RawRequestWithContext(ctx, r)
	if err != nil {
		var respErr *ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode >= 400 && respErr.StatusCode < 500 {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	defer resp.Body.Close()

	var login LoginResponse
	if err := resp.DecodeJSON(&login); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}

	return &login, nil
}

// Me looks up the identity of the token's owner. A 401 here tears the
// session down through the client's session-expired handler before the
// error is returned.
func (c *Client) Me(ctx context.Context) (*UserResponse, error) {
	r := c.NewRequest(http.MethodGet, PathMe)

	resp, err := c.RawRequestWithContext(ctx, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var user UserResponse
	if err := resp.DecodeJSON(&user); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}

	return &user, nil
}

// MeByEmail is the legacy identity lookup by login email.
func (c *Client) MeByEmail(ctx context.Context, email string) (*UserResponse, error) {
	r := c.NewRequest(http.MethodGet, fmt.Sprintf(PathMeByEmail, url.PathEscape(email)))

	resp, err := c.RawRequestWithContext(ctx, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var user UserResponse
	if err := resp.DecodeJSON(&user); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}

	return &user, nil
}

// Logout notifies the backend that the session is over. Callers treat the
// outcome as informational; teardown proceeds regardless.
func (c *Client) Logout(ctx context.Context) error {
	r := c.NewRequest(http.MethodPost, PathLogout)

	resp, err := c.RawRequestWithContext(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return nil
}
