// Package jellyfin is a thin client for the media server's user directory and
// library API. It covers exactly the calls the portal needs: authentication,
// credential validation, password changes, user lookup/deletion, and the
// advisory "is this title already in the library" probe.
//
// Error contract: a missing user is ErrUserNotFound, bad credentials are
// ErrInvalidCredentials, and every other non-2xx or transport failure is an
// *APIError carrying the remote status so callers can surface the cause.
package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrUserNotFound indicates the directory has no account with the
	// requested name. Distinct from transport or remote failures.
	ErrUserNotFound = errors.New("jellyfin: user not found")

	// ErrInvalidCredentials indicates the server rejected the supplied
	// username/password or access token.
	ErrInvalidCredentials = errors.New("jellyfin: invalid credentials")
)

// APIError reports an unexpected response from the media server.
type APIError struct {
	Op         string
	StatusCode int
}

// Error renders the operation and remote status.
func (e *APIError) Error() string {
	return fmt.Sprintf("jellyfin: %s: unexpected status %d", e.Op, e.StatusCode)
}

// authHeader identifies this client to the media server. The server requires
// the MediaBrowser scheme even for API-key requests.
const authHeader = `MediaBrowser Client="ZRS", Device="WebApp", DeviceId="ZRS-WebApp", Version="1.0.0"`

// User is a directory account as returned by the server.
type User struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// Session is the result of a successful authentication.
type Session struct {
	AccessToken string `json:"AccessToken"`
	User        User   `json:"User"`
}

// Client calls the media server API. The zero value is not usable; construct
// with New.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a Client for the server at baseURL using apiKey for
// administrative calls. A nil httpClient gets a 15s-timeout default.
func New(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// AuthenticateByName exchanges a username/password pair for a session token
// and profile. A 401 maps to ErrInvalidCredentials.
func (c *Client) AuthenticateByName(ctx context.Context, username, password string) (*Session, error) {
	body, _ := json.Marshal(map[string]string{"Username": username, "Pw": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Users/AuthenticateByName", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Emby-Authorization", authHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jellyfin: authenticate: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &APIError{Op: "authenticate", StatusCode: resp.StatusCode}
	}

	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("jellyfin: authenticate: decode: %w", err)
	}
	return &s, nil
}

// Me returns the profile behind an access token. Used to validate bearer
// credentials issued by AuthenticateByName; an invalid or expired token maps
// to ErrInvalidCredentials.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/Users/Me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("MediaBrowser Token=%q", token))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jellyfin: me: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &APIError{Op: "me", StatusCode: resp.StatusCode}
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("jellyfin: me: decode: %w", err)
	}
	return &u, nil
}

// ChangePassword updates the password of the account behind token. The
// server signals success with 204; a 401 means the current password was
// wrong and maps to ErrInvalidCredentials.
func (c *Client) ChangePassword(ctx context.Context, token, userID, currentPw, newPw string) error {
	body, _ := json.Marshal(map[string]string{"CurrentPw": currentPw, "NewPw": newPw})
	u := fmt.Sprintf("%s/Users/Password?userId=%s", c.baseURL, url.QueryEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("MediaBrowser Token=%q", token))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jellyfin: change password: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		return ErrInvalidCredentials
	default:
		return &APIError{Op: "change password", StatusCode: resp.StatusCode}
	}
}

// Users fetches the full account list using the administrative API key.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/Users", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Emby-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jellyfin: list users: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Op: "list users", StatusCode: resp.StatusCode}
	}

	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("jellyfin: list users: decode: %w", err)
	}
	return users, nil
}

// FindUserByName performs a case-insensitive exact match against the full
// account list. Returns ErrUserNotFound when no account matches.
func (c *Client) FindUserByName(ctx context.Context, name string) (*User, error) {
	users, err := c.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Name, name) {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

// DeleteUser removes an account from the directory. This is destructive and
// irreversible; success is signaled only by a 204 response, anything else is
// an *APIError.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/Users/"+url.PathEscape(userID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("MediaBrowser Token=%q", c.apiKey))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jellyfin: delete user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return &APIError{Op: "delete user", StatusCode: resp.StatusCode}
	}
	return nil
}

// itemsResponse is the subset of the /Items payload the probe needs.
type itemsResponse struct {
	Items []struct {
		Name           string `json:"Name"`
		ProductionYear int    `json:"ProductionYear"`
	} `json:"Items"`
}

// ExistsByTitleYear reports whether the library already holds an item whose
// name matches title case-insensitively and whose production year matches
// year. Callers treat this as advisory; errors should degrade to "assume not
// present" upstream.
func (c *Client) ExistsByTitleYear(ctx context.Context, title string, year int) (bool, error) {
	q := url.Values{}
	q.Set("searchTerm", title)
	q.Set("Recursive", "true")
	q.Set("IncludeItemTypes", "Movie,Series")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/Items?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("X-Emby-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("jellyfin: library probe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, &APIError{Op: "library probe", StatusCode: resp.StatusCode}
	}

	var items itemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return false, fmt.Errorf("jellyfin: library probe: decode: %w", err)
	}
	for _, it := range items.Items {
		if strings.EqualFold(it.Name, title) && it.ProductionYear == year {
			return true, nil
		}
	}
	return false, nil
}
