// Package remote is the HTTP client of the meal ledger API. It implements
// the store interfaces of the ledger and the catalog, so the session caches
// talk to the server through it.
package remote

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
	"sync"
	"time"

	"github.com/atinyakov/mealledger/internal/models"
)

var (
	// ErrNotFound is returned for a 404 answer.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for a 401 answer.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrWrongUser is returned when a call is scoped to a user other than
	// the signed-in one.
	ErrWrongUser = errors.New("not signed in as this user")
)

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// Is maps well-known status codes onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized
	}
	return false
}

// Client talks to one server on behalf of one signed-in user.
type Client struct {
	baseURL string
	http    *http.Client

	mu     sync.RWMutex
	token  string
	userID string
}

// New creates a Client. A nil hc gets a client with a 10 second timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// SetSession installs the credentials used by every authenticated call.
func (c *Client) SetSession(userID, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID, c.token = userID, token
}

// UserID returns the signed-in user, or "" before login.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Register creates an account and returns its ID.
func (c *Client) Register(ctx context.Context, login, password string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/api/register", credentials{login, password}, &out, false)
	if err != nil {
		return "", fmt.Errorf("register failed: %w", err)
	}
	return out.ID, nil
}

// Login exchanges credentials for a token and installs the session.
func (c *Client) Login(ctx context.Context, login, password string) (token, userID string, err error) {
	var out struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/login", credentials{login, password}, &out, false); err != nil {
		return "", "", fmt.Errorf("login failed: %w", err)
	}
	c.SetSession(out.UserID, out.Token)
	return out.Token, out.UserID, nil
}

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type affected struct {
	Affected int64 `json:"affected"`
}

// ListMeals fetches the user's meals for date.
func (c *Client) ListMeals(ctx context.Context, userID, date string) ([]models.MealEntry, error) {
	if err := c.checkUser(userID); err != nil {
		return nil, err
	}
	var out []models.MealEntry
	err := c.do(ctx, http.MethodGet, "/api/meals?"+url.Values{"date": {date}}.Encode(), nil, &out, true)
	return out, err
}

// InsertMeal stores a meal and returns the server's row.
func (c *Client) InsertMeal(ctx context.Context, userID string, m models.NewMealEntry) (*models.MealEntry, error) {
	if err := c.checkUser(userID); err != nil {
		return nil, err
	}
	var out models.MealEntry
	if err := c.do(ctx, http.MethodPost, "/api/meals", m, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMeal sends a partial update and returns the affected row count.
func (c *Client) UpdateMeal(ctx context.Context, userID, id string, p models.MealEntryPatch) (int64, error) {
	if err := c.checkUser(userID); err != nil {
		return 0, err
	}
	var out affected
	err := c.do(ctx, http.MethodPatch, "/api/meals/"+url.PathEscape(id), p, &out, true)
	return out.Affected, err
}

// DeleteMeal removes a meal and returns the affected row count.
func (c *Client) DeleteMeal(ctx context.Context, userID, id string) (int64, error) {
	if err := c.checkUser(userID); err != nil {
		return 0, err
	}
	var out affected
	err := c.do(ctx, http.MethodDelete, "/api/meals/"+url.PathEscape(id), nil, &out, true)
	return out.Affected, err
}

// Summary fetches per-day totals between from and to inclusive.
func (c *Client) Summary(ctx context.Context, userID, from, to string) ([]models.DaySummary, error) {
	if err := c.checkUser(userID); err != nil {
		return nil, err
	}
	var out []models.DaySummary
	q := url.Values{"from": {from}, "to": {to}}
	err := c.do(ctx, http.MethodGet, "/api/meals/summary?"+q.Encode(), nil, &out, true)
	return out, err
}

// ListSavedMeals fetches the user's templates.
func (c *Client) ListSavedMeals(ctx context.Context, userID string) ([]models.SavedMeal, error) {
	if err := c.checkUser(userID); err != nil {
		return nil, err
	}
	var out []models.SavedMeal
	err := c.do(ctx, http.MethodGet, "/api/saved-meals", nil, &out, true)
	return out, err
}

// InsertSavedMeal stores a template.
func (c *Client) InsertSavedMeal(ctx context.Context, userID string, m models.NewSavedMeal) (*models.SavedMeal, error) {
	if err := c.checkUser(userID); err != nil {
		return nil, err
	}
	var out models.SavedMeal
	if err := c.do(ctx, http.MethodPost, "/api/saved-meals", m, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSavedMeal sends a partial update of a template.
func (c *Client) UpdateSavedMeal(ctx context.Context, userID, id string, p models.SavedMealPatch) (int64, error) {
	if err := c.checkUser(userID); err != nil {
		return 0, err
	}
	var out affected
	err := c.do(ctx, http.MethodPatch, "/api/saved-meals/"+url.PathEscape(id), p, &out, true)
	return out.Affected, err
}

// DeleteSavedMeal removes a template.
func (c *Client) DeleteSavedMeal(ctx context.Context, userID, id string) (int64, error) {
	if err := c.checkUser(userID); err != nil {
		return 0, err
	}
	var out affected
	err := c.do(ctx, http.MethodDelete, "/api/saved-meals/"+url.PathEscape(id), nil, &out, true)
	return out.Affected, err
}

// GetProfile fetches the user's profile. ErrNotFound means none was saved.
func (c *Client) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if err := c.checkUser(userID); err != nil {
		return nil, err
	}
	var out models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveProfile upserts the present patch fields.
func (c *Client) SaveProfile(ctx context.Context, userID string, p models.ProfilePatch) (*models.Profile, error) {
	if err := c.checkUser(userID); err != nil {
		return nil, err
	}
	var out models.Profile
	if err := c.do(ctx, http.MethodPut, "/api/profile", p, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) checkUser(userID string) error {
	if current := c.UserID(); current == "" || current != userID {
		return fmt.Errorf("%w: %q", ErrWrongUser, userID)
	}
	return nil
}

// do sends one request and decodes a JSON answer into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		c.mu.RLock()
		req.Header.Set("Authorization", "Bearer "+c.token)
		c.mu.RUnlock()
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}
