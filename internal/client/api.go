// Package client talks to the ussm HTTP API and keeps a reconciled
// dashboard view fresh for one signed-in user.
package client

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

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/utils"
)

// API is the subset of the server the poll loop depends on.
type API interface {
	Services(ctx context.Context) ([]domain.Service, error)
	Favourites(ctx context.Context, userID string) ([]domain.Favourite, error)
	Layout(ctx context.Context, userID string) ([]string, error)
	UpsertService(ctx context.Context, svc ServiceInput) (domain.Service, error)
	DeleteService(ctx context.Context, name string) error
	AddFavourite(ctx context.Context, userID, serviceName string) error
	RemoveFavourite(ctx context.Context, userID, serviceName string) error
}

// ServiceInput is the body of an upsert. Nil optional fields keep the
// stored values.
type ServiceInput struct {
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	Status           string  `json:"status"`
	URL              *string `json:"url,omitempty"`
	MaintenanceStart *string `json:"maintenanceStart,omitempty"`
	MaintenanceEnd   *string `json:"maintenanceEnd,omitempty"`
}

// Identity is what a successful login returns.
type Identity struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// Session returns the identity carried into reconciliation.
func (i Identity) Session() domain.SessionContext {
	return domain.SessionContext{UserID: i.ID, Role: i.Role}
}

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server answered %d", e.Code)
	}
	return fmt.Sprintf("server answered %d: %s", e.Code, e.Message)
}

// Unwrap maps the status code back onto the domain taxonomy.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusBadRequest:
		return domain.ErrValidation
	case http.StatusConflict:
		return domain.ErrConflict
	case http.StatusNotFound:
		return domain.ErrNotFound
	}
	return nil
}

// ErrUnauthorized is returned by Login on rejected credentials.
var ErrUnauthorized = errors.New("invalid credentials")

// HTTPClient implements API over the JSON routes.
type HTTPClient struct {
	base *url.URL
	http *http.Client
}

// NewHTTPClient targets baseURL, e.g. "http://localhost:8080/api".
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{base: u, http: &http.Client{Timeout: timeout}}, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (Identity, error) {
	var out struct {
		Identity
		Success bool `json:"success"`
	}
	err := c.do(ctx, http.MethodPost, "/login", map[string]string{"username": username, "password": password}, &out)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
		return Identity{}, ErrUnauthorized
	}
	if err != nil {
		return Identity{}, err
	}
	return out.Identity, nil
}

func (c *HTTPClient) Services(ctx context.Context) ([]domain.Service, error) {
	var out []domain.Service
	if err := c.do(ctx, http.MethodGet, "/services", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Favourites(ctx context.Context, userID string) ([]domain.Favourite, error) {
	var out []domain.Favourite
	if err := c.do(ctx, http.MethodGet, "/favourites/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Layout(ctx context.Context, userID string) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/dashboard/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) UpsertService(ctx context.Context, svc ServiceInput) (domain.Service, error) {
	var out domain.Service
	if err := c.do(ctx, http.MethodPost, "/services", svc, &out); err != nil {
		return domain.Service{}, err
	}
	return out, nil
}

func (c *HTTPClient) DeleteService(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/services/"+url.PathEscape(name), nil, nil)
}

func (c *HTTPClient) AddFavourite(ctx context.Context, userID, serviceName string) error {
	return c.do(ctx, http.MethodPost, "/favourites", favouriteBody(userID, serviceName), nil)
}

func (c *HTTPClient) RemoveFavourite(ctx context.Context, userID, serviceName string) error {
	return c.do(ctx, http.MethodDelete, "/favourites", favouriteBody(userID, serviceName), nil)
}

func favouriteBody(userID, serviceName string) map[string]string {
	return map[string]string{"userId": userID, "serviceName": serviceName}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&env)
		return &StatusError{Code: resp.StatusCode, Message: env.Message}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
