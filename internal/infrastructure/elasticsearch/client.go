// Package elasticsearch reads users and roles from the Elasticsearch
// security API.
package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/99minutos/glauth-sync/internal/core/domain"
	"github.com/99minutos/glauth-sync/internal/core/ports"
)

// DefaultTimeout bounds each request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// UsersPageSize is the maximum number of users returned by one query.
const UsersPageSize = 100

const (
	rolesPath  = "/_security/role"
	usersPath  = "/.security*/_search"
	userAgent  = "elastic-glauth"
	maxErrBody = 512
)

// Config holds the connection settings.
type Config struct {
	URL      string
	User     string
	Password string
	Timeout  time.Duration
}

// Client implements ports.Directory.
type Client struct {
	baseURL  string
	user     string
	password string
	http     *http.Client
}

var _ ports.Directory = (*Client)(nil)

// New returns a Client. A zero timeout means DefaultTimeout.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		user:     cfg.User,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
	}
}

type roleResponse map[string]struct {
	Metadata struct {
		GlauthGID *uint64 `json:"glauth_gid"`
	} `json:"metadata"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source domain.RemoteUser `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// FetchRoles returns the roles that carry a glauth_gid in their metadata.
func (c *Client) FetchRoles(ctx context.Context) (domain.RoleMap, error) {
	var resp roleResponse
	if err := c.get(ctx, rolesPath, &resp); err != nil {
		return nil, fmt.Errorf("fetch roles: %w", err)
	}

	roles := make(domain.RoleMap, len(resp))
	for name, r := range resp {
		role := domain.RemoteRole{Name: name, GroupID: r.Metadata.GlauthGID}
		if role.Usable() {
			roles[name] = role
		}
	}
	return roles, nil
}

// FetchUsers returns up to UsersPageSize users in search result order.
func (c *Client) FetchUsers(ctx context.Context) ([]domain.RemoteUser, error) {
	path := fmt.Sprintf("%s?size=%d&q=type:user", usersPath, UsersPageSize)

	var resp searchResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	users := make([]domain.RemoteUser, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		users = append(users, hit.Source)
	}
	return users, nil
}

func (c *Client) get(ctx context.Context, path string, target any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request %s: %w", domain.ErrFetchRequest, url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.SetBasicAuth(c.user, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrFetchRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return fmt.Errorf("%w: GET %s: %s: %s", domain.ErrFetchRequest, url, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: GET %s: %w", domain.ErrFetchDecode, url, err)
	}
	return nil
}
