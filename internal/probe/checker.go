// Package probe checks an external endpoint and maps the outcome to a status.
package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/utils"
)

// DefaultTimeout bounds one check end to end.
const DefaultTimeout = 5 * time.Second

// Checker issues GET requests against one endpoint.
// Concurrent callers share a single in-flight request.
type Checker struct {
	url     string
	timeout time.Duration
	client  *http.Client
	group   singleflight.Group
}

func NewChecker(url string, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{
		url:     url,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 0,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				DisableKeepAlives: true,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// A redirect is an answer; report its code
				return http.ErrUseLastResponse
			},
		},
	}
}

// URL returns the probed endpoint.
func (c *Checker) URL() string { return c.url }

// Check returns Operational on HTTP 200 and Down otherwise.
// It always returns within the checker timeout; ctx only stops the wait.
func (c *Checker) Check(ctx context.Context) domain.Status {
	ch := c.group.DoChan(c.url, func() (any, error) {
		return c.do(), nil
	})
	select {
	case res := <-ch:
		return res.Val.(domain.Status)
	case <-ctx.Done():
		return domain.StatusDown
	}
}

func (c *Checker) do() domain.Status {
	if err := c.ping(); err != nil {
		return domain.StatusDown
	}
	return domain.StatusOperational
}

func (c *Checker) ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", c.url, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe %s: unexpected status %d", c.url, resp.StatusCode)
	}
	return nil
}
