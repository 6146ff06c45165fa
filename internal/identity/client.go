package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Priya8975/life-event-share/internal/domain"
)

// Client talks to the identity provider's admin API, which owns the OAuth
// clients that poll-mode acquirers authenticate with.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// DeleteClient removes the OAuth client. A client that does not exist counts
// as deleted.
func (c *Client) DeleteClient(ctx context.Context, clientID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/admin/clients/"+url.PathEscape(clientID), nil)
	if err != nil {
		return fmt.Errorf("building delete client request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("deleting client %s: %w", clientID, domain.ErrTimeout)
		}
		return fmt.Errorf("deleting client %s: %w: %v", clientID, domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.logger.Info("oauth client already absent", "client_id", clientID)
		return nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.logger.Info("oauth client deleted", "client_id", clientID)
		return nil
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("deleting client %s: identity admin returned %d: %w", clientID, resp.StatusCode, domain.ErrUnavailable)
	default:
		return fmt.Errorf("deleting client %s: identity admin returned %d", clientID, resp.StatusCode)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
