package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// httpLookup performs GET requests against an external record API.
type httpLookup struct {
	providerID string
	baseURL    string
	apiKey     string
	client     *http.Client
}

// getJSON decodes the response into out. found is false on a 404.
func (h *httpLookup) getJSON(ctx context.Context, path string, out any) (found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(h.baseURL, "/")+path, nil)
	if err != nil {
		return false, NewProviderError(ErrorInternal, h.providerID, "building request", err)
	}
	req.Header.Set("Accept", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return false, NewProviderError(ErrorTimeout, h.providerID, "request timed out", err)
		}
		return false, NewProviderError(ErrorProviderOutage, h.providerID, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return false, NewProviderError(ErrorProviderOutage, h.providerID, fmt.Sprintf("upstream returned %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return false, NewProviderError(ErrorBadData, h.providerID, fmt.Sprintf("upstream returned %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		if isTimeout(err) {
			return false, NewProviderError(ErrorTimeout, h.providerID, "reading response timed out", err)
		}
		return false, NewProviderError(ErrorBadData, h.providerID, "decoding response", err)
	}
	return true, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
