package reservoir

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sspzz/burn-stats/internal/metrics"
)

const DefaultBaseURL = "https://api.reservoir.tools"

// Endpoint labels used for metrics and errors.
const (
	EndpointTransfers  = "transfers_bulk"
	EndpointOwners     = "owners"
	EndpointUserTokens = "user_tokens"
)

type Options struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64 // requests per second; <= 0 disables the limiter
	RateBurst int
	Metrics   *metrics.Metrics
	HTTP      *http.Client
}

type Client struct {
	base    string
	apiKey  string
	httpc   *http.Client
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpc := opts.HTTP
	if httpc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpc = &http.Client{Timeout: timeout}
	}
	c := &Client{base: base, apiKey: opts.APIKey, httpc: httpc, metrics: opts.Metrics}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// APIError is a non-2xx answer from the indexer.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("reservoir %s: %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("reservoir %s: status %d", e.Endpoint, e.Status)
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(endpoint, 0)
		return fmt.Errorf("reservoir %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstream(endpoint, resp.StatusCode)

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reservoir %s: read body: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Endpoint: endpoint, Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(b, &eb) == nil {
			apiErr.Message = eb.Message
			if apiErr.Message == "" {
				apiErr.Message = eb.Error
			}
		}
		return apiErr
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("reservoir %s: decode: %w", endpoint, err)
	}
	return nil
}

// BulkTransfers fetches one page of transfers for token ("contract:tokenId").
// An empty continuation starts from the first page.
func (c *Client) BulkTransfers(ctx context.Context, token, continuation string, limit int) (TransfersPage, error) {
	q := url.Values{}
	q.Set("token", token)
	q.Set("limit", strconv.Itoa(limit))
	if continuation != "" {
		q.Set("continuation", continuation)
	}
	var page TransfersPage
	err := c.get(ctx, EndpointTransfers, "/transfers/bulk/v1", q, &page)
	return page, err
}

// Owners lists current holders of a collection.
func (c *Client) Owners(ctx context.Context, collection string, offset, limit int) ([]Owner, error) {
	q := url.Values{}
	q.Set("collection", collection)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	var r ownersResp
	if err := c.get(ctx, EndpointOwners, "/owners/v1", q, &r); err != nil {
		return nil, err
	}
	return r.Owners, nil
}

// UserTokens lists tokens of collection held by user.
func (c *Client) UserTokens(ctx context.Context, user, collection string, offset, limit int) ([]UserToken, error) {
	q := url.Values{}
	q.Set("collection", collection)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	var r userTokensResp
	path := "/users/" + url.PathEscape(user) + "/tokens/v5"
	if err := c.get(ctx, EndpointUserTokens, path, q, &r); err != nil {
		return nil, err
	}
	return r.Tokens, nil
}
