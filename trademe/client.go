package trademe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"open-homes-api/config"
	"open-homes-api/models"
	"open-homes-api/oauth"
	"open-homes-api/utils"
)

const searchPath = "/Search/Property/Residential.json"

// maxErrorBody caps how much of an upstream error body is kept on UpstreamError.
const maxErrorBody = 4096

// ErrUnauthorized matches an UpstreamError carrying HTTP 401.
var ErrUnauthorized = errors.New("trademe: unauthorized")

// UpstreamError is any non-2xx answer from Trade Me.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("trademe: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("trademe: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// attempt is the position in the signing sequence. A search runs the primary
// attempt, moves to the fallback only on 401, and fails after that.
type attempt int

const (
	attemptPrimary attempt = iota
	attemptFallback
	attemptFailed
)

func (a attempt) method() oauth.Method {
	if a == attemptFallback {
		return oauth.PLAINTEXT
	}
	return oauth.HMACSHA1
}

// Client calls the Trade Me residential search.
type Client struct {
	baseURL  string
	category string
	rows     int

	http      *http.Client
	signer    *oauth.Signer
	signerErr error
	limiter   *utils.RateLimiter
	logger    *utils.Logger
}

// NewClient builds a Client from cfg. Missing credentials do not fail
// construction; every fetch returns oauth.ErrMissingCredentials instead.
// A nil httpClient gets a default one honouring cfg.HTTPClientTimeout.
func NewClient(cfg *config.Config, logger *utils.Logger, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPClientTimeout()}
	}

	signer, err := oauth.NewSigner(cfg.TradeMeConsumerKey, cfg.TradeMeConsumerSecret)
	if err != nil {
		logger.Warn("[trademe] %v: open home fetches will fail until TRADEME_CONSUMER_KEY and TRADEME_CONSUMER_SECRET are set", err)
	}

	return &Client{
		baseURL:   cfg.TradeMeBaseURL(),
		category:  cfg.TradeMeCategory,
		rows:      cfg.TradeMeRows,
		http:      httpClient,
		signer:    signer,
		signerErr: err,
		limiter:   utils.NewRateLimiter(cfg.TradeMeRateLimitMs),
		logger:    logger,
	}
}

// WithBaseURL points the client at another host. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// FetchListings runs one residential search and returns its listings.
func (c *Client) FetchListings(ctx context.Context) ([]models.ListingRecord, error) {
	if c.signerErr != nil {
		return nil, c.signerErr
	}

	state := attemptPrimary
	for state != attemptFailed {
		resp, err := c.search(ctx, state.method())
		if err == nil {
			if resp.List == nil {
				return []models.ListingRecord{}, nil
			}
			c.logger.Debug("[trademe] search returned %d listings (total %d)", len(resp.List), resp.TotalCount)
			return resp.List, nil
		}

		if state == attemptPrimary && errors.Is(err, ErrUnauthorized) {
			c.logger.Warn("[trademe] %v rejected with 401, retrying once with %v", oauth.HMACSHA1, oauth.PLAINTEXT)
			state = attemptFallback
			continue
		}
		return nil, err
	}
	return nil, errors.New("trademe: search attempts exhausted")
}

func (c *Client) query() url.Values {
	q := url.Values{}
	if c.category != "" {
		q.Set("category", c.category)
	}
	q.Set("rows", strconv.Itoa(c.rows))
	return q
}

func (c *Client) search(ctx context.Context, method oauth.Method) (*models.SearchResponse, error) {
	endpoint := c.baseURL + searchPath
	query := c.query()

	auth, err := c.signer.Sign(oauth.Request{Method: http.MethodGet, URL: endpoint, Query: query}, method)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("trademe: create request: %w", err)
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Accept", "application/json")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("trademe: waiting for rate limit: %w", err)
	}
	c.logger.Debug("[trademe] GET %s (%v)", req.URL.Redacted(), method)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trademe: request failed: %w", err)
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			c.logger.Warn("[trademe] failed to close response body: %v", closeErr)
		}
	}()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &UpstreamError{StatusCode: res.StatusCode, Body: string(body)}
	}

	var out models.SearchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("trademe: decode search response: %w", err)
	}
	return &out, nil
}
