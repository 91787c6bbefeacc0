package trailsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/trailsearch/internal/version"
)

// Client is the trailsearch API client. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	apiKey    string
	userAgent string
	obs       *observer
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("trailsearch: invalid base URL %q", baseURL)
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{}
	}
	if cfg.userAgent == "" {
		cfg.userAgent = "trailsearch-go/" + version.Version
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   u,
		http:      cfg.httpClient,
		apiKey:    cfg.apiKey,
		userAgent: cfg.userAgent,
		obs:       obs,
	}, nil
}

// Trail returns a trail by id.
func (c *Client) Trail(ctx context.Context, id int64) (t Trail, err error) {
	start := time.Now()
	defer func() { c.obs.observe("trail", start, err) }()

	err = c.getJSON(ctx, "/api/trails/"+strconv.FormatInt(id, 10), nil, &t)
	return t, err
}

// Trails lists trails whose city, county, state or region contains area.
// Empty area lists all; limit <= 0 uses the server default.
func (c *Client) Trails(ctx context.Context, area string, limit int) (ts []Trail, err error) {
	start := time.Now()
	defer func() { c.obs.observe("trails", start, err) }()

	q := url.Values{}
	if area != "" {
		q.Set("area", area)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Items []Trail `json:"items"`
	}
	if err = c.getJSON(ctx, "/api/trails", q, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Strategies lists the strategies the server offers.
func (c *Client) Strategies(ctx context.Context) (out []StrategyInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("strategies", start, err) }()

	err = c.getJSON(ctx, "/api/strategies", nil, &out)
	return out, err
}

// Parse returns the filters the server's heuristic parser extracts from
// text, without running a search.
func (c *Client) Parse(ctx context.Context, text string) (f Filters, err error) {
	start := time.Now()
	defer func() { c.obs.observe("parse", start, err) }()

	body := struct {
		Text string `json:"text"`
	}{text}
	err = c.doJSON(ctx, http.MethodPost, "/api/parse", nil, body, &f)
	return f, err
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body any) (*http.Request, error) {
	u := *c.baseURL
	u.Path += path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("trailsearch: encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, fmt.Errorf("trailsearch: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, q, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("trailsearch: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("trailsearch: decode %s: %w", path, err)
	}
	return nil
}

// decodeAPIError reads the server's {code, message} body.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(b, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
		apiErr.Message = strings.TrimSpace(string(b))
	}
	return apiErr
}

var errStreamEnded = errors.New("trailsearch: stream ended without a terminal event")
