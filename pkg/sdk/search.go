package trailsearch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// maxEventBytes bounds one SSE data line; a done event carries up to 20
// full trail records plus the trace.
const maxEventBytes = 1 << 20

// Search runs a streaming search. fn, if non-nil, receives every event in
// order; returning an error from fn cancels the search and Search returns
// that error. An error event ends the search with an *APIError.
func (c *Client) Search(ctx context.Context, text string, strategy Strategy, fn func(Event) error) (res *SearchResult, err error) {
	start := time.Now()
	announced := strategy
	defer func() {
		c.obs.observe("search", start, err)
		c.obs.observeSearch(announced, res, err)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	body := struct {
		Text     string   `json:"text"`
		Strategy Strategy `json:"strategy,omitempty"`
	}{text, strategy}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/search", nil, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trailsearch: search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	res = &SearchResult{}
	var narrative strings.Builder
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventBytes)
	for sc.Scan() {
		line := sc.Bytes()
		data, ok := bytes.CutPrefix(line, []byte("data:"))
		if !ok {
			// Blank separators, comments and other SSE fields.
			continue
		}
		var e Event
		if err := json.Unmarshal(bytes.TrimSpace(data), &e); err != nil {
			return nil, fmt.Errorf("trailsearch: decode event: %w", err)
		}
		c.obs.observeEvent(e.Type)
		if fn != nil {
			if err := fn(e); err != nil {
				return nil, err
			}
		}

		switch e.Type {
		case EventStart:
			res.RequestID, res.Strategy = e.RequestID, e.Strategy
			if e.Strategy != "" {
				announced = e.Strategy
			}
		case EventToken:
			narrative.WriteString(e.Content)
		case EventDone:
			res.Narrative = narrative.String()
			res.Results = e.Results
			res.Filters = e.Filters
			res.Trace = e.Trace
			res.Degraded = e.Degraded
			res.Message = e.Message
			return res, nil
		case EventError:
			return nil, &APIError{Status: resp.StatusCode, Code: e.Code, Message: e.Message}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("trailsearch: read stream: %w", err)
	}
	return nil, errStreamEnded
}
