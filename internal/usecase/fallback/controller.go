// Package fallback runs a strategy with retries and degrades to the
// heuristic parser when the model cannot serve the request.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/domain/event"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/parser"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/request"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/result"
	"github.com/kailas-cloud/trailsearch/internal/domain/trace"
	"github.com/kailas-cloud/trailsearch/internal/logger"
	"github.com/kailas-cloud/trailsearch/internal/metrics"
	"github.com/kailas-cloud/trailsearch/internal/usecase/agent"
	"github.com/kailas-cloud/trailsearch/internal/usecase/search"
)

// Controller states.
const (
	statePrimary  = "primary"
	stateDegraded = "degraded"
	stateFailed   = "failed"
)

// Retry defaults.
const (
	DefaultMaxTries        = 3
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 4 * time.Second
	DefaultMultiplier      = 2.0
)

// RetryConfig tunes retries of transient provider errors.
type RetryConfig struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// ApplyDefaults fills zero fields.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxTries == 0 {
		c.MaxTries = DefaultMaxTries
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = DefaultInitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = DefaultMaxInterval
	}
	if c.Multiplier < 1 {
		c.Multiplier = DefaultMultiplier
	}
}

// Controller drives one request through primary → degraded → failed.
type Controller struct {
	strategies map[mode.Mode]agent.Strategy
	searcher   Searcher
	parser     *parser.Parser
	retry      RetryConfig
	limit      int
}

// New creates a controller over the given strategies.
func New(strategies []agent.Strategy, searcher Searcher, p *parser.Parser, retry RetryConfig, limit int) *Controller {
	retry.ApplyDefaults()
	m := make(map[mode.Mode]agent.Strategy, len(strategies))
	for _, s := range strategies {
		m[s.Name()] = s
	}
	return &Controller{strategies: m, searcher: searcher, parser: p, retry: retry, limit: limit}
}

// Run executes the request, streaming tokens and trace entries into sink,
// and returns the terminal event. An error is returned only when the
// request was canceled or the sink stopped accepting events; no terminal
// event must be sent then.
func (c *Controller) Run(ctx context.Context, m mode.Mode, in agent.Input, sink agent.Sink) (event.Event, error) {
	ctx, log := logger.WithSearch(ctx, in.RequestID, string(m))
	rec := &recorder{sink: sink}

	strat, ok := c.strategies[m]
	if !ok {
		return c.degrade(ctx, in, rec, "unknown_strategy")
	}

	out, err := backoff.Retry(ctx, func() (agent.Outcome, error) {
		out, err := c.runSafely(ctx, strat, in, rec)
		switch {
		case err == nil:
			return out, nil
		case rec.err != nil, ctx.Err() != nil:
			return out, backoff.Permanent(err)
		case rec.emitted > 0 || !domain.IsTransient(err):
			return out, backoff.Permanent(err)
		}
		return out, err
	},
		backoff.WithBackOff(c.backOff()),
		backoff.WithMaxTries(c.retry.MaxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			metrics.LLMRetriesTotal.WithLabelValues(string(m)).Inc()
			log.Warn("Retrying strategy", zap.Error(err), zap.Duration("wait", wait))
		}),
	)

	switch {
	case rec.err != nil:
		return nil, rec.err
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case err == nil:
		return event.Done{
			Results: out.Results,
			Filters: out.Filters,
			Trace:   rec.log.Entries(),
			Message: out.Message,
		}, nil
	case domain.IsDataset(err):
		transition(statePrimary, stateFailed, "dataset")
		log.Error("Dataset failed during tool call", zap.Error(err), zap.String("state", stateFailed))
		return event.NewError(event.CodeDatasetUnavailable), nil
	}

	log.Warn("Strategy failed, degrading", zap.Error(err), zap.Int("emitted", rec.emitted))
	return c.degrade(ctx, in, rec, reason(err))
}

func (c *Controller) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retry.InitialInterval
	b.MaxInterval = c.retry.MaxInterval
	b.Multiplier = c.retry.Multiplier
	return b
}

// runSafely turns a strategy panic into an error.
func (c *Controller) runSafely(ctx context.Context, s agent.Strategy, in agent.Input, sink agent.Sink) (out agent.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("Strategy panicked", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()
	return s.Run(ctx, in, sink)
}

var errPanic = errors.New("strategy panic")

// degrade answers from the heuristic parser. When the parsed filter matches
// nothing, facet groups are dropped until something does.
func (c *Controller) degrade(ctx context.Context, in agent.Input, rec *recorder, why string) (event.Event, error) {
	log := logger.FromContext(ctx)
	transition(statePrimary, stateDegraded, why)
	start := time.Now()

	f := c.parser.Parse(in.Text)
	entry := trace.Entry{
		Tool:            trace.ToolHeuristicSearch,
		InputParameters: map[string]any{"text": in.Text, "fallback_reason": why},
		ProcessingSteps: []string{fmt.Sprintf("parse text: %d facets", f.FacetCount())},
	}

	results, used, dropped, err := c.search(ctx, f)
	entry.DurationMS = trace.Since(start)
	spec := used.Spec()
	entry.SearchFilters = &spec
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		entry.Errors = []string{"search failed"}
		code := event.CodeSearchFailed
		if domain.IsDataset(err) {
			entry.Errors = []string{domain.ErrDatasetUnavailable.Error()}
			code = event.CodeDatasetUnavailable
		}
		if serr := rec.Trace(ctx, entry); serr != nil {
			return nil, serr
		}
		transition(stateDegraded, stateFailed, "dataset")
		log.Error("Degraded search failed", zap.Error(err), zap.String("state", stateFailed))
		return event.NewError(code), nil
	}

	entry.Success = true
	entry.ResultCount = len(results)
	for _, d := range dropped {
		entry.ProcessingSteps = append(entry.ProcessingSteps, "relax: drop "+d)
	}
	entry.ProcessingSteps = append(entry.ProcessingSteps, fmt.Sprintf("found %d trails", len(results)))
	if serr := rec.Trace(ctx, entry); serr != nil {
		return nil, serr
	}

	log.Info("Served degraded results", zap.String("state", stateDegraded), zap.Int("results", len(results)))
	return event.Done{
		Results:  results,
		Filters:  spec,
		Trace:    rec.log.Entries(),
		Degraded: true,
		Message:  degradedMessage(results, dropped),
	}, nil
}

// search runs f and, when it matches nothing, successively relaxed filters.
func (c *Controller) search(ctx context.Context, f filter.Filter) ([]result.Result, filter.Filter, []string, error) {
	results, err := c.run(ctx, f)
	if err != nil || len(results) > 0 {
		return results, f, nil, err
	}
	var dropped []string
	for _, r := range search.Relax(f) {
		dropped = append(dropped, r.Dropped)
		results, err = c.run(ctx, r.Filter)
		if err != nil || len(results) > 0 {
			return results, r.Filter, dropped, err
		}
	}
	return results, f, nil, nil
}

func (c *Controller) run(ctx context.Context, f filter.Filter) ([]result.Result, error) {
	req, err := request.New(f, "", c.limit)
	if err != nil {
		return nil, err
	}
	return c.searcher.Search(ctx, req)
}

func degradedMessage(results []result.Result, dropped []string) string {
	const base = "The assistant is unavailable, so these results come from a simpler keyword search."
	switch {
	case len(results) == 0:
		return base + " No trails matched."
	case len(dropped) > 0:
		return fmt.Sprintf("%s Nothing matched every criterion, so some were relaxed: %s.", base, strings.Join(dropped, ", "))
	}
	return base
}

func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrLLMTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrMalformedToolArgs):
		return "malformed_tool_args"
	case errors.Is(err, domain.ErrLLMUnavailable):
		return "llm_unavailable"
	case errors.Is(err, errPanic):
		return "panic"
	}
	return "error"
}

func transition(from, to, why string) {
	metrics.FallbackTransitionsTotal.WithLabelValues(from, to, why).Inc()
}

// recorder forwards to the caller's sink while keeping the trace log and
// counting what was emitted.
type recorder struct {
	sink    agent.Sink
	log     trace.Log
	emitted int
	err     error
}

func (r *recorder) Token(ctx context.Context, content string) error {
	if err := r.sink.Token(ctx, content); err != nil {
		r.err = err
		return err
	}
	r.emitted++
	return nil
}

func (r *recorder) Trace(ctx context.Context, e trace.Entry) error {
	if err := r.sink.Trace(ctx, e); err != nil {
		r.err = err
		return err
	}
	r.log.Append(e)
	r.emitted++
	return nil
}
