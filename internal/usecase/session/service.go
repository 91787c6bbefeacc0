// Package session turns one search request into an ordered event stream.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/domain/event"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/domain/trace"
	"github.com/kailas-cloud/trailsearch/internal/logger"
	"github.com/kailas-cloud/trailsearch/internal/metrics"
	"github.com/kailas-cloud/trailsearch/internal/usecase/agent"
)

// MaxTextRunes bounds the request text.
const MaxTextRunes = 1000

// Service validates requests and runs them on their own goroutine.
type Service struct {
	runner Runner
	def    mode.Mode
}

// New creates a session service.
func New(r Runner) *Service {
	return &Service{runner: r, def: mode.Default}
}

// WithDefaultStrategy sets the strategy used when a request names none.
func (s *Service) WithDefaultStrategy(m mode.Mode) *Service {
	if m.IsValid() {
		s.def = m
	}
	return s
}

// DefaultStrategy returns the strategy used when a request names none.
func (s *Service) DefaultStrategy() mode.Mode { return s.def }

// Stream is the ordered output of one request: exactly one Start, any
// number of Token and ToolTrace events, then exactly one Done or Error.
// When ctx is canceled the channel closes without a terminal event.
type Stream struct {
	ID       string
	Strategy mode.Mode

	events chan event.Event
	err    error
}

// Events returns the unbuffered event channel. It is closed after the
// terminal event or on cancellation.
func (s *Stream) Events() <-chan event.Event { return s.events }

// Err reports why the stream ended early. It is valid once Events is closed
// and nil when a terminal event was delivered.
func (s *Stream) Err() error { return s.err }

// ValidateText trims text and checks it is non-empty and within MaxTextRunes.
func ValidateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewValidationError("text", "must not be empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxTextRunes {
		return "", domain.NewValidationError("text", fmt.Sprintf("is %d characters, max %d", n, MaxTextRunes))
	}
	return text, nil
}

// Submit validates the request and starts it. Invalid input returns an
// error wrapping domain.ErrInvalidQuery and no stream.
func (s *Service) Submit(ctx context.Context, text, strategy string) (*Stream, error) {
	text, err := ValidateText(text)
	if err != nil {
		return nil, err
	}
	m, ok := s.def, true
	if strings.TrimSpace(strategy) != "" {
		m, ok = mode.Parse(strategy)
	}
	if !ok {
		return nil, domain.NewValidationError("strategy", fmt.Sprintf("unknown strategy %q", strategy))
	}

	st := &Stream{
		ID:       ulid.Make().String(),
		Strategy: m,
		events:   make(chan event.Event),
	}
	go s.run(ctx, st, text)
	return st, nil
}

func (s *Service) run(ctx context.Context, st *Stream, text string) {
	defer close(st.events)
	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	ctx, log := logger.WithSearch(ctx, st.ID, string(st.Strategy))
	start := time.Now()
	sink := &chanSink{ch: st.events}

	outcome := "canceled"
	defer func() {
		metrics.SearchesTotal.WithLabelValues(string(st.Strategy), outcome).Inc()
		metrics.SearchDuration.WithLabelValues(string(st.Strategy)).Observe(time.Since(start).Seconds())
		log.Info("Search finished", zap.String("outcome", outcome), zap.Duration("duration", time.Since(start)))
	}()

	if err := sink.send(ctx, event.Start{RequestID: st.ID, Strategy: st.Strategy}); err != nil {
		st.err = err
		return
	}

	term, err := s.runner.Run(ctx, st.Strategy, agent.Input{RequestID: st.ID, Text: text}, sink)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			st.err = err
			return
		}
		log.Error("Runner failed", zap.Error(err))
		term = event.NewError(event.CodeInternal)
	}

	if err := sink.send(ctx, term); err != nil {
		st.err = err
		return
	}

	switch t := term.(type) {
	case event.Done:
		outcome = "done"
		if t.Degraded {
			outcome = "degraded"
		}
		metrics.SearchResults.Observe(float64(len(t.Results)))
	default:
		outcome = "error"
	}
}

// chanSink delivers events to the stream consumer, giving up when the
// request is canceled.
type chanSink struct {
	ch chan<- event.Event
}

func (s *chanSink) send(ctx context.Context, e event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *chanSink) Token(ctx context.Context, content string) error {
	return s.send(ctx, event.Token{Content: content})
}

func (s *chanSink) Trace(ctx context.Context, e trace.Entry) error {
	return s.send(ctx, event.ToolTrace{Entry: e})
}
