// Package nats serves streaming searches over NATS request subjects.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/logger"
	"github.com/kailas-cloud/trailsearch/internal/usecase/session"
)

// Defaults for Config.
const (
	DefaultSubject        = "trails.search"
	DefaultQueue          = "trailsearch"
	DefaultConcurrency    = 8
	DefaultRequestTimeout = 2 * time.Minute
)

// Config configures the NATS transport.
type Config struct {
	URL            string
	Subject        string
	Queue          string
	Concurrency    int
	RequestTimeout time.Duration
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Subject == "" {
		c.Subject = DefaultSubject
	}
	if c.Queue == "" {
		c.Queue = DefaultQueue
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Submitter starts streaming searches.
type Submitter interface {
	Submit(ctx context.Context, text, strategy string) (*session.Stream, error)
}

// publisher is the subset of *nats.Conn used to send replies.
type publisher interface {
	Publish(subject string, data []byte) error
}

// Request is the message payload. ReplyTo overrides the message's reply
// subject for clients that publish without request/reply.
type Request struct {
	Text     string `json:"text"`
	Strategy string `json:"strategy,omitempty"`
	ReplyTo  string `json:"reply_to,omitempty"`
}

// rejection is published when a request fails validation.
type rejection struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server consumes search requests from a queue group.
type Server struct {
	conn     *nats.Conn
	pub      publisher
	sessions Submitter
	cfg      Config
	sem      *semaphore.Weighted
	logger   *zap.Logger
}

// Connect opens a NATS connection with reconnects enabled.
func Connect(cfg Config, log *zap.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("trailsearch"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}

// NewServer creates a NATS server over an open connection.
func NewServer(conn *nats.Conn, sessions Submitter, cfg Config, log *zap.Logger) *Server {
	cfg.ApplyDefaults()
	return &Server{
		conn:     conn,
		pub:      conn,
		sessions: sessions,
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.Concurrency)),
		logger:   log,
	}
}

// Run subscribes and serves until ctx is canceled, then drains. Requests
// admitted before or during the drain run to completion, bounded by
// RequestTimeout; canceling ctx does not abort them.
func (s *Server) Run(ctx context.Context) error {
	base := context.WithoutCancel(ctx)
	sub, err := s.conn.QueueSubscribe(s.cfg.Subject, s.cfg.Queue, func(msg *nats.Msg) {
		s.handle(base, msg.Reply, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.cfg.Subject, err)
	}
	s.logger.Info("NATS transport started",
		zap.String("subject", s.cfg.Subject),
		zap.String("queue", s.cfg.Queue),
		zap.Int("concurrency", s.cfg.Concurrency))

	<-ctx.Done()
	s.logger.Info("NATS transport draining")
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("drain subscription: %w", err)
	}
	s.waitDrained(sub)
	s.wait()
	s.logger.Info("NATS transport stopped")
	return nil
}

// handle admits one message and serves it on its own goroutine. Admission
// blocks while every slot is busy, which applies backpressure to the
// subscription.
func (s *Server) handle(base context.Context, reply string, data []byte) {
	if err := s.sem.Acquire(base, 1); err != nil {
		s.logger.Warn("Dropping search request", zap.String("reply", reply), zap.Error(err))
		return
	}
	go func() {
		defer s.sem.Release(1)
		s.serve(base, reply, data)
	}()
}

// waitDrained blocks until the subscription has delivered its pending
// messages. Drain itself returns immediately.
func (s *Server) waitDrained(sub *nats.Subscription) {
	deadline := time.NewTimer(s.cfg.RequestTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for sub.IsValid() {
		select {
		case <-deadline.C:
			s.logger.Warn("Subscription drain timed out", zap.Duration("timeout", s.cfg.RequestTimeout))
			return
		case <-tick.C:
		}
	}
}

// wait blocks until no request is in flight.
func (s *Server) wait() {
	n := int64(s.cfg.Concurrency)
	_ = s.sem.Acquire(context.Background(), n)
	s.sem.Release(n)
}

// serve runs one request and publishes every event to the reply subject.
func (s *Server) serve(ctx context.Context, reply string, data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		s.reject(reply, "bad_request", "invalid request payload")
		return
	}
	if req.ReplyTo != "" {
		reply = req.ReplyTo
	}
	if reply == "" {
		s.logger.Warn("Dropping search request without reply subject")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	log := s.logger.With(zap.String("reply", reply))
	ctx = logger.ContextWithLogger(ctx, log)

	stream, err := s.sessions.Submit(ctx, req.Text, req.Strategy)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			s.reject(reply, "validation_failed", ve.Field+" "+ve.Reason)
			return
		}
		log.Error("Submit failed", zap.Error(err))
		s.reject(reply, "internal_error", "internal error")
		return
	}

	gone := false
	for e := range stream.Events() {
		if gone {
			continue
		}
		b, err := json.Marshal(e)
		if err != nil {
			log.Error("Encode event", zap.Error(err))
			continue
		}
		if err := s.pub.Publish(reply, b); err != nil {
			// The client is gone; stop the search.
			log.Warn("Publish failed", zap.Error(err), zap.String("event", string(e.Type())))
			gone = true
			cancel()
		}
	}
	if err := stream.Err(); err != nil {
		log.Info("Search ended early", zap.String("search_id", stream.ID), zap.Error(err))
	}
}

func (s *Server) reject(reply, code, message string) {
	if reply == "" {
		return
	}
	b, _ := json.Marshal(rejection{Type: "error", Code: code, Message: message})
	if err := s.pub.Publish(reply, b); err != nil {
		s.logger.Warn("Publish rejection failed", zap.Error(err))
	}
}
