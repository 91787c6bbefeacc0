package session

import (
	"context"

	"github.com/kailas-cloud/trailsearch/internal/domain/event"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/usecase/agent"
)

// Runner produces the terminal event of a request (ISP: only Run is needed).
// It returns an error only when the request was abandoned.
type Runner interface {
	Run(ctx context.Context, m mode.Mode, in agent.Input, sink agent.Sink) (event.Event, error)
}
