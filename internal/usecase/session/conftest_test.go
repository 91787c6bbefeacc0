package session

import (
	"context"

	"github.com/kailas-cloud/trailsearch/internal/domain/event"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/usecase/agent"
)

// --- Mocks ---

type mockRunner struct {
	runFn func(ctx context.Context, m mode.Mode, in agent.Input, sink agent.Sink) (event.Event, error)

	gotMode  mode.Mode
	gotInput agent.Input
}

func (m *mockRunner) Run(ctx context.Context, md mode.Mode, in agent.Input, sink agent.Sink) (event.Event, error) {
	m.gotMode, m.gotInput = md, in
	if m.runFn != nil {
		return m.runFn(ctx, md, in, sink)
	}
	return event.Done{}, nil
}

// drain collects every event until the channel closes.
func drain(st *Stream) []event.Event {
	var out []event.Event
	for e := range st.Events() {
		out = append(out, e)
	}
	return out
}

func types(events []event.Event) []event.Type {
	out := make([]event.Type, len(events))
	for i, e := range events {
		out[i] = e.Type()
	}
	return out
}
