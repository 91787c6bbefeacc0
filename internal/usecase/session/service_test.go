package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/domain/event"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/domain/trace"
	"github.com/kailas-cloud/trailsearch/internal/usecase/agent"
)

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		strategy string
		field    string
	}{
		{"empty", "", "direct", "text"},
		{"whitespace only", " \t\n ", "direct", "text"},
		{"too long", strings.Repeat("é", MaxTextRunes+1), "direct", "text"},
		{"unknown strategy", "easy loop", "react", "strategy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{}
			st, err := New(runner).Submit(context.Background(), tt.text, tt.strategy)
			if st != nil {
				t.Fatal("expected no stream")
			}
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Fatalf("error = %v, want ErrInvalidQuery", err)
			}
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("field = %v, want %q", ve, tt.field)
			}
		})
	}
}

func TestSubmit_DefaultStrategy(t *testing.T) {
	tests := []struct {
		name     string
		def      mode.Mode
		strategy string
		want     mode.Mode
	}{
		{"built-in", "", "", mode.Direct},
		{"configured", mode.Reasoning, "", mode.Reasoning},
		{"explicit wins", mode.Reasoning, "A", mode.Direct},
		{"invalid default ignored", "deep", "  ", mode.Direct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{}
			svc := New(runner).WithDefaultStrategy(tt.def)
			st, err := svc.Submit(context.Background(), "easy loop", tt.strategy)
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			drain(st)
			if runner.gotMode != tt.want || st.Strategy != tt.want {
				t.Errorf("mode = %q, want %q", runner.gotMode, tt.want)
			}
		})
	}
}

func TestSubmit_AcceptsMaxLengthAndAliases(t *testing.T) {
	runner := &mockRunner{}
	st, err := New(runner).Submit(context.Background(), "  "+strings.Repeat("é", MaxTextRunes)+"  ", "B")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	drain(st)
	if runner.gotMode != mode.Reasoning {
		t.Errorf("mode = %q, want reasoning", runner.gotMode)
	}
	if strings.HasPrefix(runner.gotInput.Text, " ") {
		t.Error("text must be trimmed")
	}
}

func TestSubmit_EventOrder(t *testing.T) {
	runner := &mockRunner{runFn: func(ctx context.Context, _ mode.Mode, _ agent.Input, sink agent.Sink) (event.Event, error) {
		if err := sink.Token(ctx, "Here"); err != nil {
			return nil, err
		}
		if err := sink.Trace(ctx, trace.Entry{Tool: trace.ToolSearchTrails}); err != nil {
			return nil, err
		}
		if err := sink.Token(ctx, " you go"); err != nil {
			return nil, err
		}
		return event.Done{Message: "ok"}, nil
	}}

	st, err := New(runner).Submit(context.Background(), "easy loop", "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	events := drain(st)

	want := []event.Type{event.TypeStart, event.TypeToken, event.TypeToolTrace, event.TypeToken, event.TypeDone}
	got := types(events)
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	start := events[0].(event.Start)
	if len(start.RequestID) != 26 || start.RequestID != st.ID || start.Strategy != mode.Direct {
		t.Errorf("start = %+v", start)
	}
	if runner.gotInput.RequestID != st.ID {
		t.Errorf("runner request id = %q", runner.gotInput.RequestID)
	}
	if st.Err() != nil {
		t.Errorf("Err() = %v", st.Err())
	}
}

func TestSubmit_UniqueIDs(t *testing.T) {
	svc := New(&mockRunner{})
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		st, err := svc.Submit(context.Background(), "loop", "")
		if err != nil {
			t.Fatal(err)
		}
		drain(st)
		if seen[st.ID] {
			t.Fatalf("duplicate id %s", st.ID)
		}
		seen[st.ID] = true
	}
}

func TestSubmit_ErrorTerminal(t *testing.T) {
	runner := &mockRunner{runFn: func(context.Context, mode.Mode, agent.Input, agent.Sink) (event.Event, error) {
		return event.NewError(event.CodeDatasetUnavailable), nil
	}}
	st, _ := New(runner).Submit(context.Background(), "loop", "")
	events := drain(st)
	if len(events) != 2 || events[1].Type() != event.TypeError {
		t.Fatalf("events = %v", types(events))
	}
}

func TestSubmit_RunnerFailureBecomesInternalError(t *testing.T) {
	runner := &mockRunner{runFn: func(context.Context, mode.Mode, agent.Input, agent.Sink) (event.Event, error) {
		return nil, errors.New("unexpected")
	}}
	st, _ := New(runner).Submit(context.Background(), "loop", "")
	events := drain(st)
	if len(events) != 2 {
		t.Fatalf("events = %v", types(events))
	}
	if e, ok := events[1].(event.Error); !ok || e.Code != event.CodeInternal {
		t.Errorf("terminal = %#v", events[1])
	}
}

func TestSubmit_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &mockRunner{runFn: func(ctx context.Context, _ mode.Mode, _ agent.Input, sink agent.Sink) (event.Event, error) {
		for {
			if err := sink.Token(ctx, "tok"); err != nil {
				return nil, err
			}
		}
	}}
	st, err := New(runner).Submit(ctx, "loop", "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if e := <-st.Events(); e.Type() != event.TypeStart {
		t.Fatalf("first event = %s", e.Type())
	}
	if e := <-st.Events(); e.Type() != event.TypeToken {
		t.Fatalf("second event = %s", e.Type())
	}
	cancel()

	for e := range st.Events() {
		if event.IsTerminal(e) {
			t.Fatalf("terminal event after cancel: %s", e.Type())
		}
	}
	if !errors.Is(st.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", st.Err())
	}
}
