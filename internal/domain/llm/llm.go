package llm

import (
	"context"
	"sort"
	"strings"
)

// Role is the author of a chat message.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a complete function call requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one turn of a chat exchange.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolSpec declares a callable function. Parameters is a JSON-schema value.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  any
}

// Request is a streamed completion request.
type Request struct {
	Messages    []Message
	Tools       []ToolSpec
	MaxTokens   int
	Temperature float32
}

// ToolCallDelta is a fragment of a tool call. Fragments with the same Index
// belong to the same call; Arguments arrive in pieces.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// Chunk is one streamed fragment of a completion.
type Chunk struct {
	Content      string
	ToolCalls    []ToolCallDelta
	FinishReason string
}

// Stream yields chunks until Recv returns io.EOF.
type Stream interface {
	Recv() (Chunk, error)
	Close() error
}

// Client opens streamed completions. Implementations map provider failures
// onto domain sentinel errors (rate limit, timeout, unavailable).
type Client interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Accumulator merges tool call deltas by index.
type Accumulator struct {
	calls map[int]*ToolCall
	text  strings.Builder
}

// Add folds a chunk into the accumulator.
func (a *Accumulator) Add(c Chunk) {
	a.text.WriteString(c.Content)
	for _, d := range c.ToolCalls {
		if a.calls == nil {
			a.calls = make(map[int]*ToolCall)
		}
		call, ok := a.calls[d.Index]
		if !ok {
			call = &ToolCall{}
			a.calls[d.Index] = call
		}
		if d.ID != "" {
			call.ID = d.ID
		}
		if d.Name != "" {
			call.Name = d.Name
		}
		call.Arguments += d.Arguments
	}
}

// Text returns the accumulated narrative.
func (a *Accumulator) Text() string { return a.text.String() }

// ToolCalls returns the assembled calls ordered by index.
func (a *Accumulator) ToolCalls() []ToolCall {
	if len(a.calls) == 0 {
		return nil
	}
	idx := make([]int, 0, len(a.calls))
	for i := range a.calls {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]ToolCall, 0, len(idx))
	for _, i := range idx {
		out = append(out, *a.calls[i])
	}
	return out
}
