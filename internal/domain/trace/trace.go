package trace

import (
	"time"

	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
)

// Tool names that appear in trace entries.
const (
	ToolSearchTrails    = "search_trails"
	ToolReasoning       = "reasoning"
	ToolHeuristicSearch = "heuristic_search"
)

// Entry records one tool invocation or reasoning step.
type Entry struct {
	Tool            string         `json:"tool"`
	DurationMS      int64          `json:"duration_ms"`
	ResultCount     int            `json:"result_count"`
	Success         bool           `json:"success"`
	AI              bool           `json:"ai"`
	InputParameters map[string]any `json:"input_parameters,omitempty"`
	SearchFilters   *filter.Spec   `json:"search_filters,omitempty"`
	Reasoning       string         `json:"reasoning,omitempty"`
	Errors          []string       `json:"errors,omitempty"`
	Confidence      *float64       `json:"confidence,omitempty"`
	ProcessingSteps []string       `json:"processing_steps,omitempty"`
}

// Since returns the elapsed milliseconds since start.
func Since(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// Log is an ordered, append-only sequence of trace entries for one request.
// It is not safe for concurrent use; each request owns its Log.
type Log struct {
	entries []Entry
}

// Append adds e to the end of the log. The caller must not mutate e's
// slices or maps after appending.
func (l *Log) Append(e Entry) {
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the recorded entries in order.
func (l *Log) Entries() []Entry {
	if len(l.entries) == 0 {
		return []Entry{}
	}
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int { return len(l.entries) }
