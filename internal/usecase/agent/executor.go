package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/domain/llm"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/parser"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/request"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/result"
	"github.com/kailas-cloud/trailsearch/internal/domain/tool"
	"github.com/kailas-cloud/trailsearch/internal/domain/trace"
	"github.com/kailas-cloud/trailsearch/internal/metrics"
	"github.com/kailas-cloud/trailsearch/internal/usecase/search"
)

// executor runs search_trails calls on behalf of a strategy. The dataset is
// touched only inside execute.
type executor struct {
	searcher Searcher
	parser   *parser.Parser
	limit    int
	strategy mode.Mode
}

// execution is the outcome of one tool call.
type execution struct {
	filter  filter.Filter
	results []result.Result
	entry   trace.Entry
	reply   string
}

// adjuster rewrites decoded arguments before they are resolved and returns
// the processing steps it performed.
type adjuster func(args *tool.Arguments) []string

// execute decodes, repairs and runs a tool call. The returned entry is
// always populated, including on failure.
func (x *executor) execute(ctx context.Context, call llm.ToolCall, userText string, adjust adjuster) (execution, error) {
	start := time.Now()
	entry := trace.Entry{Tool: tool.Name, AI: true}

	args, err := tool.Decode(call.Name, call.Arguments)
	if err != nil {
		entry.DurationMS = trace.Since(start)
		entry.Errors = []string{domain.ErrMalformedToolArgs.Error()}
		entry.ProcessingSteps = []string{"decode arguments"}
		x.count("malformed")
		return execution{entry: entry}, err
	}
	entry.InputParameters = args.Map()
	entry.Confidence = confidence(args)
	entry.ProcessingSteps = append(entry.ProcessingSteps, "decode arguments")

	if adjust != nil {
		entry.ProcessingSteps = append(entry.ProcessingSteps, adjust(&args)...)
	}

	f, repairs := args.Filter(x.parser, userText)
	for _, r := range repairs {
		entry.Errors = append(entry.Errors, r.String())
	}
	spec := f.Spec()
	entry.SearchFilters = &spec
	entry.ProcessingSteps = append(entry.ProcessingSteps, fmt.Sprintf("resolve filter: %d facets", f.FacetCount()))

	req, err := request.New(f, args.Query, args.LimitOr(x.limit))
	if err != nil {
		// Over-long query text is dropped rather than failing the call.
		entry.Errors = append(entry.Errors, "query: "+err.Error())
		req, _ = request.New(f, "", args.LimitOr(x.limit))
	}

	results, err := x.searcher.Search(ctx, req)
	entry.DurationMS = trace.Since(start)
	if err != nil {
		entry.Errors = append(entry.Errors, sanitize(err))
		entry.ProcessingSteps = append(entry.ProcessingSteps, "search failed")
		x.count("error")
		return execution{filter: f, entry: entry}, fmt.Errorf("search trails: %w", err)
	}

	entry.Success = true
	entry.ResultCount = len(results)
	entry.ProcessingSteps = append(entry.ProcessingSteps, fmt.Sprintf("found %d trails", len(results)))
	x.count("success")

	return execution{
		filter:  f,
		results: results,
		entry:   entry,
		reply:   reply(f, results, repairs),
	}, nil
}

func (x *executor) count(status string) {
	metrics.ToolCallsTotal.WithLabelValues(string(x.strategy), status).Inc()
}

// sanitize keeps internal error detail out of trace entries.
func sanitize(err error) string {
	switch {
	case errors.Is(err, domain.ErrPoolExhausted):
		return domain.ErrPoolExhausted.Error()
	case errors.Is(err, domain.ErrDatasetUnavailable):
		return domain.ErrDatasetUnavailable.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "search failed"
}

// confidence averages per-facet extraction confidence; 0.5 when the model
// extracted nothing.
func confidence(a tool.Arguments) *float64 {
	var factors []float64
	add := func(ok bool, v float64) {
		if ok {
			factors = append(factors, v)
		}
	}
	add(a.Location != "", 0.9)
	add(a.Difficulty != "", 0.8)
	add(a.DistanceCapMiles != nil, 0.9)
	add(a.DistanceMinMiles != nil, 0.9)
	add(a.DogsAllowed != nil, 0.85)
	add(a.RouteType != "", 0.7)
	add(len(a.Features) > 0, 0.75)
	add(a.RadiusMiles != nil, 0.8)

	c := 0.5
	if len(factors) > 0 {
		sum := 0.0
		for _, f := range factors {
			sum += f
		}
		c = sum / float64(len(factors))
	}
	return &c
}

type replyTrail struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	DistanceMiles float64  `json:"distance_miles"`
	Difficulty    string   `json:"difficulty"`
	RouteType     string   `json:"route_type"`
	Features      []string `json:"features,omitempty"`
	City          string   `json:"city,omitempty"`
	State         string   `json:"state,omitempty"`
	Why           string   `json:"why"`
}

type replyBody struct {
	Count       int          `json:"count"`
	Trails      []replyTrail `json:"trails"`
	Repairs     []string     `json:"repairs,omitempty"`
	Suggestions []string     `json:"suggestions,omitempty"`
}

// reply renders the tool result fed back to the model.
func reply(f filter.Filter, results []result.Result, repairs []filter.Repair) string {
	body := replyBody{Count: len(results), Trails: make([]replyTrail, 0, len(results))}
	for _, r := range results {
		t := r.Trail()
		body.Trails = append(body.Trails, replyTrail{
			ID:            t.ID,
			Name:          t.Name,
			DistanceMiles: float64(int(t.DistanceMiles()*10+0.5)) / 10,
			Difficulty:    string(t.Difficulty),
			RouteType:     string(t.RouteType),
			Features:      t.Features,
			City:          t.City,
			State:         t.State,
			Why:           r.Why(),
		})
	}
	for _, r := range repairs {
		body.Repairs = append(body.Repairs, r.String())
	}
	if len(results) == 0 {
		body.Suggestions = search.Suggestions(f)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return `{"count":0,"trails":[]}`
	}
	return string(data)
}
