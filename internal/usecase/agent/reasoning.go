package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trailsearch/internal/domain/llm"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/parser"
	"github.com/kailas-cloud/trailsearch/internal/domain/tool"
	"github.com/kailas-cloud/trailsearch/internal/domain/trace"
	"github.com/kailas-cloud/trailsearch/internal/logger"
)

var (
	reShort = regexp.MustCompile(`\b(short|quick)\b`)
	reNear  = regexp.MustCompile(`\b(near|around|close to)\b`)
)

// Reasoning runs a plan, act, observe, answer loop. A per-request
// scratchpad collects the plan and every observation and is rendered into
// the system message of each turn. Tool arguments get smart defaults for
// facets the model left unset.
type Reasoning struct {
	client llm.Client
	exec   *executor
	parser *parser.Parser
	cfg    Config
	tool   llm.ToolSpec
}

// NewReasoning creates the reasoning strategy.
func NewReasoning(client llm.Client, searcher Searcher, p *parser.Parser, cfg Config) (*Reasoning, error) {
	cfg.ApplyDefaults()
	spec, err := tool.Spec()
	if err != nil {
		return nil, err
	}
	return &Reasoning{
		client: client,
		exec:   &executor{searcher: searcher, parser: p, limit: cfg.ResultLimit, strategy: mode.Reasoning},
		parser: p,
		cfg:    cfg,
		tool:   spec,
	}, nil
}

// Name implements Strategy.
func (r *Reasoning) Name() mode.Mode { return mode.Reasoning }

// scratchpad is the working memory of one request.
type scratchpad struct {
	notes []string
}

func (s *scratchpad) add(kind, note string) {
	s.notes = append(s.notes, kind+": "+note)
}

func (s *scratchpad) render() string {
	if len(s.notes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nNotes:\n")
	for _, n := range s.notes {
		b.WriteString("- ")
		b.WriteString(n)
		b.WriteString("\n")
	}
	return b.String()
}

// Run implements Strategy.
func (r *Reasoning) Run(ctx context.Context, in Input, sink Sink) (Outcome, error) {
	log := logger.FromContext(ctx)
	pad := &scratchpad{}
	planEntry := r.plan(in.Text, pad)

	// The plan is emitted once the first completion is open so that a
	// failure to reach the model leaves the stream untouched.
	planned := false
	emitPlan := func() error {
		if planned {
			return nil
		}
		planned = true
		return sink.Trace(ctx, planEntry)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem},
		{Role: llm.RoleUser, Content: in.Text},
	}

	var out Outcome
	for round := 0; ; round++ {
		messages[0].Content = reasoningPrompt + pad.render()
		req := llm.Request{
			Messages:    messages,
			MaxTokens:   r.cfg.MaxTokens,
			Temperature: r.cfg.Temperature,
		}
		if round < r.cfg.MaxToolRounds {
			req.Tools = []llm.ToolSpec{r.tool}
		}

		acc, err := streamTurn(ctx, r.client, req, sink, emitPlan)
		if err != nil {
			return out, err
		}
		calls := acc.ToolCalls()
		if len(calls) == 0 {
			return out, nil
		}
		if req.Tools == nil {
			log.Warn("Model requested a tool after the round limit",
				zap.Int("rounds", round), zap.Int("calls", len(calls)))
			return out, nil
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: acc.Text(), ToolCalls: calls})
		for _, call := range calls {
			pad.add("Action", "search_trails "+call.Arguments)

			ex, err := r.exec.execute(ctx, call, in.Text, r.smartDefaults(in.Text))
			if serr := sink.Trace(ctx, ex.entry); serr != nil {
				return out, serr
			}
			if err != nil {
				return out, fmt.Errorf("round %d: %w", round+1, err)
			}
			out.Results, out.Filters, out.Message = ex.results, ex.filter.Spec(), ""
			if len(ex.results) == 0 {
				out.Message = noResultsMessage(ex.filter)
			}

			obs := observe(ex)
			pad.add("Observation", obs)
			if serr := sink.Trace(ctx, trace.Entry{
				Tool:            trace.ToolReasoning,
				ResultCount:     len(ex.results),
				Success:         true,
				AI:              true,
				Reasoning:       obs,
				ProcessingSteps: []string{"observe search result"},
			}); serr != nil {
				return out, serr
			}
			messages = append(messages, llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Content: ex.reply})
		}
	}
}

// plan analyzes the request locally and records the findings.
func (r *Reasoning) plan(text string, pad *scratchpad) trace.Entry {
	start := time.Now()
	lower := strings.ToLower(text)
	hints := r.parser.Extract(text)

	var notes []string
	if ref, ok := r.parser.Locality(text); ok {
		if reNear.MatchString(lower) {
			notes = append(notes, fmt.Sprintf("location: %s area, widen radius to %.0f mi", ref.Name, r.cfg.NearRadiusMiles))
		} else {
			notes = append(notes, fmt.Sprintf("location: %s area, radius %.1f mi", ref.Name, ref.RadiusMiles))
		}
	}
	if hints.State != "" {
		notes = append(notes, "state: "+hints.State)
	}
	if reShort.MatchString(lower) && hints.DistanceCapMiles != nil {
		notes = append(notes, fmt.Sprintf("short trail: cap %.0f mi", *hints.DistanceCapMiles))
	}
	if hints.Difficulty == "easy" {
		notes = append(notes, fmt.Sprintf("easy: cap elevation gain at %.0f m", r.cfg.EasyElevationCapM))
	}
	if hints.DogsAllowed != nil {
		if *hints.DogsAllowed {
			notes = append(notes, "dogs: must be allowed")
		} else {
			notes = append(notes, "dogs: must not be allowed")
		}
	}
	if len(hints.Features) > 0 {
		notes = append(notes, "features: "+strings.Join(hints.Features, ", "))
	}
	if len(notes) == 0 {
		notes = append(notes, "no explicit criteria detected, rely on the model's reading")
	}
	for _, n := range notes {
		pad.add("Plan", n)
	}

	return trace.Entry{
		Tool:            trace.ToolReasoning,
		DurationMS:      trace.Since(start),
		Success:         true,
		AI:              true,
		Reasoning:       fmt.Sprintf("Query analysis: %q\n%s", text, strings.Join(notes, "\n")),
		ProcessingSteps: []string{"analyze request", "plan search_trails call"},
	}
}

// smartDefaults fills facets the model left unset from cues in the text.
func (r *Reasoning) smartDefaults(text string) adjuster {
	lower := strings.ToLower(text)
	hints := r.parser.Extract(text)

	return func(a *tool.Arguments) []string {
		var steps []string
		if a.DistanceCapMiles == nil && a.DistanceMinMiles == nil && reShort.MatchString(lower) {
			a.DistanceCapMiles = filter.Float(parser.ShortDistanceMiles)
			steps = append(steps, fmt.Sprintf("default: short trail, cap %.0f mi", parser.ShortDistanceMiles))
		}
		if a.ElevationCapMeters == nil && (strings.EqualFold(a.Difficulty, "easy") || (a.Difficulty == "" && hints.Difficulty == "easy")) {
			a.ElevationCapMeters = filter.Float(r.cfg.EasyElevationCapM)
			steps = append(steps, fmt.Sprintf("default: easy trail, elevation cap %.0f m", r.cfg.EasyElevationCapM))
		}
		if a.State == "" && a.Location != "" {
			if st := r.parser.Extract(a.Location).State; st != "" {
				a.State = st
				steps = append(steps, fmt.Sprintf("default: location %q mapped to state", a.Location))
			}
		}
		if a.State == "" && hints.State != "" {
			a.State = hints.State
			steps = append(steps, "default: state "+hints.State)
		}
		if a.RadiusMiles == nil && reNear.MatchString(lower) {
			ref, ok := r.parser.Locality(a.Location)
			if !ok {
				ref, ok = r.parser.Locality(text)
			}
			if ok {
				a.RadiusMiles = filter.Float(r.cfg.NearRadiusMiles)
				a.CenterLat = filter.Float(ref.Center.Lat)
				a.CenterLng = filter.Float(ref.Center.Lng)
				steps = append(steps, fmt.Sprintf("default: near %s, radius %.0f mi", ref.Name, r.cfg.NearRadiusMiles))
			}
		}
		return steps
	}
}

// observe summarizes a tool result for the scratchpad.
func observe(ex execution) string {
	if len(ex.results) == 0 {
		return "no trails matched; " + noResultsMessage(ex.filter)
	}
	names := make([]string, 0, 3)
	for i, res := range ex.results {
		if i == 3 {
			break
		}
		names = append(names, res.Trail().Name)
	}
	return fmt.Sprintf("%d trails matched; top: %s", len(ex.results), strings.Join(names, ", "))
}
