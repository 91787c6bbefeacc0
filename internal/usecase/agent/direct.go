package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trailsearch/internal/domain/llm"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/parser"
	"github.com/kailas-cloud/trailsearch/internal/domain/tool"
	"github.com/kailas-cloud/trailsearch/internal/logger"
)

// Direct is single-pass tool calling: the model sees the user text and the
// tool, calls it, and narrates the result.
type Direct struct {
	client llm.Client
	exec   *executor
	cfg    Config
	tool   llm.ToolSpec
}

// NewDirect creates the direct strategy.
func NewDirect(client llm.Client, searcher Searcher, p *parser.Parser, cfg Config) (*Direct, error) {
	cfg.ApplyDefaults()
	spec, err := tool.Spec()
	if err != nil {
		return nil, err
	}
	return &Direct{
		client: client,
		exec:   &executor{searcher: searcher, parser: p, limit: cfg.ResultLimit, strategy: mode.Direct},
		cfg:    cfg,
		tool:   spec,
	}, nil
}

// Name implements Strategy.
func (d *Direct) Name() mode.Mode { return mode.Direct }

// Run implements Strategy.
func (d *Direct) Run(ctx context.Context, in Input, sink Sink) (Outcome, error) {
	log := logger.FromContext(ctx)
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: directPrompt},
		{Role: llm.RoleUser, Content: in.Text},
	}

	var out Outcome
	for round := 0; ; round++ {
		req := llm.Request{
			Messages:    messages,
			MaxTokens:   d.cfg.MaxTokens,
			Temperature: d.cfg.Temperature,
		}
		if round < d.cfg.MaxToolRounds {
			req.Tools = []llm.ToolSpec{d.tool}
		}

		acc, err := streamTurn(ctx, d.client, req, sink, nil)
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
			ex, err := d.exec.execute(ctx, call, in.Text, nil)
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
			messages = append(messages, llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Content: ex.reply})
		}
	}
}
