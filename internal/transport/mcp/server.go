// Package mcp exposes the search engine as Model Context Protocol tools so
// external assistants can query trails without going through a strategy.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/domain/event"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/parser"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/request"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/result"
	"github.com/kailas-cloud/trailsearch/internal/domain/tool"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
	"github.com/kailas-cloud/trailsearch/internal/version"
)

const getTrailTool = "get_trail"

// Engine is the search engine surface the MCP tools use.
type Engine interface {
	Search(ctx context.Context, req request.Request) ([]result.Result, error)
	Get(ctx context.Context, id int64) (trail.Trail, error)
}

// SearchResponse is the search_trails tool result.
type SearchResponse struct {
	Filters filter.Spec       `json:"filters"`
	Repairs []string          `json:"repairs,omitempty"`
	Count   int               `json:"count"`
	Trails  []event.TrailView `json:"trails"`
}

// Server wraps an MCPServer with the trail tools registered.
type Server struct {
	engine    Engine
	parser    *parser.Parser
	mcpServer *server.MCPServer
	logger    *zap.Logger
}

// NewServer creates an MCP server exposing search_trails and get_trail.
func NewServer(engine Engine, p *parser.Parser, logger *zap.Logger) (*Server, error) {
	s := &Server{
		engine:    engine,
		parser:    p,
		mcpServer: server.NewMCPServer("trailsearch", version.Version, server.WithToolCapabilities(false)),
		logger:    logger,
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	return s, nil
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() error {
	schema, err := tool.Schema()
	if err != nil {
		return fmt.Errorf("generate %s schema: %w", tool.Name, err)
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encode %s schema: %w", tool.Name, err)
	}
	s.mcpServer.AddTool(mcp.NewToolWithRawSchema(tool.Name, tool.Description, raw), s.handleSearch)

	s.mcpServer.AddTool(mcp.NewTool(getTrailTool,
		mcp.WithDescription("Get the full record of a trail by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Trail id")),
	), s.handleGet)
	return nil
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := tool.DecodeMap(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}

	f, repairs := args.Filter(s.parser, "")
	sr, err := request.New(f, args.Query, args.LimitOr(request.DefaultLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := s.engine.Search(ctx, sr)
	if err != nil {
		s.logger.Error("MCP search failed", zap.Error(err))
		return mcp.NewToolResultError(toolError(err)), nil
	}

	resp := SearchResponse{
		Filters: f.Spec(),
		Count:   len(results),
		Trails:  event.Views(results),
	}
	for _, r := range repairs {
		resp.Repairs = append(resp.Repairs, r.String())
	}
	return jsonResult(resp)
}

func (s *Server) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64(req.GetFloat("id", 0))
	if id <= 0 {
		return mcp.NewToolResultError("id must be a positive integer"), nil
	}
	t, err := s.engine.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("MCP get trail failed", zap.Int64("id", id), zap.Error(err))
		}
		return mcp.NewToolResultError(toolError(err)), nil
	}
	return jsonResult(t)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError maps errors to messages safe to show a client.
func toolError(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "trail not found"
	case errors.Is(err, domain.ErrPoolExhausted):
		return "dataset busy, retry later"
	case errors.Is(err, domain.ErrDatasetUnavailable):
		return "dataset unavailable"
	case errors.Is(err, domain.ErrInvalidQuery):
		return err.Error()
	}
	return "search failed"
}
