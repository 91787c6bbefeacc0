// Package agent drives an LLM through the search_trails tool protocol.
package agent

import (
	"context"

	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/request"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/result"
)

// Defaults for Config.
const (
	DefaultMaxToolRounds     = 3
	DefaultMaxTokens         = 1000
	DefaultTemperature       = 0.3
	DefaultNearRadiusMiles   = 75
	DefaultEasyElevationCapM = 200
)

// Input is one user request.
type Input struct {
	RequestID string
	Text      string
}

// Outcome is the result of a completed strategy run.
// Filters is empty when the model answered without calling the tool.
type Outcome struct {
	Results []result.Result
	Filters filter.Spec
	Message string
}

// Strategy is one way of reasoning about a request. Implementations stream
// narrative and trace entries into the sink and return the final outcome.
type Strategy interface {
	Name() mode.Mode
	Run(ctx context.Context, in Input, sink Sink) (Outcome, error)
}

// Config tunes both strategies.
type Config struct {
	// MaxToolRounds bounds tool round-trips per request. After the last
	// round the model is asked to answer without tools.
	MaxToolRounds int
	MaxTokens     int
	Temperature   float32
	// ResultLimit is used when the model does not pass a limit.
	ResultLimit int

	// Reasoning strategy smart defaults.
	NearRadiusMiles   float64
	EasyElevationCapM float64
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = DefaultMaxToolRounds
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.ResultLimit <= 0 {
		c.ResultLimit = request.DefaultLimit
	}
	if c.NearRadiusMiles <= 0 {
		c.NearRadiusMiles = DefaultNearRadiusMiles
	}
	if c.EasyElevationCapM <= 0 {
		c.EasyElevationCapM = DefaultEasyElevationCapM
	}
}
