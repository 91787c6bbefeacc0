package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/trailsearch/internal/domain/llm"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/usecase/search"
)

// streamTurn runs one completion, forwarding narrative chunks to the sink as
// they arrive. onOpen, if set, runs once the stream is established and
// before the first chunk.
func streamTurn(
	ctx context.Context,
	client llm.Client,
	req llm.Request,
	sink Sink,
	onOpen func() error,
) (*llm.Accumulator, error) {
	s, err := client.Stream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("open completion: %w", err)
	}
	defer s.Close()

	if onOpen != nil {
		if err := onOpen(); err != nil {
			return nil, err
		}
	}

	acc := &llm.Accumulator{}
	for {
		c, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return acc, nil
		}
		if err != nil {
			return nil, fmt.Errorf("receive completion: %w", err)
		}
		acc.Add(c)
		if c.Content == "" {
			continue
		}
		if err := sink.Token(ctx, c.Content); err != nil {
			return nil, err
		}
	}
}

// noResultsMessage explains an empty result set.
func noResultsMessage(f filter.Filter) string {
	hints := search.Suggestions(f)
	if len(hints) == 0 {
		return "No trails matched."
	}
	return "No trails matched all criteria. Try to " + strings.Join(hints, ", or ") + "."
}
