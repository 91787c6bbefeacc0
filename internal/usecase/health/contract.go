package health

import "context"

// Pinger checks a backing store (dataset, cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// LLMChecker checks the model provider.
type LLMChecker interface {
	HealthCheck(ctx context.Context) error
}
