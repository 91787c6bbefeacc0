package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means searches still work, possibly without the model or cache.
	Degraded Status = "degraded"
	// Unhealthy means the dataset is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentDataset = "dataset"
	ComponentCache   = "cache"
	ComponentLLM     = "llm"
)

// checkTimeout bounds each component check.
const checkTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	dataset Pinger
	cache   Pinger
	llm     LLMChecker
}

// New creates a Service. cache and llm can be nil.
func New(dataset Pinger, cache Pinger, llm LLMChecker) *Service {
	return &Service{dataset: dataset, cache: cache, llm: llm}
}

// Check runs all component checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var mu sync.Mutex
	var g errgroup.Group

	run := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			res := CheckOK
			if err := fn(cctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			checks[name] = res
			mu.Unlock()
			return nil
		})
	}

	run(ComponentDataset, s.dataset.Ping)
	if s.cache != nil {
		run(ComponentCache, s.cache.Ping)
	}
	if s.llm != nil {
		run(ComponentLLM, s.llm.HealthCheck)
	}
	_ = g.Wait()

	status := Healthy
	for name, v := range checks {
		if v != CheckError {
			continue
		}
		if name == ComponentDataset {
			status = Unhealthy
			break
		}
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
