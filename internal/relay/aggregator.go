package relay

import (
	"context"
	"sync"

	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/nodetec/notestack-sub002/internal/logger"
)

// Outcome is the per-endpoint result of one publish.
type Outcome struct {
	Endpoint string `json:"endpoint"`
	Success  bool   `json:"success"`
	Err      error  `json:"-"`
}

// Aggregator sends one record to N endpoints concurrently and reports a
// per-endpoint outcome vector. Endpoints are commodity and redundant, so
// every caller uses the same any-of-success predicate: reaching one
// endpoint is a successful publish. No fail-fast, no retries; retry
// policy, if any, belongs to the caller.
type Aggregator struct {
	publisher Publisher
	logger    logger.Logger
}

// NewAggregator creates a publish aggregator over the injected publisher.
func NewAggregator(pub Publisher, log logger.Logger) *Aggregator {
	return &Aggregator{
		publisher: pub,
		logger:    log,
	}
}

// Publish fans the record out to all endpoints. The outcome vector is in
// endpoint argument order, one entry per endpoint. A hung endpoint delays
// only its own slot.
func (a *Aggregator) Publish(ctx context.Context, rec *domain.Record, endpoints []string) []Outcome {
	outcomes := make([]Outcome, len(endpoints))

	var wg sync.WaitGroup
	for i, ep := range endpoints {
		wg.Add(1)
		go func(i int, ep string) {
			defer wg.Done()
			err := a.publisher.PublishToEndpoint(ctx, rec, ep)
			outcomes[i] = Outcome{Endpoint: ep, Success: err == nil, Err: err}
			if err != nil {
				a.logger.Warn("publish to endpoint failed",
					logger.String("endpoint", ep),
					logger.String("record_id", rec.ID),
					logger.Error(err))
			}
		}(i, ep)
	}
	wg.Wait()

	a.logger.Debug("publish fan-out completed",
		logger.String("record_id", rec.ID),
		logger.Int("endpoints", len(endpoints)),
		logger.Bool("published", Published(outcomes)))

	return outcomes
}

// Published is the uniform any-of-success predicate over an outcome vector.
func Published(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Success {
			return true
		}
	}
	return false
}
