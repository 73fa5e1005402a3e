package relay

import (
	"context"
	"errors"

	"github.com/nodetec/notestack-sub002/internal/domain"
)

// The network and signing primitives are injected capabilities. This core
// never opens a socket or touches key material itself.

var (
	// ErrNoSigner is returned when a mutation needs a signature but no
	// signing capability is configured. Fatal to the attempted mutation,
	// never retried.
	ErrNoSigner = errors.New("no signing capability configured")

	// ErrAllEndpointsFailed is returned when a publish reached no endpoint
	// at all. Callers that applied optimistic state roll it back on this.
	ErrAllEndpointsFailed = errors.New("publish failed on all endpoints")
)

// Signer produces a signed, id-assigned record from an unsigned template.
type Signer interface {
	Sign(ctx context.Context, t domain.Template) (*domain.Record, error)
}

// Publisher sends one record to one endpoint.
type Publisher interface {
	PublishToEndpoint(ctx context.Context, rec *domain.Record, endpoint string) error
}

// Querier fetches records matching a filter from one endpoint.
type Querier interface {
	QueryEndpoint(ctx context.Context, f domain.Filter, endpoint string) ([]*domain.Record, error)
}
