package relay

import (
	"context"
	"fmt"

	"github.com/nodetec/notestack-sub002/internal/domain"
)

// Unconfigured capabilities stand in when no real signer or transport is
// injected. The process still runs: local edits, autosave and the
// collection index all work, while every remote interaction fails the
// same way a fully unreachable network would.

// UnconfiguredSigner always reports the absence of a signing capability.
type UnconfiguredSigner struct{}

func (UnconfiguredSigner) Sign(context.Context, domain.Template) (*domain.Record, error) {
	return nil, ErrNoSigner
}

// UnconfiguredTransport fails every publish and query.
type UnconfiguredTransport struct{}

func (UnconfiguredTransport) PublishToEndpoint(_ context.Context, _ *domain.Record, endpoint string) error {
	return fmt.Errorf("no transport capability configured, cannot reach %s", endpoint)
}

func (UnconfiguredTransport) QueryEndpoint(_ context.Context, _ domain.Filter, endpoint string) ([]*domain.Record, error) {
	return nil, fmt.Errorf("no transport capability configured, cannot reach %s", endpoint)
}
