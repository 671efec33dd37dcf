package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/modelbench/internal/observability"
)

// ModelProber selects the session's models from what the credential can access.
type ModelProber struct {
	catalog *ModelCatalog
}

// NewModelProber creates a prober over the static catalog.
func NewModelProber(catalog *ModelCatalog) *ModelProber {
	return &ModelProber{catalog: catalog}
}

// Probe lists the provider's models and initializes the session with the selection.
// On failure the session is left exactly as it was.
func (p *ModelProber) Probe(ctx context.Context, lister ModelLister, sess *Session, credential string) error {
	if sess == nil {
		return errors.New("session cannot be nil")
	}

	logger := observability.FromContext(ctx)

	available, err := lister.ListModels(ctx)
	if err != nil {
		logger.Error("model listing failed", observability.Error(err))
		if KindOf(err) == KindUnknown {
			return NewError(KindTransport, "list models", err)
		}
		return fmt.Errorf("list models: %w", err)
	}

	selected := p.catalog.Select(available)
	sess.Initialize(credential, selected)

	logger.Info("session models selected",
		observability.Strings("models", sess.ModelIDs()),
		observability.Int("available", len(available)))

	return nil
}
