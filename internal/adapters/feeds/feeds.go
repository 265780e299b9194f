// Package feeds defines the episode source contract shared by the RSS,
// Spotify and YouTube adapters.
package feeds

import (
	"context"

	"github.com/bymedia/echoboard/internal/domain/model"
)

// Source fetches episodes from one upstream platform. Implementations
// resolve identities at the boundary and drop records that cannot be
// resolved; a Fetch never returns partially-identified episodes.
type Source interface {
	// Name identifies the source in logs, metrics and Episode.Source.
	Name() string

	// Fetch returns the currently visible episodes.
	Fetch(ctx context.Context) ([]model.Episode, error)
}
