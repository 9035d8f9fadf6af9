package search

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agurod42/outfox-health/internal/store"
)

// centroidEnsurer makes sure zip_centroids has a row for a ZIP, filling it
// from the resolver when the table lacks one.
type centroidEnsurer struct {
	store    Store
	resolver Resolver
	log      zerolog.Logger
}

func (c *centroidEnsurer) EnsureCentroid(ctx context.Context, zip string) (bool, error) {
	ok, err := c.store.CentroidExists(ctx, zip)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	if c.resolver == nil {
		return false, nil
	}
	ll, found := c.resolver.Resolve(zip)
	if !found {
		c.log.Debug().Str("zip", zip).Msg("no centroid in table or dataset")
		return false, nil
	}
	inserted, err := c.store.InsertCentroid(ctx, store.NewCentroid(zip, ll))
	if err != nil {
		return false, err
	}
	if inserted {
		c.log.Info().Str("zip", zip).Float64("lat", ll.Lat).Float64("lng", ll.Lng).Msg("added ZIP centroid")
	}
	return true, nil
}
