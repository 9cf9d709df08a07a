// Package store provides the spatial relational store the traversal engine
// reads from. The SQLite implementation serves identifier lookups, explicit
// neighbor enumeration, river-sequence windows and radius queries.
package store

import (
	"context"

	"github.com/hydroline/watertrace/network"
)

// SpatialStore is the query surface the traversal engine and the
// connectivity resolver depend on. Implementations must be safe for
// concurrent readers; the engine never writes during a trace.
type SpatialStore interface {
	// GetByIdentifier returns the element with the given short code, or
	// errors.ErrNotFound.
	GetByIdentifier(ctx context.Context, id string) (*network.Element, error)

	// GetDirectNeighbors enumerates elements linked to id through explicit
	// from/to declarations, filtered by direction, ordered by identifier.
	GetDirectNeighbors(ctx context.Context, id string, direction network.Direction) ([]*network.Element, error)

	// GetSameRiver returns elements on the named river within mileWindow of
	// mileCenter, ordered by absolute mile distance then identifier.
	GetSameRiver(ctx context.Context, riverName string, mileCenter, mileWindow float64, limit int) ([]*network.Element, error)

	// GetWithinRadius returns elements whose location falls within
	// radiusMeters of lon/lat, ordered by distance then identifier.
	GetWithinRadius(ctx context.Context, lon, lat, radiusMeters float64, limit int) ([]*network.Element, error)

	// GetGeometry returns the element's geometry, or nil when it has none.
	GetGeometry(ctx context.Context, id string) (*network.Geometry, error)
}
