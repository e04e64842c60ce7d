package listing

import (
	"context"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"propertyhub/web/internal/models"
)

// sortByDistance orders properties nearest-first around the searched
// location. Listings without coordinates sort after every listing that has
// them. A geocoding failure leaves the backend's order untouched.
func (s *Service) sortByDistance(ctx context.Context, location string, properties []models.Property) {
	lat, lon, err := s.resolver.Geocode(ctx, location)
	if err != nil {
		s.logger.WithError(err).WithField("location", location).Warn("Skipping distance ordering")
		return
	}

	origin := orb.Point{lon, lat}

	sort.SliceStable(properties, func(i, j int) bool {
		di, oki := distanceFrom(origin, properties[i])
		dj, okj := distanceFrom(origin, properties[j])
		if oki != okj {
			return oki
		}
		return di < dj
	})
}

func distanceFrom(origin orb.Point, property models.Property) (float64, bool) {
	if property.Latitude == nil || property.Longitude == nil {
		return 0, false
	}
	point := orb.Point{*property.Longitude, *property.Latitude}
	return geo.Distance(origin, point), true
}
