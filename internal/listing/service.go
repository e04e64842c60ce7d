package listing

import (
	"context"
	"net/url"
	"os"

	"github.com/sirupsen/logrus"

	"propertyhub/web/internal/models"
)

// Card defaults for listings the backend returns without full details.
const (
	DefaultBeds  = 3
	DefaultBaths = 2
	DefaultSqft  = 2000

	FallbackImageURL = "https://images.unsplash.com/photo-1600596542815-2495db98dada?q=80&w=800"
)

type backendAPI interface {
	ListProperties(ctx context.Context, query url.Values) ([]models.Property, error)
}

// FavoriteSource answers whether a listing is locally marked as a favorite.
type FavoriteSource interface {
	IsFavorite(propertyID string) bool
}

type locationResolver interface {
	Geocode(ctx context.Context, location string) (float64, float64, error)
}

// Service assembles browse-ready listing cards from the backend. Fetches are
// fail-soft: any backend failure is logged and surfaced as an empty result so
// browse pages render instead of breaking.
type Service struct {
	api       backendAPI
	favorites FavoriteSource
	resolver  locationResolver
	logger    *logrus.Logger
}

func NewService(api backendAPI, favorites FavoriteSource, resolver locationResolver, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Service{
		api:       api,
		favorites: favorites,
		resolver:  resolver,
		logger:    logger,
	}
}

// FetchList fetches listings matching the query as display cards. When the
// search names a location and geocoding is on, results are ordered nearest
// first.
func (s *Service) FetchList(ctx context.Context, query Query) []models.PropertyCard {
	properties, err := s.api.ListProperties(ctx, query.Values())
	if err != nil {
		s.logger.WithError(err).WithField("search", query.Search).Error("Failed to fetch property list")
		return []models.PropertyCard{}
	}

	if s.resolver != nil && query.Search != "" {
		s.sortByDistance(ctx, query.Search, properties)
	}

	cards := make([]models.PropertyCard, 0, len(properties))
	for _, property := range properties {
		cards = append(cards, s.toCard(property))
	}
	return cards
}

// FetchOwned fetches the listings belonging to ownerID. When the backend
// returns records without ownership metadata, the full set is passed through
// so owners with legacy data still see their dashboard populated.
func (s *Service) FetchOwned(ctx context.Context, ownerID string) []models.Property {
	properties, err := s.api.ListProperties(ctx, nil)
	if err != nil {
		s.logger.WithError(err).WithField("owner_id", ownerID).Error("Failed to fetch owned properties")
		return []models.Property{}
	}

	anyOwned := false
	for _, property := range properties {
		if property.OwnerID != "" {
			anyOwned = true
			break
		}
	}
	if !anyOwned {
		s.logger.WithField("owner_id", ownerID).Warn("No ownership metadata on listings, returning full set")
		return properties
	}

	owned := make([]models.Property, 0)
	for _, property := range properties {
		if property.OwnerID == ownerID {
			owned = append(owned, property)
		}
	}
	return owned
}

func (s *Service) toCard(property models.Property) models.PropertyCard {
	card := models.PropertyCard{
		ID:       property.ID,
		Title:    property.Title,
		Price:    property.Price,
		Location: property.Location,
		Image:    FallbackImageURL,
		Beds:     DefaultBeds,
		Baths:    DefaultBaths,
		Sqft:     DefaultSqft,
	}

	if len(property.Images) > 0 && property.Images[0] != "" {
		card.Image = property.Images[0]
	}
	if property.Beds != nil {
		card.Beds = *property.Beds
	}
	if property.Baths != nil {
		card.Baths = *property.Baths
	}
	if property.Sqft != nil {
		card.Sqft = *property.Sqft
	}
	if s.favorites != nil {
		card.IsFavorite = s.favorites.IsFavorite(property.ID)
	}

	return card
}
