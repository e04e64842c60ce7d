package listing

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"propertyhub/web/internal/models"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListProperties(ctx context.Context, query url.Values) ([]models.Property, error) {
	args := m.Called(ctx, query)
	if props := args.Get(0); props != nil {
		return props.([]models.Property), args.Error(1)
	}
	return nil, args.Error(1)
}

type stubFavorites struct {
	marked map[string]bool
}

func (s *stubFavorites) IsFavorite(propertyID string) bool {
	return s.marked[propertyID]
}

type stubResolver struct {
	lat, lon float64
	err      error
}

func (s *stubResolver) Geocode(ctx context.Context, location string) (float64, float64, error) {
	return s.lat, s.lon, s.err
}

func floatPtr(v float64) *float64 { return &v }

func newQuietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestFetchListBuildsCards(t *testing.T) {
	backend := new(mockBackend)
	beds, baths, sqft := 4, 3, 2600
	backend.On("ListProperties", mock.Anything, mock.Anything).Return([]models.Property{
		{
			ID:       "p1",
			Title:    "Modern Villa",
			Price:    1250000,
			Location: "Beverly Hills, CA",
			Images:   []string{"https://cdn.example.com/p1.jpg"},
			Beds:     &beds,
			Baths:    &baths,
			Sqft:     &sqft,
		},
	}, nil)

	favorites := &stubFavorites{marked: map[string]bool{"p1": true}}
	svc := NewService(backend, favorites, nil, newQuietLogger())

	cards := svc.FetchList(context.Background(), Query{Search: "Beverly Hills"})

	require.Len(t, cards, 1)
	assert.Equal(t, "https://cdn.example.com/p1.jpg", cards[0].Image)
	assert.Equal(t, 4, cards[0].Beds)
	assert.Equal(t, 3, cards[0].Baths)
	assert.Equal(t, 2600, cards[0].Sqft)
	assert.True(t, cards[0].IsFavorite)
}

func TestFetchListAppliesCardDefaults(t *testing.T) {
	backend := new(mockBackend)
	backend.On("ListProperties", mock.Anything, mock.Anything).Return([]models.Property{
		{ID: "p1", Title: "Sparse Listing", Price: 300000},
	}, nil)

	svc := NewService(backend, nil, nil, newQuietLogger())

	cards := svc.FetchList(context.Background(), Query{})

	require.Len(t, cards, 1)
	assert.Equal(t, FallbackImageURL, cards[0].Image)
	assert.Equal(t, DefaultBeds, cards[0].Beds)
	assert.Equal(t, DefaultBaths, cards[0].Baths)
	assert.Equal(t, DefaultSqft, cards[0].Sqft)
	assert.False(t, cards[0].IsFavorite)
}

func TestFetchListFailsSoftToEmpty(t *testing.T) {
	backend := new(mockBackend)
	backend.On("ListProperties", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	svc := NewService(backend, nil, nil, newQuietLogger())

	cards := svc.FetchList(context.Background(), Query{Search: "Austin"})

	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestFetchListSendsQueryParameters(t *testing.T) {
	backend := new(mockBackend)
	backend.On("ListProperties", mock.Anything, mock.MatchedBy(func(values url.Values) bool {
		return values.Get("search") == "Austin" &&
			values.Get("minPrice") == "200000" &&
			values.Get("maxPrice") == "500000"
	})).Return([]models.Property{}, nil)

	svc := NewService(backend, nil, nil, newQuietLogger())
	svc.FetchList(context.Background(), BuildQuery(FilterInput{Location: "Austin", Price: "200000-500000"}))

	backend.AssertExpectations(t)
}

func TestFetchListOrdersByDistance(t *testing.T) {
	backend := new(mockBackend)
	backend.On("ListProperties", mock.Anything, mock.Anything).Return([]models.Property{
		{ID: "far", Latitude: floatPtr(40.0), Longitude: floatPtr(-80.0)},
		{ID: "no-coords"},
		{ID: "near", Latitude: floatPtr(30.3), Longitude: floatPtr(-97.7)},
	}, nil)

	// Origin next to the "near" listing.
	resolver := &stubResolver{lat: 30.27, lon: -97.74}
	svc := NewService(backend, nil, resolver, newQuietLogger())

	cards := svc.FetchList(context.Background(), Query{Search: "Austin"})

	require.Len(t, cards, 3)
	assert.Equal(t, "near", cards[0].ID)
	assert.Equal(t, "far", cards[1].ID)
	assert.Equal(t, "no-coords", cards[2].ID)
}

func TestFetchListKeepsOrderWhenGeocodingFails(t *testing.T) {
	backend := new(mockBackend)
	backend.On("ListProperties", mock.Anything, mock.Anything).Return([]models.Property{
		{ID: "a"}, {ID: "b"},
	}, nil)

	resolver := &stubResolver{err: errors.New("no results")}
	svc := NewService(backend, nil, resolver, newQuietLogger())

	cards := svc.FetchList(context.Background(), Query{Search: "Nowhere"})

	require.Len(t, cards, 2)
	assert.Equal(t, "a", cards[0].ID)
	assert.Equal(t, "b", cards[1].ID)
}

func TestFetchOwnedFiltersByOwner(t *testing.T) {
	backend := new(mockBackend)
	backend.On("ListProperties", mock.Anything, mock.Anything).Return([]models.Property{
		{ID: "p1", OwnerID: "u2"},
		{ID: "p2", OwnerID: "u9"},
		{ID: "p3", OwnerID: "u2"},
	}, nil)

	svc := NewService(backend, nil, nil, newQuietLogger())

	owned := svc.FetchOwned(context.Background(), "u2")

	require.Len(t, owned, 2)
	assert.Equal(t, "p1", owned[0].ID)
	assert.Equal(t, "p3", owned[1].ID)
}

func TestFetchOwnedFallsBackWithoutOwnershipMetadata(t *testing.T) {
	backend := new(mockBackend)
	backend.On("ListProperties", mock.Anything, mock.Anything).Return([]models.Property{
		{ID: "p1"}, {ID: "p2"},
	}, nil)

	svc := NewService(backend, nil, nil, newQuietLogger())

	owned := svc.FetchOwned(context.Background(), "u2")

	assert.Len(t, owned, 2)
}

func TestFetchOwnedNoMatchesYieldsEmptyNotFallback(t *testing.T) {
	backend := new(mockBackend)
	backend.On("ListProperties", mock.Anything, mock.Anything).Return([]models.Property{
		{ID: "p1", OwnerID: "u9"},
	}, nil)

	svc := NewService(backend, nil, nil, newQuietLogger())

	owned := svc.FetchOwned(context.Background(), "u2")

	assert.NotNil(t, owned)
	assert.Empty(t, owned)
}

func TestFetchOwnedFailsSoftToEmpty(t *testing.T) {
	backend := new(mockBackend)
	backend.On("ListProperties", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	svc := NewService(backend, nil, nil, newQuietLogger())

	owned := svc.FetchOwned(context.Background(), "u2")

	assert.NotNil(t, owned)
	assert.Empty(t, owned)
}
