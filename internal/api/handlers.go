package api

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propertyhub/web/internal/backend"
	"propertyhub/web/internal/listing"
	"propertyhub/web/internal/models"
	"propertyhub/web/internal/session"
)

type backendAPI interface {
	Login(ctx context.Context, email, password string) (string, models.User, error)
	Register(ctx context.Context, name, email, password string, role models.Role) error
	GetProperty(ctx context.Context, id string) (models.Property, error)
	CreateProperty(ctx context.Context, input backend.CreatePropertyInput) (models.Property, error)
}

type listingService interface {
	FetchList(ctx context.Context, query listing.Query) []models.PropertyCard
	FetchOwned(ctx context.Context, ownerID string) []models.Property
}

type favoriteTracker interface {
	Toggle(propertyID string) bool
	IsFavorite(propertyID string) bool
	FavoriteIDs() []string
}

type listingNotifier interface {
	NotifyListingCreated(property models.Property) error
}

type Handler struct {
	api       backendAPI
	sessions  *session.Store
	listings  listingService
	favorites favoriteTracker
	notifier  listingNotifier
	logger    *logrus.Logger
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func NewHandler(api backendAPI, sessions *session.Store, listings listingService, favorites favoriteTracker, notifier listingNotifier, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		api:       api,
		sessions:  sessions,
		listings:  listings,
		favorites: favorites,
		notifier:  notifier,
		logger:    logger,
	}
}

// Login validates the form locally, then exchanges credentials with the
// backend and installs the session.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse login request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill in all fields"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill in all fields"})
		return
	}

	token, user, err := h.api.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.renderBackendError(c, err)
		return
	}

	h.sessions.Login(token, user)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Register creates the account and logs the new user straight in.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse register request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill in all fields"})
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill in all fields"})
		return
	}

	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleRegularUser
	}
	if !selfServiceRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account type"})
		return
	}

	if err := h.api.Register(c.Request.Context(), req.Name, req.Email, req.Password, role); err != nil {
		h.renderBackendError(c, err)
		return
	}

	token, user, err := h.api.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.renderBackendError(c, err)
		return
	}

	h.sessions.Login(token, user)
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Logout clears the session. Always succeeds.
func (h *Handler) Logout(c *gin.Context) {
	h.sessions.Logout()
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// CurrentSession reports who is signed in, if anyone.
func (h *Handler) CurrentSession(c *gin.Context) {
	snapshot := h.sessions.Snapshot()
	if !snapshot.IsAuthenticated() {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": snapshot.User})
}

// ListProperties returns browse cards for the current filter. The filter
// round-trips through the URL, so a shared link reproduces the search.
func (h *Handler) ListProperties(c *gin.Context) {
	query := listing.ParseValues(c.Request.URL.Query())
	cards := h.listings.FetchList(c.Request.Context(), query)
	c.JSON(http.StatusOK, cards)
}

// GetProperty returns one listing with the local favorite flag attached.
func (h *Handler) GetProperty(c *gin.Context) {
	id := c.Param("id")

	property, err := h.api.GetProperty(c.Request.Context(), id)
	if err != nil {
		h.renderBackendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"property":    property,
		"is_favorite": h.favorites.IsFavorite(id),
	})
}

// Dashboard returns the section for the signed-in user's role. Sections are
// strictly per-role: an admin sees the admin section, never an owner's.
func (h *Handler) Dashboard(c *gin.Context) {
	snapshot := h.sessions.Snapshot()
	if !snapshot.IsAuthenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please log in"})
		return
	}
	user := snapshot.User

	switch user.Role {
	case models.RolePropertyOwner:
		properties := h.listings.FetchOwned(c.Request.Context(), user.ID)
		c.JSON(http.StatusOK, gin.H{
			"role":       user.Role,
			"properties": properties,
		})
	case models.RoleAdmin:
		cards := h.listings.FetchList(c.Request.Context(), listing.Query{})
		c.JSON(http.StatusOK, gin.H{
			"role":           user.Role,
			"total_listings": len(cards),
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"role":      user.Role,
			"favorites": h.favoriteCards(c.Request.Context()),
		})
	}
}

// OwnerListings is the owner-only dashboard section. Unlike owner mutations
// it carries no admin override; the route is gated on the exact role.
func (h *Handler) OwnerListings(c *gin.Context) {
	snapshot := h.sessions.Snapshot()
	if !snapshot.IsAuthenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please log in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": h.listings.FetchOwned(c.Request.Context(), snapshot.User.ID),
	})
}

// favoriteCards resolves the locally marked favorites to display cards.
func (h *Handler) favoriteCards(ctx context.Context) []models.PropertyCard {
	marked := make(map[string]bool)
	for _, id := range h.favorites.FavoriteIDs() {
		marked[id] = true
	}

	cards := make([]models.PropertyCard, 0, len(marked))
	for _, card := range h.listings.FetchList(ctx, listing.Query{}) {
		if marked[card.ID] {
			cards = append(cards, card)
		}
	}
	return cards
}

// ToggleFavorite flips the local mark and returns the new value right away;
// backend reconciliation happens in the background.
func (h *Handler) ToggleFavorite(c *gin.Context) {
	id := c.Param("id")

	c.JSON(http.StatusOK, gin.H{
		"id":          id,
		"is_favorite": h.favorites.Toggle(id),
	})
}

// CreateProperty forwards a multipart listing form to the backend and
// notifies the configured channel on success.
func (h *Handler) CreateProperty(c *gin.Context) {
	title := c.PostForm("title")
	description := c.PostForm("description")
	location := c.PostForm("location")
	priceRaw := c.PostForm("price")

	if title == "" || description == "" || location == "" || priceRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill in all fields"})
		return
	}
	price, err := strconv.Atoi(priceRaw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be a number"})
		return
	}

	input := backend.CreatePropertyInput{
		Title:       title,
		Description: description,
		Price:       price,
		Location:    location,
	}

	// Listings without photos are valid; the card falls back to a stock image.
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, header := range form.File["images"] {
			file, err := header.Open()
			if err != nil {
				h.logger.WithError(err).WithField("filename", header.Filename).Error("Failed to open uploaded image")
				c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded images"})
				return
			}
			defer file.Close()
			input.Images = append(input.Images, backend.ImageUpload{
				Filename: header.Filename,
				Content:  file,
			})
		}
	}

	property, err := h.api.CreateProperty(c.Request.Context(), input)
	if err != nil {
		h.renderBackendError(c, err)
		return
	}

	if h.notifier != nil {
		go func() {
			if err := h.notifier.NotifyListingCreated(property); err != nil {
				h.logger.WithError(err).Error("Listing notification failed")
			}
		}()
	}

	c.JSON(http.StatusCreated, property)
}

// renderBackendError maps a normalized backend failure onto this surface.
// Auth failures surface as errors for the page to present; they never tear
// down the session here.
func (h *Handler) renderBackendError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if apiErr, ok := backend.AsAPIError(err); ok {
		switch apiErr.Kind {
		case backend.KindAuth:
			status = http.StatusUnauthorized
		case backend.KindNotFound:
			status = http.StatusNotFound
		case backend.KindValidation:
			status = http.StatusBadRequest
		}
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func selfServiceRole(role models.Role) bool {
	for _, allowed := range models.SelfServiceRoles {
		if role == allowed {
			return true
		}
	}
	return false
}
