package models

import "time"

// Role determines which routes and actions a user is permitted to reach.
type Role string

const (
	RoleRegularUser   Role = "REGULAR_USER"
	RolePropertyOwner Role = "PROPERTY_OWNER"
	RoleAdmin         Role = "ADMIN"
)

// SelfServiceRoles are the roles a visitor may pick at registration.
// ADMIN accounts cannot be self-registered.
var SelfServiceRoles = []Role{RoleRegularUser, RolePropertyOwner}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRegularUser, RolePropertyOwner, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Session is the authenticated identity and credential held by this process.
// Token and User are always set and cleared together.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// IsAuthenticated is true iff both the token and the user are present.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

// Property is the listing shape returned by the backend. Beds, Baths, Sqft
// and Images may be absent from responses; display code applies defaults
// instead of failing.
type Property struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       int      `json:"price"`
	Location    string   `json:"location"`
	Beds        *int     `json:"beds,omitempty"`
	Baths       *int     `json:"baths,omitempty"`
	Sqft        *int     `json:"sqft,omitempty"`
	Images      []string `json:"images,omitempty"`
	OwnerID     string   `json:"ownerId,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// FavoriteState tracks reconciliation of an optimistic favorite toggle with
// the backend.
type FavoriteState string

const (
	// FavoritePending means the local flip has not been acknowledged yet.
	FavoritePending FavoriteState = "pending"
	// FavoriteCommitted means the backend acknowledged the current value.
	FavoriteCommitted FavoriteState = "committed"
	// FavoriteFailed means the backend rejected the flip and the local value
	// was rolled back.
	FavoriteFailed FavoriteState = "failed"
)

// FavoriteMark is the per-property favorite flag held on the client.
type FavoriteMark struct {
	PropertyID string        `json:"property_id"`
	Favorite   bool          `json:"favorite"`
	State      FavoriteState `json:"state"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// PropertyCard is the display shape consumed by listing pages, with stable
// defaults applied for every field the backend may omit.
type PropertyCard struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Price      int    `json:"price"`
	Location   string `json:"location"`
	Image      string `json:"image"`
	Beds       int    `json:"beds"`
	Baths      int    `json:"baths"`
	Sqft       int    `json:"sqft"`
	IsFavorite bool   `json:"is_favorite"`
}
