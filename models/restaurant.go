package models

// Restaurant is a restaurant row. Latitude and longitude are either both set
// or both NULL (not yet geocoded).
type Restaurant struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ImageURL    *string  `json:"image_url"`
	CategoryID  *int     `json:"category_id,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`

	// Derived at read time, never persisted.
	Distance *float64 `json:"distance,omitempty"`
}

// RestaurantBrief is the reduced payload embedded in reviews.
type RestaurantBrief struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	ImageURL *string `json:"image_url"`
}

// RestaurantSummary is a restaurant with its review aggregates, used by the
// search, top-rated and category listings.
type RestaurantSummary struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	ImageURL     *string `json:"image_url"`
	AvgRating    float64 `json:"avg_rating"`
	ReviewsCount int     `json:"reviews_count"`
}

// FavoriteRestaurant is an entry of the authenticated user's favorites list.
type FavoriteRestaurant struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	ImageURL       *string `json:"image_url"`
	FavoritesCount int     `json:"favorites_count"`
	IsFavorite     bool    `json:"is_favorite"`
}
