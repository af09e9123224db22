package models

// Favorite is unique per (user_id, restaurant_id). Unlike likes, a duplicate
// favorite is rejected as a conflict instead of being absorbed.
type Favorite struct {
	ID           int    `json:"id"`
	UserID       int    `json:"user_id"`
	RestaurantID int    `json:"restaurant_id"`
	CreatedAt    string `json:"created_at"`

	Restaurant *RestaurantBrief `json:"restaurant,omitempty"`
}
