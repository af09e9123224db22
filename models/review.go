package models

// Review is a review row plus its derived fields. LikesCount and IsLiked are
// computed from the likes table on every read, never stored.
type Review struct {
	ID           int    `json:"id"`
	UserID       int    `json:"user_id"`
	RestaurantID int    `json:"restaurant_id"`
	Rating       int    `json:"rating"`
	Content      string `json:"content"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`

	LikesCount int              `json:"likes_count"`
	IsLiked    bool             `json:"is_liked"`
	Images     []ReviewImage    `json:"images"`
	User       *UserBrief       `json:"user,omitempty"`
	Restaurant *RestaurantBrief `json:"restaurant,omitempty"`
	Comments   []Comment        `json:"comments"`
}

type ReviewImage struct {
	ID       int    `json:"id"`
	ReviewID int    `json:"review_id"`
	ImageURL string `json:"image_url"`
}
