package models

type Comment struct {
	ID        int    `json:"id"`
	UserID    int    `json:"user_id"`
	ReviewID  int    `json:"review_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`

	User *UserBrief `json:"user,omitempty"`
}
