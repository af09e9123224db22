package models

// Like is unique per (user_id, review_id); the unique key in the schema backs
// the idempotent like operation against concurrent inserts.
type Like struct {
	ID        int    `json:"id"`
	UserID    int    `json:"user_id"`
	ReviewID  int    `json:"review_id"`
	CreatedAt string `json:"created_at"`
}
