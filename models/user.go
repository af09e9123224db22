package models

type User struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Password  string  `json:"-"`
	Avatar    *string `json:"avatar"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// UserBrief is the reduced author payload embedded in reviews and comments.
type UserBrief struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}
