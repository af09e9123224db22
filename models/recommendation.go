package models

// Recommendation is one externally scored restaurant merged with local
// metadata. Address and ImageURL stay null when the scored id has no local row.
type Recommendation struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Address  *string `json:"address"`
	ImageURL *string `json:"image_url"`
}
