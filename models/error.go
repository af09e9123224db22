package models

// Error is the JSON body returned for every failed request.
type Error struct {
	Message string `json:"message"`
}
