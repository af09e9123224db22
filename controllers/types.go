package controllers

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const timeFormat = "2006-01-02 15:04:05"

var validate = validator.New()

func now() string {
	return time.Now().Format(timeFormat)
}

// isDuplicateKeyErr reports whether an insert failed on a unique key. Covers
// MySQL (production) and SQLite (test fixture) wording.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email"`
}

type CreateRestaurantRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Address     string   `json:"address" validate:"required,max=255"`
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,max=255"`
	CategoryID  *int     `json:"category_id"`
}

type UpdateRestaurantRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=255"`
	Address     *string  `json:"address" validate:"omitempty,max=255"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,max=255"`
	CategoryID  *int     `json:"category_id"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

type CreateRestaurantBasicRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Address     string  `json:"address" validate:"required,max=255"`
	Description *string `json:"description"`
}

type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

type CreateCommentRequest struct {
	ReviewID int    `json:"review_id"`
	Content  string `json:"content" validate:"required,max=1000"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

type CreateCategoryRequest struct {
	Name  string  `json:"name" validate:"required,max=255"`
	Image *string `json:"image"`
}
