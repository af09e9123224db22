package controllers

import (
	"database/sql"
	"math"

	"food-review/models"

	"github.com/pkg/errors"
)

// Aggregates are always computed fresh from child rows at query time. Nothing
// in here writes, and no counter is ever persisted on the parent entity.

// RestaurantRatingStats returns the review count and the average rating
// rounded to 1 decimal place. A restaurant with no reviews reports 0, 0.
func RestaurantRatingStats(db *sql.DB, restaurantID int) (int, float64, error) {
	var count int
	var avg float64
	err := db.QueryRow(`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE restaurant_id = ?`,
		restaurantID).Scan(&count, &avg)
	if err != nil {
		return 0, 0, errors.Wrap(err, "query rating stats")
	}
	return count, math.Round(avg*10) / 10, nil
}

// ReviewLikeStats returns the like count and whether the viewer liked the
// review. viewerID 0 means anonymous and always yields false.
func ReviewLikeStats(db *sql.DB, reviewID, viewerID int) (int, bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM likes WHERE review_id = ?`, reviewID).Scan(&count)
	if err != nil {
		return 0, false, errors.Wrap(err, "count likes")
	}

	isLiked := false
	if viewerID != 0 {
		err = db.QueryRow(`SELECT EXISTS(SELECT 1 FROM likes WHERE review_id = ? AND user_id = ?)`,
			reviewID, viewerID).Scan(&isLiked)
		if err != nil {
			return 0, false, errors.Wrap(err, "check viewer like")
		}
	}
	return count, isLiked, nil
}

// FavoriteStats returns the favorite count for a restaurant and whether the
// viewer favorited it.
func FavoriteStats(db *sql.DB, restaurantID, viewerID int) (int, bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM favorites WHERE restaurant_id = ?`, restaurantID).Scan(&count)
	if err != nil {
		return 0, false, errors.Wrap(err, "count favorites")
	}

	isFavorite := false
	if viewerID != 0 {
		err = db.QueryRow(`SELECT EXISTS(SELECT 1 FROM favorites WHERE restaurant_id = ? AND user_id = ?)`,
			restaurantID, viewerID).Scan(&isFavorite)
		if err != nil {
			return 0, false, errors.Wrap(err, "check viewer favorite")
		}
	}
	return count, isFavorite, nil
}

// AttachReviewDetails enriches reviews in place with like stats, images,
// author, restaurant brief and comments. Every read path returning reviews
// goes through here so the viewer-relative fields are always consistent with
// the current like rows.
func AttachReviewDetails(db *sql.DB, viewerID int, reviews []*models.Review) error {
	for _, review := range reviews {
		count, isLiked, err := ReviewLikeStats(db, review.ID, viewerID)
		if err != nil {
			return err
		}
		review.LikesCount = count
		review.IsLiked = isLiked

		images, err := reviewImages(db, review.ID)
		if err != nil {
			return err
		}
		review.Images = images

		user, err := userBrief(db, review.UserID)
		if err != nil {
			return err
		}
		review.User = user

		restaurant, err := restaurantBrief(db, review.RestaurantID)
		if err != nil {
			return err
		}
		review.Restaurant = restaurant

		comments, err := reviewComments(db, review.ID)
		if err != nil {
			return err
		}
		review.Comments = comments
	}
	return nil
}

func reviewImages(db *sql.DB, reviewID int) ([]models.ReviewImage, error) {
	rows, err := db.Query(`SELECT id, review_id, image_url FROM review_images WHERE review_id = ? ORDER BY id`, reviewID)
	if err != nil {
		return nil, errors.Wrap(err, "query review images")
	}
	defer rows.Close()

	images := []models.ReviewImage{}
	for rows.Next() {
		var img models.ReviewImage
		if err := rows.Scan(&img.ID, &img.ReviewID, &img.ImageURL); err != nil {
			return nil, errors.Wrap(err, "scan review image")
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func reviewComments(db *sql.DB, reviewID int) ([]models.Comment, error) {
	rows, err := db.Query(`
		SELECT c.id, c.user_id, c.review_id, c.content, c.created_at, c.updated_at,
		       u.id, u.name, u.avatar
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.review_id = ?
		ORDER BY c.created_at, c.id`, reviewID)
	if err != nil {
		return nil, errors.Wrap(err, "query comments")
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		var u models.UserBrief
		if err := rows.Scan(&c.ID, &c.UserID, &c.ReviewID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
			&u.ID, &u.Name, &u.Avatar); err != nil {
			return nil, errors.Wrap(err, "scan comment")
		}
		c.User = &u
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func userBrief(db *sql.DB, userID int) (*models.UserBrief, error) {
	var u models.UserBrief
	err := db.QueryRow(`SELECT id, name, avatar FROM users WHERE id = ?`, userID).
		Scan(&u.ID, &u.Name, &u.Avatar)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query user")
	}
	return &u, nil
}

func restaurantBrief(db *sql.DB, restaurantID int) (*models.RestaurantBrief, error) {
	var r models.RestaurantBrief
	err := db.QueryRow(`SELECT id, name, address, image_url FROM restaurants WHERE id = ?`, restaurantID).
		Scan(&r.ID, &r.Name, &r.Address, &r.ImageURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query restaurant")
	}
	return &r, nil
}
