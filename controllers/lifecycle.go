package controllers

import (
	"database/sql"

	"github.com/pkg/errors"
)

// Review lifecycle operations. Each one is a single transaction: a review and
// its child rows are never observable in a partial state.

func restaurantExists(db *sql.DB, id int) (bool, error) {
	var exists bool
	err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM restaurants WHERE id = ?)`, id).Scan(&exists)
	return exists, errors.Wrap(err, "check restaurant exists")
}

func reviewExists(db *sql.DB, id int) (bool, error) {
	var exists bool
	err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM reviews WHERE id = ?)`, id).Scan(&exists)
	return exists, errors.Wrap(err, "check review exists")
}

// reviewOwner returns the owning user id, or sql.ErrNoRows when the review is
// missing.
func reviewOwner(db *sql.DB, reviewID int) (int, error) {
	var ownerID int
	err := db.QueryRow(`SELECT user_id FROM reviews WHERE id = ?`, reviewID).Scan(&ownerID)
	return ownerID, err
}

func insertImages(tx *sql.Tx, reviewID int, imageURLs []string) error {
	for _, url := range imageURLs {
		if _, err := tx.Exec(`INSERT INTO review_images (review_id, image_url) VALUES (?, ?)`,
			reviewID, url); err != nil {
			return errors.Wrap(err, "insert review image")
		}
	}
	return nil
}

// CreateReviewTx persists a review and its image rows atomically.
func CreateReviewTx(db *sql.DB, userID, restaurantID, rating int, content string, imageURLs []string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	ts := now()
	result, err := tx.Exec(`INSERT INTO reviews (user_id, restaurant_id, rating, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, userID, restaurantID, rating, content, ts, ts)
	if err != nil {
		return 0, errors.Wrap(err, "insert review")
	}

	reviewID, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "get review id")
	}

	if err := insertImages(tx, int(reviewID), imageURLs); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit review")
	}
	return int(reviewID), nil
}

// UpdateReviewTx partially updates rating/content. When replaceImages is set,
// all existing image rows are discarded and replaced with imageURLs — a
// destructive replace, not an append.
func UpdateReviewTx(db *sql.DB, reviewID int, rating *int, content *string, imageURLs []string, replaceImages bool) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	if rating != nil || content != nil {
		if _, err := tx.Exec(`UPDATE reviews
			SET rating = COALESCE(?, rating), content = COALESCE(?, content), updated_at = ?
			WHERE id = ?`, rating, content, now(), reviewID); err != nil {
			return errors.Wrap(err, "update review")
		}
	}

	if replaceImages {
		if _, err := tx.Exec(`DELETE FROM review_images WHERE review_id = ?`, reviewID); err != nil {
			return errors.Wrap(err, "delete old review images")
		}
		if err := insertImages(tx, reviewID, imageURLs); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(), "commit review update")
}

// DeleteReviewTx deletes a review and all of its images, likes and comments in
// one transaction so nothing is left orphaned.
func DeleteReviewTx(db *sql.DB, reviewID int) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM review_images WHERE review_id = ?`,
		`DELETE FROM likes WHERE review_id = ?`,
		`DELETE FROM comments WHERE review_id = ?`,
		`DELETE FROM reviews WHERE id = ?`,
	} {
		if _, err := tx.Exec(stmt, reviewID); err != nil {
			return errors.Wrap(err, "cascade delete review")
		}
	}

	return errors.Wrap(tx.Commit(), "commit review delete")
}

// CreateRestaurantWithReviewTx creates a restaurant and the first review of it
// in one unit. If either insert fails both roll back.
func CreateRestaurantWithReviewTx(db *sql.DB, userID int, req CreateRestaurantRequest,
	rating int, content string, imageURLs []string) (int, int, error) {

	tx, err := db.Begin()
	if err != nil {
		return 0, 0, errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	ts := now()
	result, err := tx.Exec(`INSERT INTO restaurants (name, address, description, latitude, longitude, image_url, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Name, req.Address, req.Description, req.Latitude, req.Longitude, req.ImageURL, req.CategoryID, ts, ts)
	if err != nil {
		return 0, 0, errors.Wrap(err, "insert restaurant")
	}
	restaurantID, err := result.LastInsertId()
	if err != nil {
		return 0, 0, errors.Wrap(err, "get restaurant id")
	}

	result, err = tx.Exec(`INSERT INTO reviews (user_id, restaurant_id, rating, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, userID, restaurantID, rating, content, ts, ts)
	if err != nil {
		return 0, 0, errors.Wrap(err, "insert review")
	}
	reviewID, err := result.LastInsertId()
	if err != nil {
		return 0, 0, errors.Wrap(err, "get review id")
	}

	if err := insertImages(tx, int(reviewID), imageURLs); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, errors.Wrap(err, "commit restaurant with review")
	}
	return int(restaurantID), int(reviewID), nil
}

// DeleteRestaurantTx deletes a restaurant, its favorites and every review with
// all review children, in one transaction.
func DeleteRestaurantTx(db *sql.DB, restaurantID int) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM review_images WHERE review_id IN (SELECT id FROM reviews WHERE restaurant_id = ?)`,
		`DELETE FROM likes WHERE review_id IN (SELECT id FROM reviews WHERE restaurant_id = ?)`,
		`DELETE FROM comments WHERE review_id IN (SELECT id FROM reviews WHERE restaurant_id = ?)`,
		`DELETE FROM reviews WHERE restaurant_id = ?`,
		`DELETE FROM favorites WHERE restaurant_id = ?`,
		`DELETE FROM restaurants WHERE id = ?`,
	} {
		if _, err := tx.Exec(stmt, restaurantID); err != nil {
			return errors.Wrap(err, "cascade delete restaurant")
		}
	}

	return errors.Wrap(tx.Commit(), "commit restaurant delete")
}
