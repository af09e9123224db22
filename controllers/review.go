package controllers

import (
	"database/sql"
	"mime/multipart"
	"net/http"
	"strconv"

	"food-review/models"
	"food-review/storage"
	"food-review/utils"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type ReviewController struct{}

func scanReviews(rows *sql.Rows) ([]*models.Review, error) {
	var reviews []*models.Review
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(&review.ID, &review.UserID, &review.RestaurantID,
			&review.Rating, &review.Content, &review.CreatedAt, &review.UpdatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, &review)
	}
	return reviews, rows.Err()
}

// storeImages uploads every file to the blob store and returns the URLs. On a
// DB failure afterwards the caller removes the blobs again via cleanupImages.
func storeImages(store storage.BlobStore, files []*multipart.FileHeader) ([]string, error) {
	urls := []string{}
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			return urls, err
		}
		url, err := store.Store(file, storage.ObjectName(header.Filename))
		file.Close()
		if err != nil {
			return urls, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func cleanupImages(store storage.BlobStore, urls []string) {
	for _, url := range urls {
		if err := store.Delete(url); err != nil {
			log.WithError(err).WithField("url", url).Warn("failed to clean up uploaded image")
		}
	}
}

// GetReviews returns the review feed ordered by most recent activity: the
// newest comment time when the review has comments, its own creation time
// otherwise.
func (rc ReviewController) GetReviews(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewerID := utils.OptionalUserID(r)

		rows, err := db.Query(`
			SELECT r.id, r.user_id, r.restaurant_id, r.rating, r.content, r.created_at, r.updated_at
			FROM reviews r
			LEFT JOIN comments c ON c.review_id = r.id
			GROUP BY r.id, r.user_id, r.restaurant_id, r.rating, r.content, r.created_at, r.updated_at
			ORDER BY COALESCE(MAX(c.created_at), r.created_at) DESC, r.id DESC`)
		if err != nil {
			log.WithError(err).Error("failed to query reviews")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get reviews"})
			return
		}
		defer rows.Close()

		reviews, err := scanReviews(rows)
		if err != nil {
			log.WithError(err).Error("failed to scan reviews")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse reviews"})
			return
		}

		if err := AttachReviewDetails(db, viewerID, reviews); err != nil {
			log.WithError(err).Error("failed to enrich reviews")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to load review details"})
			return
		}

		if reviews == nil {
			reviews = []*models.Review{}
		}
		utils.ResponseJSON(w, reviews)
	}
}

func (rc ReviewController) GetReview(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewerID := utils.OptionalUserID(r)

		reviewID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid review id"})
			return
		}

		var review models.Review
		err = db.QueryRow(`SELECT id, user_id, restaurant_id, rating, content, created_at, updated_at
			FROM reviews WHERE id = ?`, reviewID).
			Scan(&review.ID, &review.UserID, &review.RestaurantID, &review.Rating,
				&review.Content, &review.CreatedAt, &review.UpdatedAt)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Review not found"})
			return
		}
		if err != nil {
			log.WithError(err).Error("failed to query review")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get review"})
			return
		}

		if err := AttachReviewDetails(db, viewerID, []*models.Review{&review}); err != nil {
			log.WithError(err).Error("failed to enrich review")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to load review details"})
			return
		}

		utils.ResponseJSON(w, review)
	}
}

func (rc ReviewController) GetReviewsByRestaurant(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewerID := utils.OptionalUserID(r)

		restaurantID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid restaurant id"})
			return
		}

		rows, err := db.Query(`SELECT id, user_id, restaurant_id, rating, content, created_at, updated_at
			FROM reviews WHERE restaurant_id = ? ORDER BY created_at DESC, id DESC`, restaurantID)
		if err != nil {
			log.WithError(err).Error("failed to query restaurant reviews")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get reviews"})
			return
		}
		defer rows.Close()

		reviews, err := scanReviews(rows)
		if err != nil {
			log.WithError(err).Error("failed to scan restaurant reviews")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse reviews"})
			return
		}

		if err := AttachReviewDetails(db, viewerID, reviews); err != nil {
			log.WithError(err).Error("failed to enrich restaurant reviews")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to load review details"})
			return
		}

		if reviews == nil {
			reviews = []*models.Review{}
		}
		utils.ResponseJSON(w, reviews)
	}
}

// CreateReview handles the multipart review form. Image blobs are stored
// first; the review row and its image rows are then written in one
// transaction, and the blobs are removed again if that transaction fails.
func (rc ReviewController) CreateReview(db *sql.DB, store storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid multipart form"})
			return
		}

		restaurantID, err := utils.StrToInt(r.FormValue("restaurant_id"))
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "restaurant_id is required"})
			return
		}
		rating, err := utils.StrToInt(r.FormValue("rating"))
		if err != nil || rating < 1 || rating > 5 {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "rating must be an integer between 1 and 5"})
			return
		}
		content := r.FormValue("content")
		if content == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "content is required"})
			return
		}

		exists, err := restaurantExists(db, restaurantID)
		if err != nil {
			log.WithError(err).Error("failed to check restaurant")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to check restaurant"})
			return
		}
		if !exists {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Restaurant not found"})
			return
		}

		imageURLs, err := storeImages(store, r.MultipartForm.File["images"])
		if err != nil {
			log.WithError(err).Error("failed to store review images")
			cleanupImages(store, imageURLs)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to store images"})
			return
		}

		reviewID, err := CreateReviewTx(db, userID, restaurantID, rating, content, imageURLs)
		if err != nil {
			log.WithError(err).Error("failed to create review")
			cleanupImages(store, imageURLs)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to create review"})
			return
		}

		review, err := loadReview(db, userID, reviewID)
		if err != nil {
			log.WithError(err).Error("failed to load created review")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Review created but failed to load"})
			return
		}

		utils.ResponseJSONStatus(w, http.StatusCreated, map[string]interface{}{
			"message": "Review created successfully",
			"review":  review,
		})
	}
}

// UpdateReview applies a partial update. Supplying new images discards every
// existing image of the review.
func (rc ReviewController) UpdateReview(db *sql.DB, store storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		reviewID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid review id"})
			return
		}

		ownerID, err := reviewOwner(db, reviewID)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Review not found"})
			return
		}
		if err != nil {
			log.WithError(err).Error("failed to query review owner")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get review"})
			return
		}
		if ownerID != userID {
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "You can only update your own reviews"})
			return
		}

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid multipart form"})
			return
		}

		var rating *int
		if v := r.FormValue("rating"); v != "" {
			parsed, err := utils.StrToInt(v)
			if err != nil || parsed < 1 || parsed > 5 {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "rating must be an integer between 1 and 5"})
				return
			}
			rating = &parsed
		}
		var content *string
		if v := r.FormValue("content"); v != "" {
			content = &v
		}

		files := r.MultipartForm.File["images"]
		replaceImages := len(files) > 0

		imageURLs, err := storeImages(store, files)
		if err != nil {
			log.WithError(err).Error("failed to store review images")
			cleanupImages(store, imageURLs)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to store images"})
			return
		}

		if err := UpdateReviewTx(db, reviewID, rating, content, imageURLs, replaceImages); err != nil {
			log.WithError(err).Error("failed to update review")
			cleanupImages(store, imageURLs)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to update review"})
			return
		}

		review, err := loadReview(db, userID, reviewID)
		if err != nil {
			log.WithError(err).Error("failed to load updated review")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Review updated but failed to load"})
			return
		}

		utils.ResponseJSON(w, review)
	}
}

func (rc ReviewController) DeleteReview(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		reviewID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid review id"})
			return
		}

		ownerID, err := reviewOwner(db, reviewID)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Review not found"})
			return
		}
		if err != nil {
			log.WithError(err).Error("failed to query review owner")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get review"})
			return
		}
		if ownerID != userID {
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "You can only delete your own reviews"})
			return
		}

		if err := DeleteReviewTx(db, reviewID); err != nil {
			log.WithError(err).Error("failed to delete review")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to delete review"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Review deleted successfully"})
	}
}

// CreateReviewWithRestaurant creates a brand-new restaurant together with its
// first review in one transaction.
func (rc ReviewController) CreateReviewWithRestaurant(db *sql.DB, store storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid multipart form"})
			return
		}

		req := CreateRestaurantRequest{
			Name:    r.FormValue("restaurant_name"),
			Address: r.FormValue("restaurant_address"),
		}
		if v := r.FormValue("restaurant_description"); v != "" {
			req.Description = &v
		}
		if v := r.FormValue("restaurant_image_url"); v != "" {
			req.ImageURL = &v
		}
		if v := r.FormValue("restaurant_latitude"); v != "" {
			lat, err := strconv.ParseFloat(v, 64)
			if err != nil {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "restaurant_latitude must be numeric"})
				return
			}
			req.Latitude = &lat
		}
		if v := r.FormValue("restaurant_longitude"); v != "" {
			lng, err := strconv.ParseFloat(v, 64)
			if err != nil {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "restaurant_longitude must be numeric"})
				return
			}
			req.Longitude = &lng
		}
		if err := validate.Struct(req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: err.Error()})
			return
		}
		// Coordinates come in pairs or not at all.
		if (req.Latitude == nil) != (req.Longitude == nil) {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "latitude and longitude must be provided together"})
			return
		}

		rating, err := utils.StrToInt(r.FormValue("rating"))
		if err != nil || rating < 1 || rating > 5 {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "rating must be an integer between 1 and 5"})
			return
		}
		content := r.FormValue("content")
		if content == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "content is required"})
			return
		}

		imageURLs, err := storeImages(store, r.MultipartForm.File["images"])
		if err != nil {
			log.WithError(err).Error("failed to store review images")
			cleanupImages(store, imageURLs)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to store images"})
			return
		}

		_, reviewID, err := CreateRestaurantWithReviewTx(db, userID, req, rating, content, imageURLs)
		if err != nil {
			log.WithError(err).Error("failed to create restaurant with review")
			cleanupImages(store, imageURLs)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to create restaurant and review"})
			return
		}

		review, err := loadReview(db, userID, reviewID)
		if err != nil {
			log.WithError(err).Error("failed to load created review")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Created but failed to load"})
			return
		}

		utils.ResponseJSONStatus(w, http.StatusCreated, map[string]interface{}{
			"message": "Restaurant and review created successfully",
			"review":  review,
		})
	}
}

// MyReviews returns the caller's own reviews.
func (rc ReviewController) MyReviews(db *sql.DB) http.HandlerFunc {
	return rc.reviewsForUser(db, `SELECT id, user_id, restaurant_id, rating, content, created_at, updated_at
		FROM reviews WHERE user_id = ? ORDER BY created_at DESC, id DESC`)
}

// CommentedReviews returns reviews the caller has commented on.
func (rc ReviewController) CommentedReviews(db *sql.DB) http.HandlerFunc {
	return rc.reviewsForUser(db, `SELECT id, user_id, restaurant_id, rating, content, created_at, updated_at
		FROM reviews r WHERE EXISTS(SELECT 1 FROM comments c WHERE c.review_id = r.id AND c.user_id = ?)
		ORDER BY created_at DESC, id DESC`)
}

// LikedReviews returns reviews the caller has liked.
func (rc ReviewController) LikedReviews(db *sql.DB) http.HandlerFunc {
	return rc.reviewsForUser(db, `SELECT id, user_id, restaurant_id, rating, content, created_at, updated_at
		FROM reviews r WHERE EXISTS(SELECT 1 FROM likes l WHERE l.review_id = r.id AND l.user_id = ?)
		ORDER BY created_at DESC, id DESC`)
}

func (rc ReviewController) reviewsForUser(db *sql.DB, query string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		rows, err := db.Query(query, userID)
		if err != nil {
			log.WithError(err).Error("failed to query user reviews")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get reviews"})
			return
		}
		defer rows.Close()

		reviews, err := scanReviews(rows)
		if err != nil {
			log.WithError(err).Error("failed to scan user reviews")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse reviews"})
			return
		}

		if err := AttachReviewDetails(db, userID, reviews); err != nil {
			log.WithError(err).Error("failed to enrich user reviews")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to load review details"})
			return
		}

		if reviews == nil {
			reviews = []*models.Review{}
		}
		utils.ResponseJSON(w, reviews)
	}
}

func loadReview(db *sql.DB, viewerID, reviewID int) (*models.Review, error) {
	var review models.Review
	err := db.QueryRow(`SELECT id, user_id, restaurant_id, rating, content, created_at, updated_at
		FROM reviews WHERE id = ?`, reviewID).
		Scan(&review.ID, &review.UserID, &review.RestaurantID, &review.Rating,
			&review.Content, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := AttachReviewDetails(db, viewerID, []*models.Review{&review}); err != nil {
		return nil, err
	}
	return &review, nil
}
