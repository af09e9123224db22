package controllers

import (
	"database/sql"
	"net/http"

	"food-review/models"
	"food-review/utils"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type LikeController struct{}

// LikeReview is idempotent: liking an already-liked review succeeds without
// changing anything. The unique key on (user_id, review_id) closes the
// check-then-insert race, so a duplicate-key error is treated as success.
func (lc LikeController) LikeReview(db *sql.DB) http.HandlerFunc {
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

		exists, err := reviewExists(db, reviewID)
		if err != nil {
			log.WithError(err).Error("failed to check review")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to check review"})
			return
		}
		if !exists {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Review not found"})
			return
		}

		_, err = db.Exec(`INSERT INTO likes (user_id, review_id, created_at) VALUES (?, ?, ?)`,
			userID, reviewID, now())
		if err != nil && !isDuplicateKeyErr(err) {
			log.WithError(err).Error("failed to insert like")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to like review"})
			return
		}

		count, _, err := ReviewLikeStats(db, reviewID, userID)
		if err != nil {
			log.WithError(err).Error("failed to count likes")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to count likes"})
			return
		}

		utils.ResponseJSON(w, map[string]interface{}{
			"success":     true,
			"message":     "Liked",
			"likes_count": count,
			"is_liked":    true,
		})
	}
}

// UnlikeReview is equally idempotent: unliking a review that was never liked
// still succeeds and reports the current count.
func (lc LikeController) UnlikeReview(db *sql.DB) http.HandlerFunc {
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

		exists, err := reviewExists(db, reviewID)
		if err != nil {
			log.WithError(err).Error("failed to check review")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to check review"})
			return
		}
		if !exists {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Review not found"})
			return
		}

		if _, err := db.Exec(`DELETE FROM likes WHERE user_id = ? AND review_id = ?`,
			userID, reviewID); err != nil {
			log.WithError(err).Error("failed to delete like")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to unlike review"})
			return
		}

		count, _, err := ReviewLikeStats(db, reviewID, userID)
		if err != nil {
			log.WithError(err).Error("failed to count likes")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to count likes"})
			return
		}

		utils.ResponseJSON(w, map[string]interface{}{
			"success":     true,
			"message":     "Unliked",
			"likes_count": count,
			"is_liked":    false,
		})
	}
}
