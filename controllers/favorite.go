package controllers

import (
	"database/sql"
	"net/http"

	"food-review/models"
	"food-review/utils"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type FavoriteController struct{}

// AddFavorite is deliberately strict where likes are idempotent: favoriting a
// restaurant twice is a conflict. Product decision, not an accident.
func (fc FavoriteController) AddFavorite(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		restaurantID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid restaurant id"})
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

		// The unique key also rejects the concurrent duplicate that slips
		// past this check.
		var favorited bool
		err = db.QueryRow(`SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = ? AND restaurant_id = ?)`,
			userID, restaurantID).Scan(&favorited)
		if err != nil {
			log.WithError(err).Error("failed to check favorite")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to check favorite"})
			return
		}
		if favorited {
			utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "Already favorited"})
			return
		}

		if _, err := db.Exec(`INSERT INTO favorites (user_id, restaurant_id, created_at) VALUES (?, ?, ?)`,
			userID, restaurantID, now()); err != nil {
			if isDuplicateKeyErr(err) {
				utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "Already favorited"})
				return
			}
			log.WithError(err).Error("failed to insert favorite")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to add favorite"})
			return
		}

		restaurant, err := restaurantBrief(db, restaurantID)
		if err != nil {
			log.WithError(err).Error("failed to load restaurant")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Favorite added but failed to load restaurant"})
			return
		}

		utils.ResponseJSONStatus(w, http.StatusCreated, map[string]interface{}{
			"message":    "Added to favorites",
			"restaurant": restaurant,
		})
	}
}

func (fc FavoriteController) RemoveFavorite(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		restaurantID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid restaurant id"})
			return
		}

		result, err := db.Exec(`DELETE FROM favorites WHERE user_id = ? AND restaurant_id = ?`,
			userID, restaurantID)
		if err != nil {
			log.WithError(err).Error("failed to delete favorite")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to remove favorite"})
			return
		}

		affected, err := result.RowsAffected()
		if err != nil {
			log.WithError(err).Error("failed to read rows affected")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to remove favorite"})
			return
		}
		if affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Not favorited yet"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Removed from favorites"})
	}
}

// GetFavorites lists the caller's favorite restaurants with their favorite
// counts.
func (fc FavoriteController) GetFavorites(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		rows, err := db.Query(`
			SELECT r.id, r.name, r.address, r.image_url,
			       (SELECT COUNT(*) FROM favorites f2 WHERE f2.restaurant_id = r.id)
			FROM favorites f
			JOIN restaurants r ON r.id = f.restaurant_id
			WHERE f.user_id = ?
			ORDER BY f.created_at DESC, f.id DESC`, userID)
		if err != nil {
			log.WithError(err).Error("failed to query favorites")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get favorites"})
			return
		}
		defer rows.Close()

		favorites := []models.FavoriteRestaurant{}
		for rows.Next() {
			var f models.FavoriteRestaurant
			if err := rows.Scan(&f.ID, &f.Name, &f.Address, &f.ImageURL, &f.FavoritesCount); err != nil {
				log.WithError(err).Error("failed to scan favorite")
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse favorites"})
				return
			}
			f.IsFavorite = true
			favorites = append(favorites, f)
		}
		if err := rows.Err(); err != nil {
			log.WithError(err).Error("failed to iterate favorites")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get favorites"})
			return
		}

		utils.ResponseJSON(w, favorites)
	}
}
