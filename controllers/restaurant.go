package controllers

import (
	"database/sql"
	"math"
	"net/http"
	"strconv"

	"food-review/geocoder"
	"food-review/models"
	"food-review/utils"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type RestaurantController struct{}

func (rc RestaurantController) GetRestaurants(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.Query(`
			SELECT r.id, r.name, r.address, r.description, r.latitude, r.longitude,
			       r.image_url, r.category_id, r.created_at, r.updated_at
			FROM restaurants r
			ORDER BY r.id`)
		if err != nil {
			log.WithError(err).Error("failed to query restaurants")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get restaurants"})
			return
		}
		defer rows.Close()

		restaurants := []models.Restaurant{}
		for rows.Next() {
			var rest models.Restaurant
			if err := rows.Scan(&rest.ID, &rest.Name, &rest.Address, &rest.Description,
				&rest.Latitude, &rest.Longitude, &rest.ImageURL, &rest.CategoryID,
				&rest.CreatedAt, &rest.UpdatedAt); err != nil {
				log.WithError(err).Error("failed to scan restaurant")
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse restaurants"})
				return
			}
			restaurants = append(restaurants, rest)
		}
		if err := rows.Err(); err != nil {
			log.WithError(err).Error("failed to iterate restaurants")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get restaurants"})
			return
		}

		utils.ResponseJSON(w, restaurants)
	}
}

// GetRestaurant returns a restaurant with its rating aggregates, favorite
// stats relative to the viewer, and enriched reviews.
func (rc RestaurantController) GetRestaurant(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewerID := utils.OptionalUserID(r)

		restaurantID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid restaurant id"})
			return
		}

		var rest models.Restaurant
		err = db.QueryRow(`SELECT id, name, address, description, latitude, longitude, image_url, category_id, created_at, updated_at
			FROM restaurants WHERE id = ?`, restaurantID).
			Scan(&rest.ID, &rest.Name, &rest.Address, &rest.Description, &rest.Latitude,
				&rest.Longitude, &rest.ImageURL, &rest.CategoryID, &rest.CreatedAt, &rest.UpdatedAt)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Restaurant not found"})
			return
		}
		if err != nil {
			log.WithError(err).Error("failed to query restaurant")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get restaurant"})
			return
		}

		reviewsCount, avgRating, err := RestaurantRatingStats(db, restaurantID)
		if err != nil {
			log.WithError(err).Error("failed to compute rating stats")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to compute stats"})
			return
		}

		favoritesCount, isFavorite, err := FavoriteStats(db, restaurantID, viewerID)
		if err != nil {
			log.WithError(err).Error("failed to compute favorite stats")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to compute stats"})
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

		utils.ResponseJSON(w, map[string]interface{}{
			"id":              rest.ID,
			"name":            rest.Name,
			"address":         rest.Address,
			"description":     rest.Description,
			"latitude":        rest.Latitude,
			"longitude":       rest.Longitude,
			"image_url":       rest.ImageURL,
			"category_id":     rest.CategoryID,
			"created_at":      rest.CreatedAt,
			"updated_at":      rest.UpdatedAt,
			"reviews_count":   reviewsCount,
			"avg_rating":      avgRating,
			"favorites_count": favoritesCount,
			"is_favorite":     isFavorite,
			"reviews":         reviews,
		})
	}
}

func (rc RestaurantController) CreateRestaurant(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := utils.VerifyToken(r); err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		var req CreateRestaurantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: err.Error()})
			return
		}
		if (req.Latitude == nil) != (req.Longitude == nil) {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "latitude and longitude must be provided together"})
			return
		}

		ts := now()
		result, err := db.Exec(`INSERT INTO restaurants (name, address, description, latitude, longitude, image_url, category_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			req.Name, req.Address, req.Description, req.Latitude, req.Longitude, req.ImageURL, req.CategoryID, ts, ts)
		if err != nil {
			log.WithError(err).Error("failed to insert restaurant")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to create restaurant"})
			return
		}

		id, err := result.LastInsertId()
		if err != nil {
			log.WithError(err).Error("failed to get restaurant id")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Restaurant created but failed to retrieve id"})
			return
		}

		utils.ResponseJSONStatus(w, http.StatusCreated, models.Restaurant{
			ID:          int(id),
			Name:        req.Name,
			Address:     req.Address,
			Description: req.Description,
			Latitude:    req.Latitude,
			Longitude:   req.Longitude,
			ImageURL:    req.ImageURL,
			CategoryID:  req.CategoryID,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		})
	}
}

// CreateRestaurantBasic creates a restaurant from name and address only,
// resolving coordinates through the geocoder chain. A geocoding failure is
// not fatal: the row is saved without coordinates for the batch job to fix
// later. An existing (name, address) row missing coordinates is repaired and
// returned; a complete duplicate is a conflict.
func (rc RestaurantController) CreateRestaurantBasic(db *sql.DB, g geocoder.Geocoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := utils.VerifyToken(r); err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		var req CreateRestaurantBasicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: err.Error()})
			return
		}

		var lat, lng *float64
		if loc, err := g.Geocode(req.Address); err != nil {
			log.WithError(err).WithField("address", req.Address).Warn("geocoding failed, saving without coordinates")
		} else {
			lat, lng = &loc.Lat, &loc.Lng
		}

		var existing models.Restaurant
		err := db.QueryRow(`SELECT id, name, address, description, latitude, longitude, image_url, category_id, created_at, updated_at
			FROM restaurants WHERE name = ? AND address = ?`, req.Name, req.Address).
			Scan(&existing.ID, &existing.Name, &existing.Address, &existing.Description,
				&existing.Latitude, &existing.Longitude, &existing.ImageURL, &existing.CategoryID,
				&existing.CreatedAt, &existing.UpdatedAt)
		if err != nil && err != sql.ErrNoRows {
			log.WithError(err).Error("failed to check existing restaurant")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to check existing restaurant"})
			return
		}

		if err == nil {
			if existing.Latitude == nil || existing.Longitude == nil {
				if _, err := db.Exec(`UPDATE restaurants SET description = ?, latitude = ?, longitude = ?, updated_at = ? WHERE id = ?`,
					req.Description, lat, lng, now(), existing.ID); err != nil {
					log.WithError(err).Error("failed to repair restaurant")
					utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to update restaurant"})
					return
				}
				existing.Description = req.Description
				existing.Latitude = lat
				existing.Longitude = lng
				utils.ResponseJSON(w, existing)
				return
			}

			utils.ResponseJSONStatus(w, http.StatusConflict, map[string]interface{}{
				"message":    "Restaurant already exists",
				"restaurant": existing,
			})
			return
		}

		ts := now()
		result, err := db.Exec(`INSERT INTO restaurants (name, address, description, latitude, longitude, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, req.Name, req.Address, req.Description, lat, lng, ts, ts)
		if err != nil {
			log.WithError(err).Error("failed to insert restaurant")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to create restaurant"})
			return
		}

		id, err := result.LastInsertId()
		if err != nil {
			log.WithError(err).Error("failed to get restaurant id")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Restaurant created but failed to retrieve id"})
			return
		}

		utils.ResponseJSONStatus(w, http.StatusCreated, models.Restaurant{
			ID:          int(id),
			Name:        req.Name,
			Address:     req.Address,
			Description: req.Description,
			Latitude:    lat,
			Longitude:   lng,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		})
	}
}

func (rc RestaurantController) UpdateRestaurant(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := utils.VerifyToken(r); err != nil {
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

		var req UpdateRestaurantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: err.Error()})
			return
		}
		if (req.Latitude == nil) != (req.Longitude == nil) {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "latitude and longitude must be provided together"})
			return
		}

		if _, err := db.Exec(`UPDATE restaurants SET
				name = COALESCE(?, name),
				address = COALESCE(?, address),
				description = COALESCE(?, description),
				image_url = COALESCE(?, image_url),
				category_id = COALESCE(?, category_id),
				latitude = COALESCE(?, latitude),
				longitude = COALESCE(?, longitude),
				updated_at = ?
			WHERE id = ?`,
			req.Name, req.Address, req.Description, req.ImageURL, req.CategoryID,
			req.Latitude, req.Longitude, now(), restaurantID); err != nil {
			log.WithError(err).Error("failed to update restaurant")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to update restaurant"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Restaurant updated successfully"})
	}
}

func (rc RestaurantController) DeleteRestaurant(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := utils.VerifyToken(r); err != nil {
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

		if err := DeleteRestaurantTx(db, restaurantID); err != nil {
			log.WithError(err).Error("failed to delete restaurant")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to delete restaurant"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Restaurant deleted successfully"})
	}
}

// Nearby finds restaurants within a radius of the given point, ordered by
// ascending distance. lat and lng are required; radius defaults to 2 km.
func (rc RestaurantController) Nearby(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latParam := r.URL.Query().Get("lat")
		lngParam := r.URL.Query().Get("lng")
		if latParam == "" || lngParam == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "lat and lng parameters are required"})
			return
		}

		lat, err := strconv.ParseFloat(latParam, 64)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "lat must be numeric"})
			return
		}
		lng, err := strconv.ParseFloat(lngParam, 64)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "lng must be numeric"})
			return
		}

		radius := 2.0
		if v := r.URL.Query().Get("radius"); v != "" {
			radius, err = strconv.ParseFloat(v, 64)
			if err != nil || radius <= 0 {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "radius must be a positive number"})
				return
			}
		}

		restaurants, err := NearbyRestaurants(db, lat, lng, radius, r.URL.Query().Get("query"))
		if err != nil {
			log.WithError(err).Error("failed to search nearby restaurants")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to search nearby restaurants"})
			return
		}

		utils.ResponseJSON(w, restaurants)
	}
}

// TopRated returns the restaurants with the most reviews, carrying their
// average rating.
func (rc RestaurantController) TopRated(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 5
		if v := r.URL.Query().Get("limit"); v != "" {
			parsed, err := utils.StrToInt(v)
			if err != nil || parsed <= 0 {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "limit must be a positive integer"})
				return
			}
			limit = parsed
		}

		rows, err := db.Query(`
			SELECT r.id, r.name, r.address, r.image_url,
			       COUNT(rev.id) AS reviews_count,
			       COALESCE(AVG(rev.rating), 0) AS avg_rating
			FROM restaurants r
			LEFT JOIN reviews rev ON rev.restaurant_id = r.id
			GROUP BY r.id, r.name, r.address, r.image_url
			ORDER BY reviews_count DESC, r.id
			LIMIT ?`, limit)
		if err != nil {
			log.WithError(err).Error("failed to query top rated restaurants")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get top rated restaurants"})
			return
		}
		defer rows.Close()

		results, err := scanRestaurantSummaries(rows)
		if err != nil {
			log.WithError(err).Error("failed to scan top rated restaurants")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse restaurants"})
			return
		}

		utils.ResponseJSON(w, results)
	}
}

// Search matches the keyword against restaurant names and addresses. An empty
// keyword returns an empty list.
func (rc RestaurantController) Search(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyword := r.URL.Query().Get("q")
		if keyword == "" {
			utils.ResponseJSON(w, []models.RestaurantSummary{})
			return
		}

		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			parsed, err := utils.StrToInt(v)
			if err != nil || parsed <= 0 {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "limit must be a positive integer"})
				return
			}
			limit = parsed
		}

		pattern := "%" + keyword + "%"
		rows, err := db.Query(`
			SELECT r.id, r.name, r.address, r.image_url,
			       COUNT(rev.id) AS reviews_count,
			       COALESCE(AVG(rev.rating), 0) AS avg_rating
			FROM restaurants r
			LEFT JOIN reviews rev ON rev.restaurant_id = r.id
			WHERE r.name LIKE ? OR r.address LIKE ?
			GROUP BY r.id, r.name, r.address, r.image_url
			ORDER BY r.id
			LIMIT ?`, pattern, pattern, limit)
		if err != nil {
			log.WithError(err).Error("failed to search restaurants")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to search restaurants"})
			return
		}
		defer rows.Close()

		results, err := scanRestaurantSummaries(rows)
		if err != nil {
			log.WithError(err).Error("failed to scan search results")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse restaurants"})
			return
		}

		utils.ResponseJSON(w, results)
	}
}

func (rc RestaurantController) UpdateLocation(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := utils.VerifyToken(r); err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		restaurantID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid restaurant id"})
			return
		}

		var req UpdateLocationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "latitude and longitude are required"})
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

		if _, err := db.Exec(`UPDATE restaurants SET latitude = ?, longitude = ?, updated_at = ? WHERE id = ?`,
			*req.Latitude, *req.Longitude, now(), restaurantID); err != nil {
			log.WithError(err).Error("failed to update location")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to update location"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Location updated successfully"})
	}
}

func scanRestaurantSummaries(rows *sql.Rows) ([]models.RestaurantSummary, error) {
	results := []models.RestaurantSummary{}
	for rows.Next() {
		var s models.RestaurantSummary
		var avg float64
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.ImageURL, &s.ReviewsCount, &avg); err != nil {
			return nil, err
		}
		s.AvgRating = math.Round(avg*10) / 10
		results = append(results, s)
	}
	return results, rows.Err()
}
