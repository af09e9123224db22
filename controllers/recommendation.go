package controllers

import (
	"database/sql"
	"net/http"
	"strconv"

	"food-review/models"
	"food-review/recommender"
	"food-review/utils"

	log "github.com/sirupsen/logrus"
)

type RecommendationController struct{}

const (
	defaultTopN  = 5
	defaultAlpha = 0.6
)

// Recommend asks the external ranking service for the caller's top
// restaurants and enriches the result with local restaurant data. The
// service's ranking order is preserved as-is.
func (rc RecommendationController) Recommend(db *sql.DB, client *recommender.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		topN := defaultTopN
		if v := r.URL.Query().Get("top_n"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "top_n must be a positive integer"})
				return
			}
			topN = n
		}

		alpha := defaultAlpha
		if v := r.URL.Query().Get("alpha"); v != "" {
			a, err := strconv.ParseFloat(v, 64)
			if err != nil || a < 0 || a > 1 {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "alpha must be between 0 and 1"})
				return
			}
			alpha = a
		}

		ranked, err := client.Recommend(userID, topN, alpha)
		if err != nil {
			if ue, ok := err.(*recommender.UpstreamError); ok {
				log.WithFields(log.Fields{
					"status": ue.StatusCode,
					"body":   ue.Body,
				}).Error("recommender rejected request")
				utils.ResponseJSONStatus(w, http.StatusBadGateway, map[string]interface{}{
					"error":  "Recommendation service error",
					"status": ue.StatusCode,
					"body":   ue.Body,
				})
				return
			}
			log.WithError(err).Error("failed to call recommender")
			utils.RespondWithError(w, http.StatusBadGateway, models.Error{Message: "Recommendation service unavailable"})
			return
		}

		merged, err := rc.mergeLocal(db, ranked)
		if err != nil {
			log.WithError(err).Error("failed to merge recommendations")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to build recommendations"})
			return
		}

		utils.ResponseJSON(w, map[string]interface{}{
			"user_id":         userID,
			"recommendations": merged,
		})
	}
}

// mergeLocal joins ranked ids against the restaurants table. Rows the store
// does not know keep the upstream name with null address and image.
func (rc RecommendationController) mergeLocal(db *sql.DB, ranked []recommender.Recommendation) ([]models.Recommendation, error) {
	merged := make([]models.Recommendation, 0, len(ranked))
	for _, rec := range ranked {
		out := models.Recommendation{
			ID:    rec.ID,
			Name:  rec.Name,
			Score: rec.Score,
		}

		var name string
		var address, imageURL *string
		err := db.QueryRow(`SELECT name, address, image_url FROM restaurants WHERE id = ?`, rec.ID).
			Scan(&name, &address, &imageURL)
		switch err {
		case nil:
			out.Name = name
			out.Address = address
			out.ImageURL = imageURL
		case sql.ErrNoRows:
			// keep the upstream name
		default:
			return nil, err
		}

		merged = append(merged, out)
	}
	return merged, nil
}
