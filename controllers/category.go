package controllers

import (
	"database/sql"
	"net/http"

	"food-review/models"
	"food-review/utils"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type CategoryController struct{}

func (cc CategoryController) GetCategories(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.Query(`SELECT id, name, image FROM categories ORDER BY id`)
		if err != nil {
			log.WithError(err).Error("failed to query categories")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get categories"})
			return
		}
		defer rows.Close()

		categories := []models.Category{}
		for rows.Next() {
			var c models.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.Image); err != nil {
				log.WithError(err).Error("failed to scan category")
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse categories"})
				return
			}
			categories = append(categories, c)
		}
		if err := rows.Err(); err != nil {
			log.WithError(err).Error("failed to iterate categories")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get categories"})
			return
		}

		utils.ResponseJSON(w, categories)
	}
}

func (cc CategoryController) GetCategory(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid category id"})
			return
		}

		var c models.Category
		err = db.QueryRow(`SELECT id, name, image FROM categories WHERE id = ?`, categoryID).
			Scan(&c.ID, &c.Name, &c.Image)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Category not found"})
			return
		}
		if err != nil {
			log.WithError(err).Error("failed to query category")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get category"})
			return
		}

		utils.ResponseJSON(w, c)
	}
}

// CreateCategory rejects duplicate names as a conflict; the unique key on
// categories.name backs the check.
func (cc CategoryController) CreateCategory(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: err.Error()})
			return
		}

		result, err := db.Exec(`INSERT INTO categories (name, image) VALUES (?, ?)`, req.Name, req.Image)
		if err != nil {
			if isDuplicateKeyErr(err) {
				utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "Category name already exists"})
				return
			}
			log.WithError(err).Error("failed to insert category")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to create category"})
			return
		}

		id, err := result.LastInsertId()
		if err != nil {
			log.WithError(err).Error("failed to get category id")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Category created but failed to retrieve id"})
			return
		}

		utils.ResponseJSONStatus(w, http.StatusCreated, models.Category{ID: int(id), Name: req.Name, Image: req.Image})
	}
}

func (cc CategoryController) UpdateCategory(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid category id"})
			return
		}

		var req CreateCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: err.Error()})
			return
		}

		result, err := db.Exec(`UPDATE categories SET name = ?, image = COALESCE(?, image) WHERE id = ?`,
			req.Name, req.Image, categoryID)
		if err != nil {
			if isDuplicateKeyErr(err) {
				utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "Category name already exists"})
				return
			}
			log.WithError(err).Error("failed to update category")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to update category"})
			return
		}

		affected, err := result.RowsAffected()
		if err == nil && affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Category not found"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Category updated"})
	}
}

func (cc CategoryController) DeleteCategory(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid category id"})
			return
		}

		result, err := db.Exec(`DELETE FROM categories WHERE id = ?`, categoryID)
		if err != nil {
			log.WithError(err).Error("failed to delete category")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to delete category"})
			return
		}
		affected, err := result.RowsAffected()
		if err == nil && affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Category not found"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Category deleted"})
	}
}

// GetRestaurantsByCategory lists a category's restaurants with their rating
// aggregates, best rated first.
func (cc CategoryController) GetRestaurantsByCategory(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid category id"})
			return
		}

		var exists bool
		if err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`, categoryID).Scan(&exists); err != nil {
			log.WithError(err).Error("failed to check category")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to check category"})
			return
		}
		if !exists {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Category not found"})
			return
		}

		rows, err := db.Query(`
			SELECT r.id, r.name, r.address, r.image_url,
			       COUNT(rev.id) AS reviews_count,
			       COALESCE(AVG(rev.rating), 0) AS avg_rating
			FROM restaurants r
			LEFT JOIN reviews rev ON rev.restaurant_id = r.id
			WHERE r.category_id = ?
			GROUP BY r.id, r.name, r.address, r.image_url
			ORDER BY avg_rating DESC, r.id`, categoryID)
		if err != nil {
			log.WithError(err).Error("failed to query category restaurants")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get restaurants"})
			return
		}
		defer rows.Close()

		results, err := scanRestaurantSummaries(rows)
		if err != nil {
			log.WithError(err).Error("failed to scan category restaurants")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse restaurants"})
			return
		}

		utils.ResponseJSON(w, results)
	}
}
