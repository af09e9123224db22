package controllers

import (
	"database/sql"
	"net/http"
	"time"

	"food-review/models"
	"food-review/storage"
	"food-review/utils"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

type UserController struct{}

const tokenLifetime = 24 * time.Hour

// Register creates a user and issues a token in one step.
func (uc UserController) Register(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: err.Error()})
			return
		}

		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			log.WithError(err).Error("failed to hash password")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to register"})
			return
		}

		ts := now()
		result, err := db.Exec(`INSERT INTO users (name, email, password, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`, req.Name, req.Email, hash, ts, ts)
		if err != nil {
			if isDuplicateKeyErr(err) {
				utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "Email already registered"})
				return
			}
			log.WithError(err).Error("failed to insert user")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to register"})
			return
		}

		id, err := result.LastInsertId()
		if err != nil {
			log.WithError(err).Error("failed to get user id")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Registered but failed to retrieve id"})
			return
		}

		user := models.User{ID: int(id), Name: req.Name, Email: req.Email, CreatedAt: ts}
		token, err := utils.GenerateToken(user, tokenLifetime)
		if err != nil {
			log.WithError(err).Error("failed to generate token")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to generate token"})
			return
		}

		utils.ResponseJSONStatus(w, http.StatusCreated, map[string]interface{}{
			"user":  user,
			"token": token,
		})
	}
}

func (uc UserController) Login(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: err.Error()})
			return
		}

		var user models.User
		err := db.QueryRow(`SELECT id, name, email, password, avatar FROM users WHERE email = ?`, req.Email).
			Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Avatar)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Invalid email or password"})
			return
		}
		if err != nil {
			log.WithError(err).Error("failed to query user")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to log in"})
			return
		}

		if !utils.ComparePasswords(user.Password, []byte(req.Password)) {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Invalid email or password"})
			return
		}

		token, err := utils.GenerateToken(user, tokenLifetime)
		if err != nil {
			log.WithError(err).Error("failed to generate token")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to generate token"})
			return
		}

		utils.ResponseJSON(w, map[string]interface{}{
			"user":  user,
			"token": token,
		})
	}
}

func (uc UserController) GetMe(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		var user models.User
		err = db.QueryRow(`SELECT id, name, email, avatar, created_at FROM users WHERE id = ?`, userID).
			Scan(&user.ID, &user.Name, &user.Email, &user.Avatar, &user.CreatedAt)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "User not found"})
			return
		}
		if err != nil {
			log.WithError(err).Error("failed to query user")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get user"})
			return
		}

		utils.ResponseJSON(w, user)
	}
}

func (uc UserController) UpdateUserInfo(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		var req UpdateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: err.Error()})
			return
		}

		if _, err := db.Exec(`UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?`,
			req.Name, req.Email, now(), userID); err != nil {
			if isDuplicateKeyErr(err) {
				utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "Email already in use"})
				return
			}
			log.WithError(err).Error("failed to update user")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to update user"})
			return
		}

		var user models.User
		if err := db.QueryRow(`SELECT id, name, email, avatar FROM users WHERE id = ?`, userID).
			Scan(&user.ID, &user.Name, &user.Email, &user.Avatar); err != nil {
			log.WithError(err).Error("failed to reload user")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Updated but failed to load user"})
			return
		}

		utils.ResponseJSON(w, map[string]interface{}{
			"success": true,
			"user":    user,
		})
	}
}

// UploadAvatar stores the uploaded image and records its public URL.
func (uc UserController) UploadAvatar(db *sql.DB, store storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		if err := r.ParseMultipartForm(8 << 20); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid multipart form"})
			return
		}

		file, header, err := r.FormFile("avatar")
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "avatar file is required"})
			return
		}
		defer file.Close()

		url, err := store.Store(file, storage.ObjectName(header.Filename))
		if err != nil {
			log.WithError(err).Error("failed to store avatar")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to upload avatar"})
			return
		}

		if _, err := db.Exec(`UPDATE users SET avatar = ?, updated_at = ? WHERE id = ?`,
			url, now(), userID); err != nil {
			log.WithError(err).Error("failed to save avatar URL")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to save avatar"})
			return
		}

		utils.ResponseJSON(w, map[string]string{
			"message":    "Avatar uploaded successfully",
			"avatar_url": url,
		})
	}
}
