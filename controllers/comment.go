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

type CommentController struct{}

func (cc CommentController) createComment(db *sql.DB, w http.ResponseWriter, userID, reviewID int, content string) {
	req := CreateCommentRequest{ReviewID: reviewID, Content: content}
	if err := validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "content is required and must be at most 1000 characters"})
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

	ts := now()
	result, err := db.Exec(`INSERT INTO comments (user_id, review_id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`, userID, reviewID, content, ts, ts)
	if err != nil {
		log.WithError(err).Error("failed to insert comment")
		utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to add comment"})
		return
	}

	commentID, err := result.LastInsertId()
	if err != nil {
		log.WithError(err).Error("failed to get comment id")
		utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Comment created but failed to retrieve id"})
		return
	}

	user, err := userBrief(db, userID)
	if err != nil {
		log.WithError(err).Error("failed to load comment author")
		utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Comment created but failed to load author"})
		return
	}

	comment := models.Comment{
		ID:        int(commentID),
		UserID:    userID,
		ReviewID:  reviewID,
		Content:   content,
		CreatedAt: ts,
		UpdatedAt: ts,
		User:      user,
	}

	utils.ResponseJSONStatus(w, http.StatusCreated, map[string]interface{}{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// CreateCommentForReview handles POST /reviews/{id}/comment.
func (cc CommentController) CreateCommentForReview(db *sql.DB) http.HandlerFunc {
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

		var req UpdateCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}

		cc.createComment(db, w, userID, reviewID, req.Content)
	}
}

// CreateComment handles POST /comments with the review id in the body.
func (cc CommentController) CreateComment(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		var req CreateCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if req.ReviewID <= 0 {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "review_id is required"})
			return
		}

		cc.createComment(db, w, userID, req.ReviewID, req.Content)
	}
}

func (cc CommentController) GetComments(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		comments, err := reviewComments(db, reviewID)
		if err != nil {
			log.WithError(err).Error("failed to query comments")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get comments"})
			return
		}

		utils.ResponseJSON(w, comments)
	}
}

// UpdateComment only allows the comment's author to change it.
func (cc CommentController) UpdateComment(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		commentID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid comment id"})
			return
		}

		var ownerID int
		err = db.QueryRow(`SELECT user_id FROM comments WHERE id = ?`, commentID).Scan(&ownerID)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Comment not found"})
			return
		}
		if err != nil {
			log.WithError(err).Error("failed to query comment owner")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get comment"})
			return
		}
		if ownerID != userID {
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "You can only update your own comments"})
			return
		}

		var req UpdateCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "content is required and must be at most 1000 characters"})
			return
		}

		if _, err := db.Exec(`UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`,
			req.Content, now(), commentID); err != nil {
			log.WithError(err).Error("failed to update comment")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to update comment"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Comment updated successfully"})
	}
}

// DeleteComment only allows the comment's author to delete it.
func (cc CommentController) DeleteComment(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		commentID, err := utils.StrToInt(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid comment id"})
			return
		}

		var ownerID int
		err = db.QueryRow(`SELECT user_id FROM comments WHERE id = ?`, commentID).Scan(&ownerID)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Comment not found"})
			return
		}
		if err != nil {
			log.WithError(err).Error("failed to query comment owner")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get comment"})
			return
		}
		if ownerID != userID {
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "You can only delete your own comments"})
			return
		}

		if _, err := db.Exec(`DELETE FROM comments WHERE id = ?`, commentID); err != nil {
			log.WithError(err).Error("failed to delete comment")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to delete comment"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Comment deleted successfully"})
	}
}

// GetMyComments lists the caller's comments with review context.
func (cc CommentController) GetMyComments(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: err.Error()})
			return
		}

		rows, err := db.Query(`
			SELECT c.id, c.user_id, c.review_id, c.content, c.created_at, c.updated_at,
			       u.id, u.name, u.avatar
			FROM comments c
			JOIN users u ON u.id = c.user_id
			WHERE c.user_id = ?
			ORDER BY c.created_at DESC, c.id DESC`, userID)
		if err != nil {
			log.WithError(err).Error("failed to query user comments")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get comments"})
			return
		}
		defer rows.Close()

		comments := []models.Comment{}
		for rows.Next() {
			var c models.Comment
			var u models.UserBrief
			if err := rows.Scan(&c.ID, &c.UserID, &c.ReviewID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
				&u.ID, &u.Name, &u.Avatar); err != nil {
				log.WithError(err).Error("failed to scan comment")
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse comments"})
				return
			}
			c.User = &u
			comments = append(comments, c)
		}
		if err := rows.Err(); err != nil {
			log.WithError(err).Error("failed to iterate comments")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get comments"})
			return
		}

		utils.ResponseJSON(w, comments)
	}
}
