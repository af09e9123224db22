package controllers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

func TestLikeReviewIdempotent(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")
	restaurant := seedRestaurant(t, db, "grill", nil, nil)
	review := seedReview(t, db, user, restaurant, 5)

	lc := LikeController{}
	router := mux.NewRouter()
	router.HandleFunc("/reviews/{id}/like", lc.LikeReview(db)).Methods("POST")

	like := func() map[string]interface{} {
		req := httptest.NewRequest("POST", "/reviews/"+strconv.Itoa(review)+"/like", nil)
		authorize(t, req, user)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
		}
		var body map[string]interface{}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return body
	}

	first := like()
	second := like()

	for i, body := range []map[string]interface{}{first, second} {
		if body["is_liked"] != true {
			t.Errorf("call %d: is_liked = %v, want true", i+1, body["is_liked"])
		}
		if body["likes_count"] != float64(1) {
			t.Errorf("call %d: likes_count = %v, want 1", i+1, body["likes_count"])
		}
	}
	if n := countRows(t, db, "likes", "review_id = ?", review); n != 1 {
		t.Errorf("like rows = %d, want 1", n)
	}
}

func TestUnlikeNeverLikedReview(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")
	restaurant := seedRestaurant(t, db, "grill", nil, nil)
	review := seedReview(t, db, user, restaurant, 5)

	lc := LikeController{}
	router := mux.NewRouter()
	router.HandleFunc("/reviews/{id}/like", lc.UnlikeReview(db)).Methods("DELETE")

	req := httptest.NewRequest("DELETE", "/reviews/"+strconv.Itoa(review)+"/like", nil)
	authorize(t, req, user)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["is_liked"] != false {
		t.Errorf("is_liked = %v, want false", body["is_liked"])
	}
	if body["likes_count"] != float64(0) {
		t.Errorf("likes_count = %v, want 0", body["likes_count"])
	}
}

func TestLikeReviewNotFound(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")

	lc := LikeController{}
	router := mux.NewRouter()
	router.HandleFunc("/reviews/{id}/like", lc.LikeReview(db)).Methods("POST")

	req := httptest.NewRequest("POST", "/reviews/99/like", nil)
	authorize(t, req, user)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestLikeReviewUnauthenticated(t *testing.T) {
	db := openTestDB(t)

	lc := LikeController{}
	router := mux.NewRouter()
	router.HandleFunc("/reviews/{id}/like", lc.LikeReview(db)).Methods("POST")

	req := httptest.NewRequest("POST", "/reviews/1/like", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}
