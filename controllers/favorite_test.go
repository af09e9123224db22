package controllers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gorilla/mux"
)

func TestAddFavoriteTwiceConflicts(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")
	restaurant := seedRestaurant(t, db, "grill", nil, nil)

	fc := FavoriteController{}
	router := mux.NewRouter()
	router.HandleFunc("/restaurants/{id}/favorite", fc.AddFavorite(db)).Methods("POST")

	favorite := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/restaurants/"+strconv.Itoa(restaurant)+"/favorite", nil)
		authorize(t, req, user)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	if rr := favorite(); rr.Code != http.StatusCreated {
		t.Fatalf("first favorite: status = %d, body %s", rr.Code, rr.Body.String())
	}
	if rr := favorite(); rr.Code != http.StatusConflict {
		t.Errorf("second favorite: status = %d, want 409", rr.Code)
	}
	if n := countRows(t, db, "favorites", "user_id = ? AND restaurant_id = ?", user, restaurant); n != 1 {
		t.Errorf("favorite rows = %d, want 1", n)
	}
}

func TestRemoveFavoriteNotFavorited(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")
	restaurant := seedRestaurant(t, db, "grill", nil, nil)

	fc := FavoriteController{}
	router := mux.NewRouter()
	router.HandleFunc("/restaurants/{id}/favorite", fc.RemoveFavorite(db)).Methods("DELETE")

	req := httptest.NewRequest("DELETE", "/restaurants/"+strconv.Itoa(restaurant)+"/favorite", nil)
	authorize(t, req, user)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestAddFavoriteRestaurantMissing(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")

	fc := FavoriteController{}
	router := mux.NewRouter()
	router.HandleFunc("/restaurants/{id}/favorite", fc.AddFavorite(db)).Methods("POST")

	req := httptest.NewRequest("POST", "/restaurants/42/favorite", nil)
	authorize(t, req, user)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}
