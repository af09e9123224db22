package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"food-review/geocoder"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type stubGeocoder struct {
	loc *geocoder.LatLng
	err error
}

func (s *stubGeocoder) Geocode(address string) (*geocoder.LatLng, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.loc, nil
}

func TestNearbyRequiresCoordinates(t *testing.T) {
	db := openTestDB(t)
	rc := RestaurantController{}

	tests := []struct {
		name string
		url  string
		want int
	}{
		{"missing both", "/restaurants/nearby", http.StatusBadRequest},
		{"missing lng", "/restaurants/nearby?lat=1", http.StatusBadRequest},
		{"missing lat", "/restaurants/nearby?lng=1", http.StatusBadRequest},
		{"non-numeric lat", "/restaurants/nearby?lat=abc&lng=1", http.StatusBadRequest},
		{"negative radius", "/restaurants/nearby?lat=0&lng=0&radius=-1", http.StatusBadRequest},
		{"valid", "/restaurants/nearby?lat=0&lng=0", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)
			rr := httptest.NewRecorder()
			rc.Nearby(db)(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestTopRatedOrdering(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")

	quiet := seedRestaurant(t, db, "quiet", nil, nil)
	popular := seedRestaurant(t, db, "popular", nil, nil)
	seedReview(t, db, user, quiet, 5)
	for i := 0; i < 3; i++ {
		u := seedUser(t, db, "reviewer"+string(rune('a'+i)))
		seedReview(t, db, u, popular, 4)
	}

	rc := RestaurantController{}
	req := httptest.NewRequest("GET", "/restaurants/top-rated?limit=2", nil)
	rr := httptest.NewRecorder()
	rc.TopRated(db)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var results []struct {
		ID           int     `json:"id"`
		ReviewsCount int     `json:"reviews_count"`
		AvgRating    float64 `json:"avg_rating"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != popular || results[0].ReviewsCount != 3 {
		t.Errorf("first = %+v, want popular with 3 reviews", results[0])
	}
	if results[0].AvgRating != 4 {
		t.Errorf("avg_rating = %v, want 4", results[0].AvgRating)
	}
}

func TestSearchEmptyKeyword(t *testing.T) {
	db := openTestDB(t)
	seedRestaurant(t, db, "anything", nil, nil)

	rc := RestaurantController{}
	req := httptest.NewRequest("GET", "/restaurants/search", nil)
	rr := httptest.NewRecorder()
	rc.Search(db)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("body = %s, want empty list", body)
	}
}

func TestSearchMatchesNameAndAddress(t *testing.T) {
	db := openTestDB(t)
	seedRestaurant(t, db, "Pho House", nil, nil)        // address "Pho House street"
	seedRestaurant(t, db, "Taco Town", nil, nil)

	rc := RestaurantController{}
	req := httptest.NewRequest("GET", "/restaurants/search?q=Pho", nil)
	rr := httptest.NewRecorder()
	rc.Search(db)(rr, req)

	var results []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Pho House" {
		t.Errorf("got %+v, want only Pho House", results)
	}
}

func TestCreateRestaurantBasicGeocodes(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")

	rc := RestaurantController{}
	handler := rc.CreateRestaurantBasic(db, &stubGeocoder{loc: &geocoder.LatLng{Lat: 48.85, Lng: 2.35}})

	req := httptest.NewRequest("POST", "/restaurants/basic",
		strings.NewReader(`{"name":"Bistro","address":"1 Rue de Paris"}`))
	authorize(t, req, user)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Latitude == nil || *body.Latitude != 48.85 || body.Longitude == nil || *body.Longitude != 2.35 {
		t.Errorf("coordinates = %v/%v, want geocoded values", body.Latitude, body.Longitude)
	}
}

func TestCreateRestaurantBasicGeocoderDownStillSaves(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")

	rc := RestaurantController{}
	handler := rc.CreateRestaurantBasic(db, &stubGeocoder{err: errors.New("provider down")})

	req := httptest.NewRequest("POST", "/restaurants/basic",
		strings.NewReader(`{"name":"Bistro","address":"1 Rue de Paris"}`))
	authorize(t, req, user)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if n := countRows(t, db, "restaurants", "name = ? AND latitude IS NULL", "Bistro"); n != 1 {
		t.Errorf("restaurant not saved without coordinates")
	}
}

func TestCreateRestaurantBasicRepairsMissingCoordinates(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")

	ts := now()
	if _, err := db.Exec(`INSERT INTO restaurants (name, address, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		"Bistro", "1 Rue de Paris", ts, ts); err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}

	rc := RestaurantController{}
	handler := rc.CreateRestaurantBasic(db, &stubGeocoder{loc: &geocoder.LatLng{Lat: 1, Lng: 2}})

	req := httptest.NewRequest("POST", "/restaurants/basic",
		strings.NewReader(`{"name":"Bistro","address":"1 Rue de Paris"}`))
	authorize(t, req, user)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 repair, body %s", rr.Code, rr.Body.String())
	}
	if n := countRows(t, db, "restaurants", "name = ?", "Bistro"); n != 1 {
		t.Errorf("restaurant rows = %d, want 1 (no duplicate)", n)
	}
	if n := countRows(t, db, "restaurants", "name = ? AND latitude = 1 AND longitude = 2", "Bistro"); n != 1 {
		t.Errorf("coordinates not repaired")
	}
}

func TestCreateRestaurantBasicCompleteDuplicateConflicts(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")
	seedRestaurant(t, db, "Bistro", floatPtr(1), floatPtr(2))

	rc := RestaurantController{}
	handler := rc.CreateRestaurantBasic(db, &stubGeocoder{loc: &geocoder.LatLng{Lat: 9, Lng: 9}})

	req := httptest.NewRequest("POST", "/restaurants/basic",
		strings.NewReader(`{"name":"Bistro","address":"Bistro street"}`))
	authorize(t, req, user)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body %s", rr.Code, rr.Body.String())
	}
	// The existing coordinates are untouched.
	if n := countRows(t, db, "restaurants", "name = ? AND latitude = 1 AND longitude = 2", "Bistro"); n != 1 {
		t.Errorf("existing restaurant was modified")
	}
}

func TestGetRestaurantWithStats(t *testing.T) {
	db := openTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	restaurant := seedRestaurant(t, db, "grill", nil, nil)
	seedReview(t, db, alice, restaurant, 4)
	seedReview(t, db, bob, restaurant, 5)
	if _, err := db.Exec(`INSERT INTO favorites (user_id, restaurant_id, created_at) VALUES (?, ?, ?)`,
		alice, restaurant, now()); err != nil {
		t.Fatalf("seed favorite: %v", err)
	}

	rc := RestaurantController{}
	router := mux.NewRouter()
	router.HandleFunc("/restaurants/{id}", rc.GetRestaurant(db)).Methods("GET")

	req := httptest.NewRequest("GET", "/restaurants/1", nil)
	authorize(t, req, alice)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["reviews_count"] != float64(2) {
		t.Errorf("reviews_count = %v, want 2", body["reviews_count"])
	}
	if body["avg_rating"] != float64(4.5) {
		t.Errorf("avg_rating = %v, want 4.5", body["avg_rating"])
	}
	if body["is_favorite"] != true {
		t.Errorf("is_favorite = %v, want true for the favoriting viewer", body["is_favorite"])
	}
	if body["favorites_count"] != float64(1) {
		t.Errorf("favorites_count = %v, want 1", body["favorites_count"])
	}
}
