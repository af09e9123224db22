package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"food-review/recommender"

	json "github.com/goccy/go-json"
)

func fakeRecommender(t *testing.T, handler http.HandlerFunc) *recommender.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &recommender.Client{BaseURL: server.URL, HTTPClient: server.Client()}
}

func TestRecommendPreservesUpstreamOrder(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")

	// Local ids ascend but the upstream ranking does not.
	first := seedRestaurant(t, db, "first", nil, nil)
	second := seedRestaurant(t, db, "second", nil, nil)
	third := seedRestaurant(t, db, "third", nil, nil)

	client := fakeRecommender(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"recommendations": []map[string]interface{}{
				{"id": third, "name": "third", "score": 0.9},
				{"id": first, "name": "first", "score": 0.7},
				{"id": second, "name": "second", "score": 0.5},
			},
		})
	})

	rc := RecommendationController{}
	req := httptest.NewRequest("GET", "/recommend", nil)
	authorize(t, req, user)
	rr := httptest.NewRecorder()
	rc.Recommend(db, client)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var body struct {
		UserID          int `json:"user_id"`
		Recommendations []struct {
			ID      int     `json:"id"`
			Name    string  `json:"name"`
			Address *string `json:"address"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body.UserID != user {
		t.Errorf("user_id = %d, want %d", body.UserID, user)
	}
	wantOrder := []int{third, first, second}
	if len(body.Recommendations) != 3 {
		t.Fatalf("got %d recommendations, want 3", len(body.Recommendations))
	}
	for i, want := range wantOrder {
		if body.Recommendations[i].ID != want {
			t.Errorf("position %d: id = %d, want %d", i, body.Recommendations[i].ID, want)
		}
	}
	// Known restaurants are enriched with local data.
	if body.Recommendations[0].Address == nil {
		t.Errorf("known restaurant missing address enrichment")
	}
}

func TestRecommendUnknownIDKeepsUpstreamName(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")

	client := fakeRecommender(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"recommendations": []map[string]interface{}{
				{"id": 9999, "name": "Mystery Diner", "score": 0.8},
			},
		})
	})

	rc := RecommendationController{}
	req := httptest.NewRequest("GET", "/recommend", nil)
	authorize(t, req, user)
	rr := httptest.NewRecorder()
	rc.Recommend(db, client)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Recommendations []struct {
			Name     string  `json:"name"`
			Address  *string `json:"address"`
			ImageURL *string `json:"image_url"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Recommendations) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(body.Recommendations))
	}
	rec := body.Recommendations[0]
	if rec.Name != "Mystery Diner" {
		t.Errorf("name = %q, want upstream name", rec.Name)
	}
	if rec.Address != nil || rec.ImageURL != nil {
		t.Errorf("address/image should be null for unknown restaurant")
	}
}

func TestRecommendUpstreamFailure(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")

	client := fakeRecommender(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model not trained"))
	})

	rc := RecommendationController{}
	req := httptest.NewRequest("GET", "/recommend", nil)
	authorize(t, req, user)
	rr := httptest.NewRecorder()
	rc.Recommend(db, client)(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != float64(http.StatusInternalServerError) {
		t.Errorf("status field = %v, want 500", body["status"])
	}
	if body["body"] != "model not trained" {
		t.Errorf("body field = %v, want upstream body", body["body"])
	}
}

func TestRecommendRequiresAuth(t *testing.T) {
	db := openTestDB(t)
	client := fakeRecommender(t, func(w http.ResponseWriter, r *http.Request) {})

	rc := RecommendationController{}
	req := httptest.NewRequest("GET", "/recommend", nil)
	rr := httptest.NewRecorder()
	rc.Recommend(db, client)(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestRecommendParamValidation(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")
	client := fakeRecommender(t, func(w http.ResponseWriter, r *http.Request) {})

	rc := RecommendationController{}
	tests := []struct {
		name string
		url  string
	}{
		{"negative top_n", "/recommend?top_n=-1"},
		{"non-numeric top_n", "/recommend?top_n=abc"},
		{"alpha above 1", "/recommend?alpha=1.5"},
		{"non-numeric alpha", "/recommend?alpha=x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)
			authorize(t, req, user)
			rr := httptest.NewRecorder()
			rc.Recommend(db, client)(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}
