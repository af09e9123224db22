package controllers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func TestCreateReviewTxWithImages(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")
	restaurant := seedRestaurant(t, db, "grill", nil, nil)

	reviewID, err := CreateReviewTx(db, user, restaurant, 4, "great food",
		[]string{"/storage/a.jpg", "/storage/b.jpg"})
	if err != nil {
		t.Fatalf("CreateReviewTx: %v", err)
	}

	if n := countRows(t, db, "reviews", "id = ?", reviewID); n != 1 {
		t.Errorf("review rows = %d, want 1", n)
	}
	if n := countRows(t, db, "review_images", "review_id = ?", reviewID); n != 2 {
		t.Errorf("image rows = %d, want 2", n)
	}
}

func TestUpdateReviewTxReplacesImages(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")
	restaurant := seedRestaurant(t, db, "grill", nil, nil)
	review := seedReview(t, db, user, restaurant, 3)
	seedImage(t, db, review, "/storage/old1.jpg")
	seedImage(t, db, review, "/storage/old2.jpg")

	newRating := 5
	if err := UpdateReviewTx(db, review, &newRating, nil,
		[]string{"/storage/new.jpg"}, true); err != nil {
		t.Fatalf("UpdateReviewTx: %v", err)
	}

	var rating int
	if err := db.QueryRow(`SELECT rating FROM reviews WHERE id = ?`, review).Scan(&rating); err != nil {
		t.Fatalf("query rating: %v", err)
	}
	if rating != 5 {
		t.Errorf("rating = %d, want 5", rating)
	}

	rows, err := db.Query(`SELECT image_url FROM review_images WHERE review_id = ?`, review)
	if err != nil {
		t.Fatalf("query images: %v", err)
	}
	defer rows.Close()
	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			t.Fatalf("scan image: %v", err)
		}
		urls = append(urls, url)
	}
	if len(urls) != 1 || urls[0] != "/storage/new.jpg" {
		t.Errorf("images = %v, want only /storage/new.jpg", urls)
	}
}

func TestUpdateReviewTxKeepsImagesWithoutReplace(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")
	restaurant := seedRestaurant(t, db, "grill", nil, nil)
	review := seedReview(t, db, user, restaurant, 3)
	seedImage(t, db, review, "/storage/keep.jpg")

	content := "updated text"
	if err := UpdateReviewTx(db, review, nil, &content, nil, false); err != nil {
		t.Fatalf("UpdateReviewTx: %v", err)
	}

	if n := countRows(t, db, "review_images", "review_id = ?", review); n != 1 {
		t.Errorf("image rows = %d, want 1", n)
	}
	var got string
	if err := db.QueryRow(`SELECT content FROM reviews WHERE id = ?`, review).Scan(&got); err != nil {
		t.Fatalf("query content: %v", err)
	}
	if got != content {
		t.Errorf("content = %q, want %q", got, content)
	}
}

func TestDeleteReviewTxCascades(t *testing.T) {
	db := openTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	restaurant := seedRestaurant(t, db, "grill", nil, nil)
	review := seedReview(t, db, alice, restaurant, 4)
	other := seedReview(t, db, bob, restaurant, 2)

	seedImage(t, db, review, "/storage/a.jpg")
	seedLike(t, db, bob, review)
	seedComment(t, db, bob, review, "nice")
	seedImage(t, db, other, "/storage/other.jpg")

	if err := DeleteReviewTx(db, review); err != nil {
		t.Fatalf("DeleteReviewTx: %v", err)
	}

	for _, table := range []string{"reviews", "review_images", "likes", "comments"} {
		where := "review_id = ?"
		if table == "reviews" {
			where = "id = ?"
		}
		if n := countRows(t, db, table, where, review); n != 0 {
			t.Errorf("%s rows for deleted review = %d, want 0", table, n)
		}
	}

	// Unrelated review untouched.
	if n := countRows(t, db, "review_images", "review_id = ?", other); n != 1 {
		t.Errorf("other review lost its image")
	}
}

func TestCreateRestaurantWithReviewTx(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")

	req := CreateRestaurantRequest{Name: "New Spot", Address: "1 Main St"}
	restaurantID, reviewID, err := CreateRestaurantWithReviewTx(db, user, req, 5, "first!", nil)
	if err != nil {
		t.Fatalf("CreateRestaurantWithReviewTx: %v", err)
	}

	if n := countRows(t, db, "restaurants", "id = ?", restaurantID); n != 1 {
		t.Errorf("restaurant rows = %d, want 1", n)
	}
	var gotRestaurant int
	if err := db.QueryRow(`SELECT restaurant_id FROM reviews WHERE id = ?`, reviewID).Scan(&gotRestaurant); err != nil {
		t.Fatalf("query review: %v", err)
	}
	if gotRestaurant != restaurantID {
		t.Errorf("review restaurant = %d, want %d", gotRestaurant, restaurantID)
	}
}

func TestDeleteRestaurantTxCascades(t *testing.T) {
	db := openTestDB(t)
	alice := seedUser(t, db, "alice")
	restaurant := seedRestaurant(t, db, "grill", nil, nil)
	review := seedReview(t, db, alice, restaurant, 4)
	seedImage(t, db, review, "/storage/a.jpg")
	seedLike(t, db, alice, review)
	seedComment(t, db, alice, review, "mine")
	if _, err := db.Exec(`INSERT INTO favorites (user_id, restaurant_id, created_at) VALUES (?, ?, ?)`,
		alice, restaurant, now()); err != nil {
		t.Fatalf("seed favorite: %v", err)
	}

	if err := DeleteRestaurantTx(db, restaurant); err != nil {
		t.Fatalf("DeleteRestaurantTx: %v", err)
	}

	if n := countRows(t, db, "restaurants", "id = ?", restaurant); n != 0 {
		t.Errorf("restaurant not deleted")
	}
	if n := countRows(t, db, "reviews", "restaurant_id = ?", restaurant); n != 0 {
		t.Errorf("reviews not deleted")
	}
	if n := countRows(t, db, "favorites", "restaurant_id = ?", restaurant); n != 0 {
		t.Errorf("favorites not deleted")
	}
	if n := countRows(t, db, "review_images", "review_id = ?", review); n != 0 {
		t.Errorf("review images not deleted")
	}
	if n := countRows(t, db, "likes", "review_id = ?", review); n != 0 {
		t.Errorf("likes not deleted")
	}
	if n := countRows(t, db, "comments", "review_id = ?", review); n != 0 {
		t.Errorf("comments not deleted")
	}
}

func TestDeleteReviewForbiddenForNonOwner(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "alice")
	intruder := seedUser(t, db, "bob")
	restaurant := seedRestaurant(t, db, "grill", nil, nil)
	review := seedReview(t, db, owner, restaurant, 4)

	rc := ReviewController{}
	router := mux.NewRouter()
	router.HandleFunc("/reviews/{id}", rc.DeleteReview(db)).Methods("DELETE")

	req := httptest.NewRequest("DELETE", "/reviews/"+strconv.Itoa(review), nil)
	authorize(t, req, intruder)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body %s", rr.Code, rr.Body.String())
	}
	if n := countRows(t, db, "reviews", "id = ?", review); n != 1 {
		t.Errorf("review was deleted by non-owner")
	}
	if !strings.Contains(rr.Body.String(), "your own") {
		t.Errorf("unexpected error body: %s", rr.Body.String())
	}
}
