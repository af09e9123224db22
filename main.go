package main

import (
	"net/http"
	"os"

	"food-review/controllers"
	"food-review/driver"
	"food-review/geocoder"
	"food-review/recommender"
	"food-review/storage"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file found, relying on environment")
	}
	if os.Getenv("SECRET") == "" {
		log.Fatal("SECRET variable is not set")
	}

	db := driver.ConnectDB()
	defer db.Close()

	if err := driver.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	// `food-review geocode` runs the offline coordinate backfill and exits.
	if len(os.Args) > 1 && os.Args[1] == "geocode" {
		if err := geocoder.GeocodeMissing(db, geocoder.ChainFromEnv()); err != nil {
			log.WithError(err).Error("geocode backfill finished with errors")
			os.Exit(1)
		}
		log.Info("geocode backfill finished")
		return
	}

	store := storage.FromEnv()
	geo := geocoder.ChainFromEnv()
	recClient := recommender.NewClientFromEnv()

	userController := controllers.UserController{}
	restaurantController := controllers.RestaurantController{}
	reviewController := controllers.ReviewController{}
	commentController := controllers.CommentController{}
	likeController := controllers.LikeController{}
	favoriteController := controllers.FavoriteController{}
	categoryController := controllers.CategoryController{}
	recommendationController := controllers.RecommendationController{}

	router := mux.NewRouter()

	router.HandleFunc("/register", userController.Register(db)).Methods("POST")
	router.HandleFunc("/login", userController.Login(db)).Methods("POST")
	router.HandleFunc("/getMe", userController.GetMe(db)).Methods("GET")
	router.HandleFunc("/user/update", userController.UpdateUserInfo(db)).Methods("PUT")
	router.HandleFunc("/user/avatar", userController.UploadAvatar(db, store)).Methods("POST")

	// Literal restaurant paths come before the {id} routes.
	router.HandleFunc("/restaurants", restaurantController.GetRestaurants(db)).Methods("GET")
	router.HandleFunc("/restaurants", restaurantController.CreateRestaurant(db)).Methods("POST")
	router.HandleFunc("/restaurants/basic", restaurantController.CreateRestaurantBasic(db, geo)).Methods("POST")
	router.HandleFunc("/restaurants/nearby", restaurantController.Nearby(db)).Methods("GET")
	router.HandleFunc("/restaurants/top-rated", restaurantController.TopRated(db)).Methods("GET")
	router.HandleFunc("/restaurants/search", restaurantController.Search(db)).Methods("GET")
	router.HandleFunc("/restaurants/{id}", restaurantController.GetRestaurant(db)).Methods("GET")
	router.HandleFunc("/restaurants/{id}", restaurantController.UpdateRestaurant(db)).Methods("PUT")
	router.HandleFunc("/restaurants/{id}", restaurantController.DeleteRestaurant(db)).Methods("DELETE")
	router.HandleFunc("/restaurants/{id}/update-location", restaurantController.UpdateLocation(db)).Methods("PUT")
	router.HandleFunc("/restaurants/{id}/favorite", favoriteController.AddFavorite(db)).Methods("POST")
	router.HandleFunc("/restaurants/{id}/favorite", favoriteController.RemoveFavorite(db)).Methods("DELETE")
	router.HandleFunc("/restaurants/{id}/reviews", reviewController.GetReviewsByRestaurant(db)).Methods("GET")

	router.HandleFunc("/reviews", reviewController.GetReviews(db)).Methods("GET")
	router.HandleFunc("/reviews", reviewController.CreateReview(db, store)).Methods("POST")
	router.HandleFunc("/reviews/with-restaurant", reviewController.CreateReviewWithRestaurant(db, store)).Methods("POST")
	router.HandleFunc("/reviews/my", reviewController.MyReviews(db)).Methods("GET")
	router.HandleFunc("/reviews/commented", reviewController.CommentedReviews(db)).Methods("GET")
	router.HandleFunc("/reviews/liked", reviewController.LikedReviews(db)).Methods("GET")
	router.HandleFunc("/reviews/restaurant/{id}", reviewController.GetReviewsByRestaurant(db)).Methods("GET")
	router.HandleFunc("/reviews/{id}", reviewController.GetReview(db)).Methods("GET")
	router.HandleFunc("/reviews/{id}", reviewController.UpdateReview(db, store)).Methods("PUT")
	router.HandleFunc("/reviews/{id}", reviewController.DeleteReview(db)).Methods("DELETE")
	router.HandleFunc("/reviews/{id}/like", likeController.LikeReview(db)).Methods("POST")
	router.HandleFunc("/reviews/{id}/like", likeController.UnlikeReview(db)).Methods("DELETE")
	router.HandleFunc("/reviews/{id}/comment", commentController.CreateCommentForReview(db)).Methods("POST")
	router.HandleFunc("/reviews/{id}/comments", commentController.GetComments(db)).Methods("GET")

	router.HandleFunc("/comments", commentController.CreateComment(db)).Methods("POST")
	router.HandleFunc("/comments/my", commentController.GetMyComments(db)).Methods("GET")
	router.HandleFunc("/comments/{id}", commentController.UpdateComment(db)).Methods("PUT")
	router.HandleFunc("/comments/{id}", commentController.DeleteComment(db)).Methods("DELETE")

	router.HandleFunc("/categories", categoryController.GetCategories(db)).Methods("GET")
	router.HandleFunc("/categories", categoryController.CreateCategory(db)).Methods("POST")
	router.HandleFunc("/categories/{id}", categoryController.GetCategory(db)).Methods("GET")
	router.HandleFunc("/categories/{id}", categoryController.UpdateCategory(db)).Methods("PUT")
	router.HandleFunc("/categories/{id}", categoryController.DeleteCategory(db)).Methods("DELETE")
	router.HandleFunc("/categories/{id}/restaurants", categoryController.GetRestaurantsByCategory(db)).Methods("GET")

	router.HandleFunc("/favorites", favoriteController.GetFavorites(db)).Methods("GET")
	router.HandleFunc("/recommend", recommendationController.Recommend(db, recClient)).Methods("GET")

	if local, ok := store.(*storage.LocalStore); ok {
		router.PathPrefix("/storage/").Handler(
			http.StripPrefix("/storage/", http.FileServer(http.Dir(local.Dir))))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	log.WithField("port", port).Info("server started")
	log.Fatal(http.ListenAndServe(":"+port, router))
}
