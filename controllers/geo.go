package controllers

import (
	"database/sql"
	"math"
	"sort"
	"strings"

	"food-review/models"

	"github.com/pkg/errors"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// points, using the spherical law of cosines form.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	cosine := math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Cos(rad(lng2-lng1)) +
		math.Sin(rad(lat1))*math.Sin(rad(lat2))

	// Floating-point rounding can push the argument just outside acos's domain.
	cosine = math.Max(-1, math.Min(1, cosine))

	return earthRadiusKm * math.Acos(cosine)
}

// NearbyRestaurants returns restaurants within radiusKm of the point, ordered
// by ascending distance (ties broken by id). Restaurants without coordinates
// are excluded; textFilter, when set, requires a case-insensitive substring
// match on the name.
func NearbyRestaurants(db *sql.DB, lat, lng, radiusKm float64, textFilter string) ([]models.Restaurant, error) {
	query := `SELECT id, name, address, description, latitude, longitude, image_url
		FROM restaurants
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL`
	args := []interface{}{}

	if textFilter != "" {
		query += ` AND LOWER(name) LIKE ?`
		args = append(args, "%"+strings.ToLower(textFilter)+"%")
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query restaurants with coordinates")
	}
	defer rows.Close()

	results := []models.Restaurant{}
	for rows.Next() {
		var r models.Restaurant
		if err := rows.Scan(&r.ID, &r.Name, &r.Address, &r.Description,
			&r.Latitude, &r.Longitude, &r.ImageURL); err != nil {
			return nil, errors.Wrap(err, "scan restaurant")
		}

		distance := Haversine(lat, lng, *r.Latitude, *r.Longitude)
		if distance > radiusKm {
			continue
		}
		r.Distance = &distance
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate restaurants")
	}

	sort.Slice(results, func(i, j int) bool {
		if *results[i].Distance != *results[j].Distance {
			return *results[i].Distance < *results[j].Distance
		}
		return results[i].ID < results[j].ID
	})

	return results, nil
}
