package geocoder

import (
	"database/sql"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// GeocodeMissing resolves coordinates for every restaurant where latitude or
// longitude is NULL, one record at a time. Individual failures are logged and
// collected; the batch always runs to the end.
func GeocodeMissing(db *sql.DB, g Geocoder) error {
	rows, err := db.Query(`SELECT id, name, address FROM restaurants WHERE latitude IS NULL OR longitude IS NULL`)
	if err != nil {
		return errors.Wrap(err, "query restaurants without coordinates")
	}
	defer rows.Close()

	type target struct {
		id      int
		name    string
		address string
	}
	var targets []target
	for rows.Next() {
		var t target
		if err := rows.Scan(&t.id, &t.name, &t.address); err != nil {
			return errors.Wrap(err, "scan restaurant")
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterate restaurants")
	}

	log.WithField("count", len(targets)).Info("geocoding restaurants without coordinates")

	var result *multierror.Error
	for _, t := range targets {
		loc, err := g.Geocode(t.address)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"restaurant_id": t.id,
				"name":          t.name,
			}).Warn("failed to geocode restaurant")
			result = multierror.Append(result, errors.Wrapf(err, "restaurant %d", t.id))
			continue
		}

		if _, err := db.Exec(`UPDATE restaurants SET latitude = ?, longitude = ? WHERE id = ?`,
			loc.Lat, loc.Lng, t.id); err != nil {
			log.WithError(err).WithField("restaurant_id", t.id).Warn("failed to save coordinates")
			result = multierror.Append(result, errors.Wrapf(err, "restaurant %d", t.id))
			continue
		}

		log.WithFields(log.Fields{
			"restaurant_id": t.id,
			"name":          t.name,
			"lat":           loc.Lat,
			"lng":           loc.Lng,
		}).Info("updated restaurant coordinates")
	}

	return result.ErrorOrNil()
}
