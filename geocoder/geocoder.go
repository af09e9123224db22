package geocoder

import (
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound means the provider answered but had no coordinates for the address.
var ErrNotFound = errors.New("address not found")

type LatLng struct {
	Lat float64
	Lng float64
}

// Geocoder resolves a street address to coordinates.
type Geocoder interface {
	Geocode(address string) (*LatLng, error)
}

// Chain tries each geocoder in order and returns the first hit. Provider
// failures are logged and skipped; ErrNotFound is returned only when every
// provider came up empty.
type Chain struct {
	Geocoders []Geocoder
}

func (c *Chain) Geocode(address string) (*LatLng, error) {
	for _, g := range c.Geocoders {
		loc, err := g.Geocode(address)
		if err != nil {
			if err != ErrNotFound {
				log.WithError(err).WithField("address", address).Warn("geocoder provider failed")
			}
			continue
		}
		return loc, nil
	}
	return nil, ErrNotFound
}

// ChainFromEnv builds the default provider order: OSM/Nominatim first, then
// Mapbox when a token is configured.
func ChainFromEnv() *Chain {
	client := &http.Client{Timeout: 10 * time.Second}

	chain := &Chain{Geocoders: []Geocoder{NewOSM(client)}}
	if token := os.Getenv("MAPBOX_TOKEN"); token != "" {
		chain.Geocoders = append(chain.Geocoders, NewMapbox(token, client))
	}
	return chain
}
