package geocoder

import (
	"fmt"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Mapbox geocodes through the Mapbox places API. Features of place_type
// "address" are preferred over broader matches (neighborhoods, cities).
type Mapbox struct {
	Token   string
	BaseURL string
	Client  *http.Client
}

func NewMapbox(token string, client *http.Client) *Mapbox {
	return &Mapbox{
		Token:   token,
		BaseURL: "https://api.mapbox.com",
		Client:  client,
	}
}

func (g *Mapbox) Geocode(address string) (*LatLng, error) {
	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?access_token=%s&limit=1",
		g.BaseURL, url.PathEscape(address), url.QueryEscape(g.Token))

	resp, err := g.Client.Get(endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "call Mapbox")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Mapbox returned status %d", resp.StatusCode)
	}

	var result struct {
		Features []struct {
			PlaceType []string  `json:"place_type"`
			Center    []float64 `json:"center"` // [lng, lat]
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decode Mapbox response")
	}
	if len(result.Features) == 0 {
		return nil, ErrNotFound
	}

	feature := result.Features[0]
	for _, f := range result.Features {
		if len(f.PlaceType) > 0 && f.PlaceType[0] == "address" {
			feature = f
			break
		}
	}
	if len(feature.Center) < 2 {
		return nil, ErrNotFound
	}

	return &LatLng{Lat: feature.Center[1], Lng: feature.Center[0]}, nil
}
