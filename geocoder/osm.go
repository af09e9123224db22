package geocoder

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const osmUserAgent = "ReviewFoodApp/1.0 (contact@reviewfood.com)"

// OSM geocodes through the Nominatim search API. Nominatim requires an
// identifying User-Agent.
type OSM struct {
	BaseURL string
	Client  *http.Client
}

func NewOSM(client *http.Client) *OSM {
	return &OSM{
		BaseURL: "https://nominatim.openstreetmap.org",
		Client:  client,
	}
}

func (g *OSM) Geocode(address string) (*LatLng, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequest(http.MethodGet, g.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build OSM request")
	}
	req.Header.Set("User-Agent", osmUserAgent)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call OSM")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OSM returned status %d", resp.StatusCode)
	}

	// Nominatim returns coordinates as strings.
	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, errors.Wrap(err, "decode OSM response")
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, errors.Wrap(err, "parse OSM latitude")
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, errors.Wrap(err, "parse OSM longitude")
	}

	return &LatLng{Lat: lat, Lng: lng}, nil
}
