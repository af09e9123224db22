package recommender

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Client talks to the external recommendation service, which scores
// restaurants for a user by blending collaborative and content-based filters.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClientFromEnv() *Client {
	base := os.Getenv("RECOMMENDER_URL")
	if base == "" {
		base = "http://127.0.0.1:5000"
	}
	return &Client{
		BaseURL:    base,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Recommendation is one scored restaurant as returned by the service, in
// ranking order.
type Recommendation struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// UpstreamError carries the recommender's status and body for diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("recommender returned status %d: %s", e.StatusCode, e.Body)
}

// Recommend fetches the top-N ranked restaurants for a user. alpha weighs the
// collaborative filter; the content-based weight is its complement.
func (c *Client) Recommend(userID, topN int, alpha float64) ([]Recommendation, error) {
	params := url.Values{}
	params.Set("user_id", strconv.Itoa(userID))
	params.Set("top_n", strconv.Itoa(topN))
	params.Set("alpha_cf", strconv.FormatFloat(alpha, 'f', -1, 64))
	params.Set("alpha_cbf", strconv.FormatFloat(1-alpha, 'f', -1, 64))

	resp, err := c.HTTPClient.Get(c.BaseURL + "/recommend?" + params.Encode())
	if err != nil {
		return nil, errors.Wrap(err, "call recommender")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decode recommender response")
	}

	return result.Recommendations, nil
}
