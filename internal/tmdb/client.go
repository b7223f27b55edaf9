// Package tmdb is a read-only client for the catalog metadata provider
// (api.themoviedb.org). It supplies the browse, search, and detail lookups
// the portal needs; artwork is addressed via poster paths that the front end
// resolves against the provider's image CDN.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/zerodown/zrs-backend/internal/domain"
)

// ErrNotFound indicates the catalog has no entry for the requested id and
// media type.
var ErrNotFound = errors.New("tmdb: title not found")

// APIError reports an unexpected response from the catalog provider.
type APIError struct {
	Op         string
	StatusCode int
}

// Error renders the operation and remote status.
func (e *APIError) Error() string {
	return fmt.Sprintf("tmdb: %s: unexpected status %d", e.Op, e.StatusCode)
}

// MediaSummary is one catalog search or browse result.
type MediaSummary struct {
	ID           int64            `json:"id"`
	MediaType    domain.MediaType `json:"media_type"`
	Title        string           `json:"title,omitempty"`
	Name         string           `json:"name,omitempty"`
	Overview     string           `json:"overview"`
	PosterPath   string           `json:"poster_path,omitempty"`
	ReleaseDate  string           `json:"release_date,omitempty"`
	FirstAirDate string           `json:"first_air_date,omitempty"`
	VoteAverage  float64          `json:"vote_average"`
}

// MediaDetails is the full detail record for one title.
type MediaDetails struct {
	ID           int64            `json:"id"`
	MediaType    domain.MediaType `json:"-"`
	Title        string           `json:"title,omitempty"`
	Name         string           `json:"name,omitempty"`
	Overview     string           `json:"overview"`
	PosterPath   string           `json:"poster_path,omitempty"`
	ReleaseDate  string           `json:"release_date,omitempty"`
	FirstAirDate string           `json:"first_air_date,omitempty"`
}

// DisplayTitle returns the movie title or series name, whichever is set.
func (d *MediaDetails) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

// Year derives the release year from the release or first-air date.
// Returns 0 when neither date is usable.
func (d *MediaDetails) Year() int {
	date := d.ReleaseDate
	if date == "" {
		date = d.FirstAirDate
	}
	if len(date) < 4 {
		return 0
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		// Some records carry a bare year.
		if y, err2 := time.Parse("2006", date[:4]); err2 == nil {
			return y.Year()
		}
		return 0
	}
	return t.Year()
}

const defaultBaseURL = "https://api.themoviedb.org/3"

// Client queries the catalog metadata provider.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	http     *http.Client
}

// New returns a Client using apiKey and a BCP-47 language tag for localized
// metadata. A nil httpClient gets a 10s-timeout default.
func New(apiKey, language string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if language == "" {
		language = "en-US"
	}
	return &Client{
		baseURL:  defaultBaseURL,
		apiKey:   apiKey,
		language: language,
		http:     httpClient,
	}
}

// WithBaseURL overrides the API origin. Intended for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

type listResponse struct {
	Results []MediaSummary `json:"results"`
}

// get performs one API call and decodes the body into out.
// A 404 maps to ErrNotFound; other non-2xx statuses map to *APIError.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb: %s: %w", op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &APIError{Op: op, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tmdb: %s: decode: %w", op, err)
	}
	return nil
}

// Popular returns the first popular page for movies and series, merged and
// shuffled so the browse view mixes both media types.
func (c *Client) Popular(ctx context.Context) ([]MediaSummary, error) {
	var movies, shows listResponse
	if err := c.get(ctx, "popular movies", "/movie/popular", url.Values{"page": {"1"}}, &movies); err != nil {
		return nil, err
	}
	if err := c.get(ctx, "popular tv", "/tv/popular", url.Values{"page": {"1"}}, &shows); err != nil {
		return nil, err
	}

	combined := make([]MediaSummary, 0, len(movies.Results)+len(shows.Results))
	for _, m := range movies.Results {
		m.MediaType = domain.MediaMovie
		combined = append(combined, m)
	}
	for _, s := range shows.Results {
		s.MediaType = domain.MediaTV
		combined = append(combined, s)
	}
	rand.Shuffle(len(combined), func(i, j int) {
		combined[i], combined[j] = combined[j], combined[i]
	})
	return combined, nil
}

// SearchMulti runs a multi search and keeps only movie and tv results
// (the provider also returns people, which the portal never shows).
func (c *Client) SearchMulti(ctx context.Context, query string) ([]MediaSummary, error) {
	var resp struct {
		Results []struct {
			MediaSummary
			MediaType string `json:"media_type"`
		} `json:"results"`
	}
	if err := c.get(ctx, "search", "/search/multi", url.Values{"query": {query}}, &resp); err != nil {
		return nil, err
	}

	out := make([]MediaSummary, 0, len(resp.Results))
	for _, r := range resp.Results {
		mt := domain.MediaType(r.MediaType)
		if !mt.Valid() {
			continue
		}
		s := r.MediaSummary
		s.MediaType = mt
		out = append(out, s)
	}
	return out, nil
}

// Details fetches the full record for one title. An id that is unknown for
// the given media type yields ErrNotFound.
func (c *Client) Details(ctx context.Context, mediaType domain.MediaType, id int64) (*MediaDetails, error) {
	var d MediaDetails
	path := fmt.Sprintf("/%s/%d", mediaType, id)
	if err := c.get(ctx, "details", path, nil, &d); err != nil {
		return nil, err
	}
	d.MediaType = mediaType
	return &d, nil
}
