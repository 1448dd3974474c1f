package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bowerhall/rumbo/internal/logger"
	"golang.org/x/time/rate"
)

type Address struct {
	City  string `json:"city"`
	Town  string `json:"town"`
	State string `json:"state"`
}

type Place struct {
	Name        string
	DisplayName string
	Lat         float64
	Lon         float64
	Importance  float64
	Address     Address
}

// ShortName is the leading component of the display name ("Roma" for
// "Roma, Roma Capitale, Lacio, Italia").
func (p Place) ShortName() string {
	name, _, _ := strings.Cut(p.DisplayName, ",")
	name = strings.TrimSpace(name)
	if name == "" {
		return p.Name
	}
	return name
}

type nominatimResult struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Importance  float64 `json:"importance"`
	Address     Address `json:"address"`
}

// Geocoder resolves free text to places through a Nominatim endpoint.
type Geocoder struct {
	baseURL   string
	userAgent string
	language  string
	client    *http.Client
	limiter   *rate.Limiter
}

func NewGeocoder(cfg Config) *Geocoder {
	return &Geocoder{
		baseURL:   strings.TrimSuffix(cfg.NominatimURL, "/"),
		userAgent: cfg.UserAgent,
		language:  cfg.Language,
		client:    newHTTPClient(cfg.Timeout),
		limiter:   rate.NewLimiter(rate.Every(cfg.NominatimInterval), 1),
	}
}

// Search returns up to limit candidate places for query.
func (g *Geocoder) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(limit))
	if g.language != "" {
		params.Set("accept-language", g.language)
	}

	req, err := http.NewRequest(http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	var results []nominatimResult
	if err := doJSON(ctx, g.client, req, "nominatim", &results); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			logger.Debug("skipping place with bad coordinates", "name", r.DisplayName)
			continue
		}
		places = append(places, Place{
			Name:        r.Name,
			DisplayName: r.DisplayName,
			Lat:         lat,
			Lon:         lon,
			Importance:  r.Importance,
			Address:     r.Address,
		})
	}

	return places, nil
}

// Locate returns the best match for a city name.
func (g *Geocoder) Locate(ctx context.Context, city string) (Place, error) {
	places, err := g.Search(ctx, city, 1)
	if err != nil {
		return Place{}, err
	}
	if len(places) == 0 {
		return Place{}, fmt.Errorf("locate %q: %w", city, ErrNoResults)
	}
	return places[0], nil
}
