package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrInvalidCity = errors.New("invalid city")
	ErrNoResults   = errors.New("no results")
)

// StatusError is returned when an upstream service answers with a non-200 status.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.Code, e.Body)
}

// Config holds endpoints and client settings shared by the lookup adapters.
type Config struct {
	UserAgent         string
	Language          string
	NominatimURL      string
	NominatimInterval time.Duration
	OpenWeatherURL    string
	OpenWeatherKey    string
	OverpassURL       string
	Timeout           time.Duration
	OverpassTimeout   time.Duration
}

// DefaultConfig returns the public OpenStreetMap and OpenWeatherMap endpoints.
// Nominatim's usage policy allows one request per second.
func DefaultConfig() Config {
	return Config{
		UserAgent:         "Rumbo/1.0 (travel assistant)",
		Language:          "es",
		NominatimURL:      "https://nominatim.openstreetmap.org",
		NominatimInterval: time.Second,
		OpenWeatherURL:    "https://api.openweathermap.org",
		OverpassURL:       "https://overpass-api.de/api/interpreter",
		Timeout:           10 * time.Second,
		OverpassTimeout:   30 * time.Second,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

func doJSON(ctx context.Context, client *http.Client, req *http.Request, service string, out any) error {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%s request: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Service: service, Code: resp.StatusCode, Body: string(body)}
	}

	// limit body size to 5MB
	if err := json.NewDecoder(io.LimitReader(resp.Body, 5*1024*1024)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", service, err)
	}
	return nil
}
