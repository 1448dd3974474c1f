package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bowerhall/rumbo/internal/logger"
)

type Weather struct {
	geocoder *Geocoder
	baseURL  string
	apiKey   string
	language string
	client   *http.Client
}

func NewWeather(cfg Config, geocoder *Geocoder) *Weather {
	return &Weather{
		geocoder: geocoder,
		baseURL:  strings.TrimSuffix(cfg.OpenWeatherURL, "/"),
		apiKey:   cfg.OpenWeatherKey,
		language: cfg.Language,
		client:   newHTTPClient(cfg.Timeout),
	}
}

type currentWeather struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// Resolve returns a one-line summary such as "Clima en Roma: Cielo claro, 21.5°C.".
func (w *Weather) Resolve(ctx context.Context, city string) (string, error) {
	city = strings.TrimSpace(city)
	if utf8.RuneCountInString(city) < 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCity, city)
	}
	if w.apiKey == "" {
		return "", fmt.Errorf("openweather api key not configured")
	}

	place, err := w.geocoder.Locate(ctx, city)
	if err != nil {
		return "", err
	}

	name := place.ShortName()
	logger.Debug("weather location resolved", "city", name, "lat", place.Lat, "lon", place.Lon)

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(place.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(place.Lon, 'f', -1, 64))
	params.Set("appid", w.apiKey)
	params.Set("units", "metric")
	if w.language != "" {
		params.Set("lang", w.language)
	}

	req, err := http.NewRequest(http.MethodGet, w.baseURL+"/data/2.5/weather?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	var data currentWeather
	if err := doJSON(ctx, w.client, req, "openweather", &data); err != nil {
		return "", err
	}
	if len(data.Weather) == 0 {
		return "", fmt.Errorf("weather for %s: %w", name, ErrNoResults)
	}

	temp := strconv.FormatFloat(data.Main.Temp, 'f', -1, 64)
	return fmt.Sprintf("Clima en %s: %s, %s°C.", name, capitalize(data.Weather[0].Description), temp), nil
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
