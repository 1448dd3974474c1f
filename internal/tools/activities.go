package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/bowerhall/rumbo/internal/logger"
)

const (
	searchRadiusMeters = 5000
	tagsPerInterest    = 3
	maxCollected       = 12
	maxListed          = 10
)

// names too generic to recommend
var genericNames = map[string]bool{
	"cafe":       true,
	"restaurant": true,
	"bar":        true,
	"park":       true,
}

type Activities struct {
	geocoder    *Geocoder
	overpassURL string
	userAgent   string
	client      *http.Client
	catalog     *Catalog
}

func NewActivities(cfg Config, geocoder *Geocoder, catalog *Catalog) *Activities {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Activities{
		geocoder:    geocoder,
		overpassURL: cfg.OverpassURL,
		userAgent:   cfg.UserAgent,
		client:      newHTTPClient(cfg.OverpassTimeout),
		catalog:     catalog,
	}
}

type overpassResponse struct {
	Elements []struct {
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Recommend lists named points of interest near city for an interest. When
// nothing suitable is found it returns the interest's fallback suggestion.
func (a *Activities) Recommend(ctx context.Context, city, interest string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", ErrInvalidCity
	}

	place, err := a.geocoder.Locate(ctx, city)
	if err != nil {
		return "", err
	}

	category := a.catalog.Lookup(interest)
	tags := category.Tags
	if len(tags) > tagsPerInterest {
		tags = tags[:tagsPerInterest]
	}

	var names []string
	seen := make(map[string]bool)

	for _, tag := range tags {
		if len(names) >= maxCollected {
			break
		}

		logger.Debug("querying overpass", "tag", tag, "city", city)

		found, err := a.query(ctx, tag, place.Lat, place.Lon)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				logger.Warn("overpass query failed", "tag", tag, "status", statusErr.Code)
				continue
			}
			return "", err
		}

		for _, name := range found {
			if seen[name] || utf8.RuneCountInString(name) <= 3 || genericNames[strings.ToLower(name)] {
				continue
			}
			seen[name] = true
			names = append(names, name)
			if len(names) >= maxCollected {
				break
			}
		}
	}

	if len(names) == 0 {
		return formatFallback(city, interest, category.Fallback), nil
	}
	return formatRecommendations(city, interest, names), nil
}

func (a *Activities) query(ctx context.Context, tag string, lat, lon float64) ([]string, error) {
	around := fmt.Sprintf("(around:%d,%g,%g)", searchRadiusMeters, lat, lon)
	q := fmt.Sprintf("[out:json][timeout:25];\n(\n  node[%[1]s]%[2]s;\n  way[%[1]s]%[2]s;\n  relation[%[1]s]%[2]s;\n);\nout center 8;", tag, around)

	form := url.Values{}
	form.Set("data", q)

	req, err := http.NewRequest(http.MethodPost, a.overpassURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", a.userAgent)

	var data overpassResponse
	if err := doJSON(ctx, a.client, req, "overpass", &data); err != nil {
		return nil, err
	}

	var names []string
	for _, el := range data.Elements {
		if name := el.Tags["name"]; name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func formatRecommendations(city, interest string, names []string) string {
	if len(names) > maxListed {
		names = names[:maxListed]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recomendaciones de %s en %s:\n\n", interest, city)
	for _, name := range names {
		fmt.Fprintf(&b, "• %s\n", name)
	}
	b.WriteString("\n💡 Tip: Estos son lugares populares según OpenStreetMap. Verifica horarios y disponibilidad antes de visitar.")
	return b.String()
}

func formatFallback(city, interest, suggestion string) string {
	return fmt.Sprintf("No se encontraron lugares específicos de %s en %s\n\n%s\n\n💡 Tip: Intenta con un interés diferente o explora la ciudad para descubrir lugares únicos.",
		interest, city, suggestion)
}
