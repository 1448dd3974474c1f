package router

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type ToolIntent int

const (
	NoToolIntent ToolIntent = iota
	WeatherIntent
	ActivitiesIntent
)

func (i ToolIntent) String() string {
	switch i {
	case WeatherIntent:
		return "weather"
	case ActivitiesIntent:
		return "activities"
	default:
		return "none"
	}
}

const DefaultInterest = "cultura"

var weatherWords = []string{"clima", "tiempo", "temperatura"}

var activityWords = []string{
	"actividad", "actividades", "hacer", "recomienda",
	"lugares", "sitios", "visitar", "recomiendame",
}

// Interests is the closed set of activity categories, in match order.
var Interests = []string{"cultura", "aventura", "gastronomia", "historia", "naturaleza"}

// DetectToolIntent picks the tool for an utterance. Weather wins over
// activities when both vocabularies appear.
func DetectToolIntent(utterance string) ToolIntent {
	text := Fold(utterance)
	switch {
	case firstMatch(text, weatherWords) != "":
		return WeatherIntent
	case firstMatch(text, activityWords) != "":
		return ActivitiesIntent
	default:
		return NoToolIntent
	}
}

// DetectInterest returns the first interest named in the utterance, or
// DefaultInterest.
func DetectInterest(utterance string) string {
	if kw := firstMatch(Fold(utterance), Interests); kw != "" {
		return kw
	}
	return DefaultInterest
}

// Fold lowercases s and strips combining marks, so "Gastronomía" and
// "gastronomia" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
