package tools

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/bowerhall/rumbo/internal/llm"
	"github.com/bowerhall/rumbo/internal/logger"
	"github.com/bowerhall/rumbo/internal/router"
)

const (
	candidateLimit = 5
	minImportance  = 0.3
)

// words removed from an utterance before it is geocoded, compared after
// accent folding
var stopwords = toSet(
	// commands
	"dime", "dame", "busca", "muestrame", "ensename", "indicame", "informame",
	"quiero", "puedo", "puedes", "recomienda", "recomiendame", "hay",
	// function words
	"cual", "que", "el", "la", "los", "las", "en", "de", "del", "sobre", "por",
	"favor", "me", "un", "una", "unos", "unas", "para", "y", "a", "al", "con", "hoy",
	// tool vocabulary
	"tiempo", "clima", "temperatura", "hace", "hacer", "actividad", "actividades",
	"lugares", "sitios", "visitar",
	"cultura", "aventura", "gastronomia", "historia", "naturaleza",
)

// CityExtractor finds a real city name in free text: it geocodes the
// cleaned utterance and asks a model to confirm each candidate.
type CityExtractor struct {
	geocoder *Geocoder
	model    llm.LLM
}

func NewCityExtractor(geocoder *Geocoder, model llm.LLM) *CityExtractor {
	return &CityExtractor{geocoder: geocoder, model: model}
}

// Extract returns the first confirmed city, or false. Lookup and model
// failures are logged and treated as no city.
func (e *CityExtractor) Extract(ctx context.Context, utterance string) (string, bool) {
	query := CleanUtterance(utterance)
	if query == "" {
		return "", false
	}

	places, err := e.geocoder.Search(ctx, query, candidateLimit)
	if err != nil {
		logger.Warn("city geocoding failed", "query", query, "error", err)
		return "", false
	}

	for _, p := range places {
		if p.Importance <= minImportance {
			continue
		}
		candidate := candidateName(p)
		if candidate == "" {
			continue
		}

		ok, err := e.confirm(ctx, candidate)
		if err != nil {
			logger.Warn("city confirmation failed", "candidate", candidate, "error", err)
			return "", false
		}
		if ok {
			logger.Debug("city extracted", "city", candidate, "importance", p.Importance)
			return candidate, true
		}
		logger.Debug("city rejected by model", "candidate", candidate)
	}

	return "", false
}

func (e *CityExtractor) confirm(ctx context.Context, candidate string) (bool, error) {
	question := fmt.Sprintf("¿'%s' es una ciudad real del mundo? Responde solo con 'sí' o 'no'.", candidate)

	resp, err := e.model.Chat(ctx, "", []llm.Message{{Role: llm.RoleUser, Content: question}})
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(resp.Content), "sí"), nil
}

func candidateName(p Place) string {
	switch {
	case p.Address.City != "":
		return p.Address.City
	case p.Address.Town != "":
		return p.Address.Town
	case p.Address.State != "":
		return p.Address.State
	default:
		return p.Name
	}
}

// CleanUtterance strips punctuation and stopwords, keeping the original
// casing of the remaining words.
func CleanUtterance(utterance string) string {
	words := strings.FieldsFunc(utterance, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})

	kept := words[:0]
	for _, w := range words {
		if !stopwords[router.Fold(w)] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
