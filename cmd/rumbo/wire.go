package main

import (
	"fmt"

	"github.com/bowerhall/rumbo/internal/agent"
	"github.com/bowerhall/rumbo/internal/approval"
	"github.com/bowerhall/rumbo/internal/assistant"
	"github.com/bowerhall/rumbo/internal/budget"
	"github.com/bowerhall/rumbo/internal/config"
	"github.com/bowerhall/rumbo/internal/llm"
	"github.com/bowerhall/rumbo/internal/logger"
	"github.com/bowerhall/rumbo/internal/session"
	"github.com/bowerhall/rumbo/internal/tools"
)

type app struct {
	cfg       *config.Config
	assistant *assistant.Service
	sessions  *session.MemoryStore
	budget    *budget.Tracker
}

// build wires the model, tool adapters, state machine and orchestrator.
func build(cfg *config.Config) (*app, error) {
	model, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm: %w", err)
	}

	extractor, err := llm.New(cfg.Extractor)
	if err != nil {
		return nil, fmt.Errorf("create extractor llm: %w", err)
	}

	logger.Info("models ready",
		"provider", model.Provider(), "model", model.Model(),
		"extractor_provider", extractor.Provider(), "extractor_model", extractor.Model(),
	)

	if cfg.Tools.OpenWeatherKey == "" {
		logger.Warn("OPENWEATHER_API_KEY not set, weather lookups will fall back to the model reply")
	}

	geocoder := tools.NewGeocoder(cfg.Tools)
	machine := agent.New(
		model,
		tools.NewCityExtractor(geocoder, extractor),
		tools.NewWeather(cfg.Tools, geocoder),
		tools.NewActivities(cfg.Tools, geocoder, tools.DefaultCatalog()),
		agent.Config{ModelTimeout: cfg.Agent.ModelTimeout},
	)

	var tracker *budget.Tracker
	if cfg.Budget.Enabled {
		tracker = budget.NewTracker(
			budget.Config{DailyLimit: cfg.Budget.DailyLimit, WarnAt: cfg.Budget.WarnAt},
			func(used, limit int) {
				logger.Warn("token budget warning", "used", used, "limit", limit)
			},
			func(used, limit int) {
				logger.Error("token budget exhausted", "used", used, "limit", limit)
			},
		)
		machine.SetBudget(tracker)
		logger.Info("budget enabled", "daily_limit", cfg.Budget.DailyLimit)
	}

	sessions := session.NewMemoryStore()
	svc := assistant.New(machine, sessions, approval.NewManager())
	svc.SetSessionCounter(sessions.Len)

	return &app{
		cfg:       cfg,
		assistant: svc,
		sessions:  sessions,
		budget:    tracker,
	}, nil
}
