package config

import (
	"time"

	"github.com/bowerhall/rumbo/internal/llm"
	"github.com/bowerhall/rumbo/internal/telemetry"
	"github.com/bowerhall/rumbo/internal/tools"
)

type Config struct {
	Server    ServerConfig
	LLM       llm.Config
	Extractor llm.Config
	Agent     AgentConfig
	Tools     tools.Config
	Session   SessionConfig
	Budget    BudgetConfig
	Bots      MultiBot
	Telemetry telemetry.Config
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

// AgentConfig bounds each model call. Tool deadlines live in tools.Config.
type AgentConfig struct {
	ModelTimeout time.Duration
}

// SessionConfig controls idle eviction. A zero IdleTTL keeps sessions for
// the life of the process.
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepSchedule string
}

type BudgetConfig struct {
	Enabled    bool
	DailyLimit int
	WarnAt     float64
}

type BotInstance struct {
	Enabled bool
	Token   string
}

type MultiBot struct {
	Telegram BotInstance
	Discord  BotInstance
}
