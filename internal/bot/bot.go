package bot

import (
	"fmt"
)

func New(cfg Config, a Assistant) (Bot, error) {
	switch cfg.Provider {
	case "telegram":
		return NewTelegram(cfg.Token, a)
	case "discord":
		return NewDiscord(cfg.Token, a)
	default:
		return nil, fmt.Errorf("unknown bot provider: %s", cfg.Provider)
	}
}

func NewTelegram(token string, a Assistant) (Bot, error) {
	return newTelegram(token, a)
}

func NewDiscord(token string, a Assistant) (Bot, error) {
	return newDiscord(token, a)
}
