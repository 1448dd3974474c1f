package budget

import (
	"sync"
	"time"
)

// Tracker enforces a daily token cap on model calls. It resets at local
// midnight in the configured timezone.
type Tracker struct {
	mu         sync.Mutex
	dailyLimit int
	warnAt     float64
	tokens     int
	lastReset  time.Time
	onWarn     func(used, limit int)
	onExceeded func(used, limit int)
	warnSent   bool
	timezone   *time.Location
	today      Summary
	now        func() time.Time
}

type Config struct {
	DailyLimit int
	WarnAt     float64
	Timezone   *time.Location
}

// Summary is today's usage broken down by model.
type Summary struct {
	TotalRequests     int
	TotalInputTokens  int
	TotalOutputTokens int
	TotalCostUSD      float64
	ByModel           map[string]ModelUsage
}

type ModelUsage struct {
	Provider     string
	Requests     int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

func NewTracker(cfg Config, onWarn, onExceeded func(used, limit int)) *Tracker {
	tz := cfg.Timezone
	if tz == nil {
		tz = time.UTC
	}

	t := &Tracker{
		dailyLimit: cfg.DailyLimit,
		warnAt:     cfg.WarnAt,
		onWarn:     onWarn,
		onExceeded: onExceeded,
		timezone:   tz,
		now:        time.Now,
	}
	t.lastReset = t.now().In(tz)
	t.today = Summary{ByModel: make(map[string]ModelUsage)}
	return t
}

func (t *Tracker) Add(tokens int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkReset()
	return t.add(tokens)
}

// Record accounts a completed model call and reports whether the budget
// still has room.
func (t *Tracker) Record(provider, model string, inputTokens, outputTokens int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkReset()

	cost := CalculateCost(provider, model, inputTokens, outputTokens)

	t.today.TotalRequests++
	t.today.TotalInputTokens += inputTokens
	t.today.TotalOutputTokens += outputTokens
	t.today.TotalCostUSD += cost

	m := t.today.ByModel[model]
	m.Provider = provider
	m.Requests++
	m.InputTokens += inputTokens
	m.OutputTokens += outputTokens
	m.CostUSD += cost
	t.today.ByModel[model] = m

	return t.add(inputTokens + outputTokens)
}

// Exhausted reports whether today's cap has been reached.
func (t *Tracker) Exhausted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkReset()
	return t.tokens >= t.dailyLimit
}

func (t *Tracker) Usage() (used, limit int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkReset()
	return t.tokens, t.dailyLimit
}

func (t *Tracker) Today() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkReset()
	s := t.today
	s.ByModel = make(map[string]ModelUsage, len(t.today.ByModel))
	for k, v := range t.today.ByModel {
		s.ByModel[k] = v
	}
	return s
}

// must hold lock
func (t *Tracker) add(tokens int) bool {
	t.tokens += tokens

	if t.tokens >= t.dailyLimit {
		if t.onExceeded != nil {
			t.onExceeded(t.tokens, t.dailyLimit)
		}
		return false
	}

	if !t.warnSent && float64(t.tokens) >= float64(t.dailyLimit)*t.warnAt {
		t.warnSent = true

		if t.onWarn != nil {
			t.onWarn(t.tokens, t.dailyLimit)
		}
	}

	return true
}

// must hold lock
func (t *Tracker) checkReset() {
	now := t.now().In(t.timezone)
	if now.YearDay() != t.lastReset.YearDay() || now.Year() != t.lastReset.Year() {
		t.tokens = 0
		t.warnSent = false
		t.lastReset = now
		t.today = Summary{ByModel: make(map[string]ModelUsage)}
	}
}
