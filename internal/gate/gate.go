// Package gate implements the outbound-message admission gate: per-identity
// cooldowns, per-user hourly request ceilings and global daily/hourly send
// ceilings, evaluated before any reply is allowed to reach the dispatch queue.
package gate

import (
	"math"
	"sync"
	"time"
)

// Config holds the admission thresholds
type Config struct {
	UserCooldown    time.Duration // min gap between admitted actions per user
	ChatCooldown    time.Duration // min gap between admitted actions per chat
	UserHourlyLimit int           // requests per user per rolling hour
	DailyLimit      int           // global sends per rolling day
	HourlyLimit     int           // global sends per rolling hour
}

// DefaultConfig returns the production thresholds
func DefaultConfig() Config {
	return Config{
		UserCooldown:    3 * time.Second,
		ChatCooldown:    1 * time.Second,
		UserHourlyLimit: 20,
		DailyLimit:      200,
		HourlyLimit:     1000,
	}
}

// Reason classifies why an action was rejected
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUserRateExceeded
	ReasonCooldown
	ReasonDailyLimit
	ReasonHourlyLimit
)

// Decision is the outcome of a single admission evaluation
type Decision struct {
	Allowed   bool
	Reason    Reason
	Remaining time.Duration // time until the rejecting window opens again
}

// RemainingSeconds returns the remaining wait rounded up to whole seconds
func (d Decision) RemainingSeconds() int {
	return int(math.Ceil(d.Remaining.Seconds()))
}

// RemainingMinutes returns the remaining wait rounded up to whole minutes
func (d Decision) RemainingMinutes() int {
	return int(math.Ceil(d.Remaining.Minutes()))
}

type requestWindow struct {
	count int
	start time.Time
}

// Gate tracks cooldowns and rolling counters. All state is owned here and
// mutated only under the gate's lock; callers never see the maps.
type Gate struct {
	cfg Config

	mu            sync.Mutex
	userCooldowns map[string]time.Time
	chatCooldowns map[string]time.Time
	userRequests  map[string]*requestWindow
	dailyCount    int
	hourlyCount   int
	dayStart      time.Time
	hourStart     time.Time
	lastSend      time.Time

	now func() time.Time
}

// New creates an admission gate
func New(cfg Config) *Gate {
	g := &Gate{
		cfg:           cfg,
		userCooldowns: make(map[string]time.Time),
		chatCooldowns: make(map[string]time.Time),
		userRequests:  make(map[string]*requestWindow),
		now:           time.Now,
	}
	g.dayStart = g.now()
	g.hourStart = g.dayStart
	return g
}

// Evaluate decides whether an action for the given user/chat pair may proceed.
// Checks run cheapest and most specific first: the per-user request ceiling,
// then cooldowns (skipped for exempt commands), then the global ceilings.
// The per-user request counter is consumed by the evaluation itself, so even a
// later rejection counts against the requester.
func (g *Gate) Evaluate(userID, chatID string, exempt bool) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	// 1. Per-user request ceiling (rolling hour, lazily reset)
	w := g.userRequests[userID]
	if w == nil || now.Sub(w.start) > time.Hour {
		g.userRequests[userID] = &requestWindow{count: 1, start: now}
	} else if w.count >= g.cfg.UserHourlyLimit {
		return Decision{
			Reason:    ReasonUserRateExceeded,
			Remaining: time.Hour - now.Sub(w.start),
		}
	} else {
		w.count++
	}

	// 2. Cooldowns. The larger of the two remaining windows is reported.
	if !exempt {
		var remaining time.Duration
		if last, ok := g.userCooldowns[userID]; ok {
			if d := g.cfg.UserCooldown - now.Sub(last); d > remaining {
				remaining = d
			}
		}
		if last, ok := g.chatCooldowns[chatID]; ok {
			if d := g.cfg.ChatCooldown - now.Sub(last); d > remaining {
				remaining = d
			}
		}
		if remaining > 0 {
			return Decision{Reason: ReasonCooldown, Remaining: remaining}
		}
	}

	// 3. Global ceilings (windows rolled lazily on access)
	g.rollWindows(now)
	if g.dailyCount >= g.cfg.DailyLimit {
		return Decision{Reason: ReasonDailyLimit}
	}
	if g.hourlyCount >= g.cfg.HourlyLimit {
		return Decision{Reason: ReasonHourlyLimit}
	}

	return Decision{Allowed: true}
}

// SetCooldown stamps both cooldown maps with the current time. Called once
// the admitted action has actually been enqueued, not at evaluation time.
func (g *Gate) SetCooldown(userID, chatID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	g.userCooldowns[userID] = now
	g.chatCooldowns[chatID] = now
}

// RecordSend increments the global send counters. Called once per message
// physically handed to the transport.
func (g *Gate) RecordSend() {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	g.rollWindows(now)
	g.dailyCount++
	g.hourlyCount++
	g.lastSend = now
}

// SendCounts reports the current global daily/hourly counts
func (g *Gate) SendCounts() (daily, hourly int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollWindows(g.now())
	return g.dailyCount, g.hourlyCount
}

func (g *Gate) rollWindows(now time.Time) {
	if now.Sub(g.hourStart) > time.Hour {
		g.hourlyCount = 0
		g.hourStart = now
	}
	if now.Sub(g.dayStart) > 24*time.Hour {
		g.dailyCount = 0
		g.dayStart = now
	}
}
