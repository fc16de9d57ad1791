package nudge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config bounds how chatty the proactive channel is allowed to be.
type Config struct {
	QuietStart      int // hour 0-23, inclusive
	QuietEnd        int // hour 0-23, exclusive
	DailyCap        int
	PerTickCap      int
	DedupWindow     time.Duration
	ProviderTimeout time.Duration
}

// Orchestrator runs the nudge pipeline: gate, collect, dedup, diversify,
// send, record. Every tick rebuilds its view of the world from the history
// store and the providers; nothing is carried between ticks in memory.
type Orchestrator struct {
	cfg       Config
	providers []Provider
	history   *History
	sender    Sender
	log       zerolog.Logger

	mu  sync.Mutex
	now func() time.Time
}

func NewOrchestrator(cfg Config, providers []Provider, history *History, sender Sender, log zerolog.Logger) *Orchestrator {
	if cfg.DailyCap <= 0 {
		cfg.DailyCap = 8
	}
	if cfg.PerTickCap <= 0 {
		cfg.PerTickCap = 3
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 24 * time.Hour
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 15 * time.Second
	}
	return &Orchestrator{
		cfg:       cfg,
		providers: providers,
		history:   history,
		sender:    sender,
		log:       log,
		now:       time.Now,
	}
}

// RunTick runs one full check cycle and returns the texts actually sent.
// Concurrent calls serialize; a delivery failure skips the record step so
// the nudge stays eligible next tick.
func (o *Orchestrator) RunTick(ctx context.Context) ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	if inQuietHours(o.cfg.QuietStart, o.cfg.QuietEnd, now.Hour()) {
		o.log.Info().Int("hour", now.Hour()).Msg("nudge check skipped, quiet hours")
		return nil, nil
	}

	sentToday, err := o.history.SentToday()
	if err != nil {
		return nil, err
	}
	if sentToday >= o.cfg.DailyCap {
		o.log.Info().Int("sent_today", sentToday).Int("cap", o.cfg.DailyCap).
			Msg("nudge check skipped, daily cap reached")
		return nil, nil
	}
	budget := o.cfg.PerTickCap
	if remaining := o.cfg.DailyCap - sentToday; remaining < budget {
		budget = remaining
	}

	candidates := o.collect(ctx)
	if len(candidates) == 0 {
		o.log.Debug().Msg("nudge check, no candidates")
		return nil, nil
	}

	fresh := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		recent, err := o.history.RecentlySent(c.Key, o.cfg.DedupWindow)
		if err != nil {
			return nil, err
		}
		if !recent {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		o.log.Debug().Int("candidates", len(candidates)).
			Msg("nudge check, all candidates recently sent")
		return nil, nil
	}

	selected := diversify(fresh, budget)

	var sent []string
	for _, c := range selected {
		if err := o.sender.Send(ctx, c.Text); err != nil {
			o.log.Error().Err(err).Str("key", c.Key).Msg("nudge delivery failed")
			continue
		}
		if err := o.history.Record(c.Key, c.Text); err != nil {
			o.log.Error().Err(err).Str("key", c.Key).Msg("nudge sent but not recorded")
		}
		o.log.Info().Str("key", c.Key).Str("provider", c.Provider).Msg("nudge sent")
		sent = append(sent, c.Text)
	}

	o.log.Info().
		Int("sent", len(sent)).
		Int("candidates", len(candidates)).
		Int("fresh", len(fresh)).
		Int("today_total", sentToday+len(sent)).
		Msg("nudge check complete")
	return sent, nil
}

// collect gathers candidates from every available provider. A provider
// failure or timeout costs only that provider's candidates.
func (o *Orchestrator) collect(ctx context.Context) []Candidate {
	var all []Candidate
	for _, p := range o.providers {
		if !p.Available() {
			continue
		}
		pctx, cancel := context.WithTimeout(ctx, o.cfg.ProviderTimeout)
		results, err := runCheck(pctx, p)
		cancel()
		if err != nil {
			o.log.Error().Err(err).Str("provider", p.ID()).Msg("nudge provider failed")
			continue
		}
		for _, c := range results {
			c.Provider = p.ID()
			all = append(all, c)
		}
	}
	return all
}

// runCheck converts a provider panic into an error so one misbehaving
// provider cannot take the tick down with it.
func runCheck(ctx context.Context, p Provider) (results []Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("check panicked: %v", r)
		}
	}()
	return p.Check(ctx)
}

// diversify picks up to budget candidates, first one per provider in
// provider order, then fills remaining room with seconds.
func diversify(fresh []Candidate, budget int) []Candidate {
	var selected []Candidate
	seen := make(map[string]bool)
	for _, c := range fresh {
		if len(selected) >= budget {
			break
		}
		if seen[c.Provider] {
			continue
		}
		seen[c.Provider] = true
		selected = append(selected, c)
	}
	if len(selected) < budget {
		for _, c := range fresh {
			if len(selected) >= budget {
				break
			}
			if !containsCandidate(selected, c) {
				selected = append(selected, c)
			}
		}
	}
	return selected
}

func containsCandidate(list []Candidate, c Candidate) bool {
	for _, s := range list {
		if s.Key == c.Key && s.Text == c.Text {
			return true
		}
	}
	return false
}

// inQuietHours handles windows that wrap midnight, like the default 23-7.
func inQuietHours(start, end, hour int) bool {
	if start == end {
		return false
	}
	if start > end {
		return hour >= start || hour < end
	}
	return hour >= start && hour < end
}
