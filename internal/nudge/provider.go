// Package nudge decides when the assistant speaks up unprompted. Providers
// produce candidate notifications from whatever signal they watch, and the
// orchestrator rations them through quiet hours, daily caps and a dedup
// window before anything reaches the user.
package nudge

import "context"

// Candidate is one notification a provider would like to send. Key names
// the underlying fact and stays stable until that fact goes stale, so the
// history store can suppress repeats.
type Candidate struct {
	Provider string `json:"provider"`
	Key      string `json:"key"`
	Text     string `json:"text"`
}

// Provider is one self-contained nudge source. Check must be safe to call
// repeatedly with the same world state; the orchestrator handles dedup.
type Provider interface {
	// ID names the provider in logs, stats and diversification.
	ID() string
	// Available reports whether the provider has what it needs to run.
	// Unavailable providers are skipped without error.
	Available() bool
	Check(ctx context.Context) ([]Candidate, error)
}

// Sender delivers one rendered nudge to the user.
type Sender interface {
	Send(ctx context.Context, text string) error
}
