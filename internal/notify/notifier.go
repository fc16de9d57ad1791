// Package notify delivers rendered messages to the user.
package notify

import "context"

// Notifier sends one message to the configured chat. formatted selects
// markdown rendering; plain text goes out untouched.
type Notifier interface {
	Send(ctx context.Context, text string, formatted bool) error
	Close() error
}
