package nudge

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/RichardEchols/kiyomi-lite/internal/config"
	"github.com/RichardEchols/kiyomi-lite/internal/store"
)

// HistoryEntry is one sent nudge.
type HistoryEntry struct {
	Key    string    `json:"key"`
	Text   string    `json:"text"` // truncated copy, for stats and debugging
	SentAt time.Time `json:"ts"`
}

type historyFile struct {
	Sent []HistoryEntry `json:"sent"`
}

// maxRecordedText bounds how much nudge copy is kept per entry.
const maxRecordedText = 200

// Limits are the host-configured caps echoed by Stats and the retention
// window applied when Record prunes.
type Limits struct {
	RetentionDays int
	DailyCap      int
	PerTickCap    int
}

// History is the persisted send log behind dedup, the daily cap and stats.
type History struct {
	store  *store.Store
	limits Limits
	now    func() time.Time
}

func NewHistory(st *store.Store) *History {
	return NewHistoryWithLimits(st, Limits{})
}

func NewHistoryWithLimits(st *store.Store, l Limits) *History {
	if l.RetentionDays <= 0 {
		l.RetentionDays = config.DefaultHistoryRetentionDays
	}
	if l.DailyCap <= 0 {
		l.DailyCap = config.DefaultDailyCap
	}
	if l.PerTickCap <= 0 {
		l.PerTickCap = config.DefaultPerTickCap
	}
	return &History{store: st, limits: l, now: time.Now}
}

// RecentlySent reports whether key's most recent send falls inside the
// dedup window. Older sends of the same key do not count.
func (h *History) RecentlySent(key string, window time.Duration) (bool, error) {
	var f historyFile
	if err := h.store.Load(&f); err != nil {
		return false, fmt.Errorf("load nudge history: %w", err)
	}
	cutoff := h.now().Add(-window)
	for i := len(f.Sent) - 1; i >= 0; i-- {
		if f.Sent[i].Key == key {
			return f.Sent[i].SentAt.After(cutoff), nil
		}
	}
	return false, nil
}

// SentToday counts entries stamped with today's date.
func (h *History) SentToday() (int, error) {
	var f historyFile
	if err := h.store.Load(&f); err != nil {
		return 0, fmt.Errorf("load nudge history: %w", err)
	}
	today := h.now().Format("2006-01-02")
	count := 0
	for _, e := range f.Sent {
		if e.SentAt.Format("2006-01-02") == today {
			count++
		}
	}
	return count, nil
}

// Record appends a sent nudge and prunes entries older than the retention
// window in the same write.
func (h *History) Record(key, text string) error {
	var f historyFile
	if err := h.store.Load(&f); err != nil {
		return fmt.Errorf("load nudge history: %w", err)
	}
	if len(text) > maxRecordedText {
		cut := maxRecordedText
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	f.Sent = append(f.Sent, HistoryEntry{Key: key, Text: text, SentAt: h.now()})

	cutoff := h.now().AddDate(0, 0, -h.limits.RetentionDays)
	kept := f.Sent[:0]
	for _, e := range f.Sent {
		if !e.SentAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	f.Sent = kept

	if err := h.store.Save(f); err != nil {
		return fmt.Errorf("save nudge history: %w", err)
	}
	return nil
}

// Clear drops the whole send log.
func (h *History) Clear() error {
	if err := h.store.Save(historyFile{Sent: []HistoryEntry{}}); err != nil {
		return fmt.Errorf("clear nudge history: %w", err)
	}
	return nil
}

// Stats summarizes the send log for the status command.
type Stats struct {
	TotalInHistory int            `json:"totalInHistory"`
	SentToday      int            `json:"sentToday"`
	DailyLimit     int            `json:"dailyLimit"`
	PerTickLimit   int            `json:"perTickLimit"`
	ByType         map[string]int `json:"byType"`
}

func (h *History) Stats() (Stats, error) {
	var f historyFile
	if err := h.store.Load(&f); err != nil {
		return Stats{}, fmt.Errorf("load nudge history: %w", err)
	}
	s := Stats{
		TotalInHistory: len(f.Sent),
		DailyLimit:     h.limits.DailyCap,
		PerTickLimit:   h.limits.PerTickCap,
		ByType:         make(map[string]int),
	}
	today := h.now().Format("2006-01-02")
	for _, e := range f.Sent {
		if e.SentAt.Format("2006-01-02") == today {
			s.SentToday++
		}
		prefix := e.Key
		if i := strings.IndexByte(prefix, '_'); i > 0 {
			prefix = prefix[:i]
		}
		if prefix == "" {
			prefix = "unknown"
		}
		s.ByType[prefix]++
	}
	return s, nil
}
