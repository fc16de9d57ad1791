package daemon

import (
	"context"
	"time"

	"github.com/RichardEchols/kiyomi-lite/internal/finance"
	"github.com/RichardEchols/kiyomi-lite/internal/store"
)

// FileSource reads transactions from a JSON file kept up to date by an
// external sync (bank export, Plaid pull, whatever the host runs). A
// missing file means no data, not an error.
type FileSource struct {
	store *store.Store
	now   func() time.Time
}

func NewFileSource(path string) *FileSource {
	return &FileSource{store: store.New(path), now: time.Now}
}

func (s *FileSource) Fetch(ctx context.Context, daysBack int) ([]finance.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []finance.Transaction
	if err := s.store.Load(&all); err != nil {
		return nil, err
	}
	if daysBack <= 0 {
		return all, nil
	}

	cutoff := s.now().UTC().AddDate(0, 0, -daysBack)
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)

	kept := make([]finance.Transaction, 0, len(all))
	for _, t := range all {
		d, ok := t.Day()
		if !ok {
			continue
		}
		if !d.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept, nil
}
