package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/RichardEchols/kiyomi-lite/internal/logger"
)

// Console logs messages instead of delivering them. Used when no Telegram
// token is configured, so the pipeline stays observable in a dry run.
type Console struct {
	log zerolog.Logger
}

func NewConsole() *Console {
	return &Console{log: logger.New("notify")}
}

func (c *Console) Send(ctx context.Context, text string, formatted bool) error {
	c.log.Info().Bool("formatted", formatted).Msg(text)
	return nil
}

func (c *Console) Close() error { return nil }
