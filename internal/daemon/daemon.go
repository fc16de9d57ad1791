// Package daemon wires the nudge pipeline together and keeps it running on
// a schedule: periodic nudge checks plus the Sunday digest.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/RichardEchols/kiyomi-lite/internal/config"
	"github.com/RichardEchols/kiyomi-lite/internal/finance"
	"github.com/RichardEchols/kiyomi-lite/internal/logger"
	"github.com/RichardEchols/kiyomi-lite/internal/notify"
	"github.com/RichardEchols/kiyomi-lite/internal/nudge"
	"github.com/RichardEchols/kiyomi-lite/internal/store"
)

// shutdownGrace bounds how long Stop waits for an in-flight cron job.
const shutdownGrace = 10 * time.Second

// Options overrides default wiring, mostly for tests.
type Options struct {
	Notifier   notify.Notifier
	Source     finance.TransactionSource
	SignalChan chan os.Signal
}

type Daemon struct {
	cfg      *config.Config
	notifier notify.Notifier
	source   finance.TransactionSource
	goals    *finance.GoalTracker
	history  *nudge.History
	orch     *nudge.Orchestrator
	cron     *cron.Cron
	log      zerolog.Logger
	sigCh    chan os.Signal
}

// notifierSender adapts the notifier to the orchestrator's Sender. Nudge
// copy carries markdown emphasis, so sends are formatted.
type notifierSender struct {
	n notify.Notifier
}

func (s notifierSender) Send(ctx context.Context, text string) error {
	return s.n.Send(ctx, text, true)
}

func New(cfg *config.Config) (*Daemon, error) {
	return NewWithOptions(cfg, Options{})
}

func NewWithOptions(cfg *config.Config, opts Options) (*Daemon, error) {
	log := logger.New("daemon")

	notifier := opts.Notifier
	if notifier == nil {
		if cfg.Telegram.Enabled && cfg.Telegram.Token != "" && cfg.ChatID != "" {
			tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.ChatID)
			if err != nil {
				return nil, fmt.Errorf("create notifier: %w", err)
			}
			notifier = tg
		} else {
			log.Warn().Msg("telegram not configured, nudges go to the log")
			notifier = notify.NewConsole()
		}
	}

	source := opts.Source
	if source == nil {
		source = NewFileSource(cfg.Source.Path)
	}

	goals := finance.NewGoalTracker(store.New(filepath.Join(config.DataDir(), "goals.json")))
	history := nudge.NewHistoryWithLimits(
		store.New(filepath.Join(config.DataDir(), "nudge_history.json")),
		nudge.Limits{
			RetentionDays: cfg.Nudges.HistoryRetentionDays,
			DailyCap:      cfg.Nudges.DailyCap,
			PerTickCap:    cfg.Nudges.PerTickCap,
		})

	daysBack := cfg.Source.FetchDaysBack
	providers := []nudge.Provider{
		nudge.NewBillReminderProvider(source, daysBack, cfg.Name),
		nudge.NewSpendingAlertProvider(source, daysBack),
		nudge.NewSavingsMotivationProvider(source, goals, daysBack, cfg.Name),
	}

	orch := nudge.NewOrchestrator(nudge.Config{
		QuietStart:      cfg.Nudges.QuietStart,
		QuietEnd:        cfg.Nudges.QuietEnd,
		DailyCap:        cfg.Nudges.DailyCap,
		PerTickCap:      cfg.Nudges.PerTickCap,
		DedupWindow:     time.Duration(cfg.Nudges.DedupWindowHours) * time.Hour,
		ProviderTimeout: time.Duration(cfg.Nudges.ProviderTimeoutSecs) * time.Second,
	}, providers, history, notifierSender{n: notifier}, logger.New("nudge"))

	return &Daemon{
		cfg:      cfg,
		notifier: notifier,
		source:   source,
		goals:    goals,
		history:  history,
		orch:     orch,
		log:      log,
		sigCh:    opts.SignalChan,
	}, nil
}

// Goals exposes the goal tracker for the CLI commands.
func (d *Daemon) Goals() *finance.GoalTracker { return d.goals }

// History exposes the nudge history for the status command.
func (d *Daemon) History() *nudge.History { return d.history }

// Tick runs one nudge check cycle.
func (d *Daemon) Tick(ctx context.Context) ([]string, error) {
	return d.orch.RunTick(ctx)
}

// Digest builds and delivers the weekly financial report.
func (d *Daemon) Digest(ctx context.Context) error {
	txns, err := d.source.Fetch(ctx, d.cfg.Source.FetchDaysBack)
	if err != nil {
		return fmt.Errorf("fetch transactions: %w", err)
	}
	report := finance.WeeklyReport(txns, d.goals)
	if err := d.notifier.Send(ctx, report, true); err != nil {
		return fmt.Errorf("send weekly report: %w", err)
	}
	d.log.Info().Msg("weekly report sent")
	return nil
}

// GoalProgress evaluates every active goal against fresh transactions.
func (d *Daemon) GoalProgress(ctx context.Context) ([]finance.GoalProgress, error) {
	txns, err := d.source.Fetch(ctx, d.cfg.Source.FetchDaysBack)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	return d.goals.Progress(txns)
}

// Report renders the weekly digest without sending it.
func (d *Daemon) Report(ctx context.Context) (string, error) {
	txns, err := d.source.Fetch(ctx, d.cfg.Source.FetchDaysBack)
	if err != nil {
		return "", fmt.Errorf("fetch transactions: %w", err)
	}
	return finance.WeeklyReport(txns, d.goals), nil
}

// Run schedules nudge checks and the weekly digest, then blocks until a
// signal or context cancellation.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.cron = cron.New()
	if _, err := d.cron.AddFunc(d.cfg.Nudges.CheckSchedule, func() {
		if _, err := d.orch.RunTick(ctx); err != nil {
			d.log.Error().Err(err).Msg("nudge check failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule nudge checks (%q): %w", d.cfg.Nudges.CheckSchedule, err)
	}
	if _, err := d.cron.AddFunc(d.cfg.Nudges.DigestSchedule, func() {
		if err := d.Digest(ctx); err != nil {
			d.log.Error().Err(err).Msg("weekly report failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule weekly report (%q): %w", d.cfg.Nudges.DigestSchedule, err)
	}

	d.cron.Start()
	d.log.Info().
		Str("check", d.cfg.Nudges.CheckSchedule).
		Str("digest", d.cfg.Nudges.DigestSchedule).
		Msg("daemon running")

	// one check right away so a fresh start is not silent for hours
	if _, err := d.orch.RunTick(ctx); err != nil {
		d.log.Error().Err(err).Msg("startup nudge check failed")
	}

	sigCh := d.sigCh
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
	}

	select {
	case <-sigCh:
		d.log.Info().Msg("shutting down")
	case <-ctx.Done():
	}
	return d.stop()
}

func (d *Daemon) stop() error {
	if d.cron != nil {
		stopped := d.cron.Stop()
		select {
		case <-stopped.Done():
		case <-time.After(shutdownGrace):
			d.log.Warn().Msg("cron jobs still running at shutdown, abandoning")
		}
	}
	return d.notifier.Close()
}
