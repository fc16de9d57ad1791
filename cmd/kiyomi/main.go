package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/RichardEchols/kiyomi-lite/internal/config"
	"github.com/RichardEchols/kiyomi-lite/internal/daemon"
	"github.com/RichardEchols/kiyomi-lite/internal/finance"
)

var rootCmd = &cobra.Command{
	Use:   "kiyomi",
	Short: "kiyomi - proactive financial nudges",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the nudge daemon (scheduled checks + weekly digest)",
	RunE:  runDaemon,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one nudge check now and exit",
	RunE:  runCheck,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show kiyomi status",
	RunE:  runStatus,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the weekly financial report",
	RunE:  runReport,
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Build the weekly report and deliver it now",
	RunE:  runDigest,
}

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage savings goals",
}

var goalSetCmd = &cobra.Command{
	Use:   "set <amount>",
	Short: "Set a savings goal for the current week or month",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalSet,
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show active goals and their progress",
	RunE:  runGoalList,
}

var (
	goalPeriodFlag string
	goalNameFlag   string
)

func init() {
	goalSetCmd.Flags().StringVarP(&goalPeriodFlag, "period", "p", "month", `goal period: "week" or "month"`)
	goalSetCmd.Flags().StringVarP(&goalNameFlag, "name", "n", "Savings Goal", "goal label")
	goalCmd.AddCommand(goalSetCmd, goalListCmd)
	rootCmd.AddCommand(runCmd, checkCmd, statusCmd, reportCmd, digestCmd, goalCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newDaemon() (*daemon.Daemon, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return daemon.New(cfg)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	d, err := newDaemon()
	if err != nil {
		return err
	}
	return d.Run(context.Background())
}

func runCheck(cmd *cobra.Command, args []string) error {
	d, err := newDaemon()
	if err != nil {
		return err
	}
	sent, err := d.Tick(context.Background())
	if err != nil {
		return err
	}
	if len(sent) == 0 {
		fmt.Println("Nothing to say right now.")
		return nil
	}
	for _, text := range sent {
		fmt.Printf("sent: %s\n", text)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Transactions: %s\n", cfg.Source.Path)
	if cfg.Telegram.Enabled && cfg.Telegram.Token != "" {
		fmt.Println("Telegram: configured")
	} else {
		fmt.Println("Telegram: not configured (nudges go to the log)")
	}
	fmt.Printf("Quiet hours: %02d:00-%02d:00\n", cfg.Nudges.QuietStart, cfg.Nudges.QuietEnd)
	fmt.Printf("Check schedule: %s\n", cfg.Nudges.CheckSchedule)
	fmt.Printf("Digest schedule: %s\n", cfg.Nudges.DigestSchedule)

	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}
	stats, err := d.History().Stats()
	if err != nil {
		return fmt.Errorf("nudge stats: %w", err)
	}
	fmt.Printf("Nudges today: %d/%d (max %d per check)\n", stats.SentToday, stats.DailyLimit, stats.PerTickLimit)
	fmt.Printf("History entries: %d\n", stats.TotalInHistory)
	if len(stats.ByType) > 0 {
		types := make([]string, 0, len(stats.ByType))
		for k := range stats.ByType {
			types = append(types, k)
		}
		sort.Strings(types)
		for _, k := range types {
			fmt.Printf("  %s: %d\n", k, stats.ByType[k])
		}
	}

	goals, err := d.Goals().ActiveGoals()
	if err != nil {
		return fmt.Errorf("active goals: %w", err)
	}
	if len(goals) == 0 {
		fmt.Println("Goals: none active")
	} else {
		for _, g := range goals {
			fmt.Printf("Goal: %s %s by %s (%s)\n", g.Name, finance.FormatMoney(g.Target), g.EndDate, g.Period)
		}
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	d, err := newDaemon()
	if err != nil {
		return err
	}
	report, err := d.Report(context.Background())
	if err != nil {
		return err
	}
	fmt.Println(report)
	return nil
}

func runDigest(cmd *cobra.Command, args []string) error {
	d, err := newDaemon()
	if err != nil {
		return err
	}
	return d.Digest(context.Background())
}

func runGoalSet(cmd *cobra.Command, args []string) error {
	target, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}

	d, err := newDaemon()
	if err != nil {
		return err
	}
	goal, err := d.Goals().SetGoal(goalNameFlag, target, finance.Period(goalPeriodFlag))
	if err != nil {
		return err
	}
	fmt.Printf("Goal set: %s %s by %s (%s)\n", goal.Name, finance.FormatMoney(goal.Target), goal.EndDate, goal.Period)
	return nil
}

func runGoalList(cmd *cobra.Command, args []string) error {
	d, err := newDaemon()
	if err != nil {
		return err
	}
	progress, err := d.GoalProgress(context.Background())
	if err != nil {
		return err
	}
	if len(progress) == 0 {
		fmt.Println("No active goals. Try: kiyomi goal set 500 --period month")
		return nil
	}
	for _, p := range progress {
		fmt.Println(p.Message())
	}
	return nil
}
