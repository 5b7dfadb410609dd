// Package tmuxmon is the cobra CLI entrypoint for the tmux Monitoring
// Cycle Engine, adapted from the teacher's cmd/root.go: the same
// cobra+viper wiring, narrowed to spec §6's flag surface and wired
// against internal/engine instead of a Bubble Tea board.
package tmuxmon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	viperlib "github.com/spf13/viper"

	"github.com/tettuan/tmux-monitor/internal/config"
	"github.com/tettuan/tmux-monitor/internal/engine"
	"github.com/tettuan/tmux-monitor/internal/instructionfile"
	"github.com/tettuan/tmux-monitor/internal/journal"
	"github.com/tettuan/tmux-monitor/internal/log"
	"github.com/tettuan/tmux-monitor/internal/tmux"
	"github.com/tettuan/tmux-monitor/internal/tracing"
	"github.com/tettuan/tmux-monitor/internal/tui"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.MonitoringOptions

	// viper is a custom instance with "::" as key delimiter, matching the
	// teacher's rationale: keeps nested keys unambiguous without reserving
	// "." inside any config value.
	viper = viperlib.NewWithOptions(viperlib.KeyDelimiter("::"))

	watchDashboard bool
)

var rootCmd = &cobra.Command{
	Use:     "tmuxmon",
	Short:   "Supervises Claude worker panes in a tmux session",
	Long:    "tmuxmon discovers panes in a tmux session, classifies worker activity, clears stalled sessions, and reports status on a fixed cycle.",
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/tmuxmon/config.yaml)")

	rootCmd.Flags().StringP("session", "s", "", "tmux session name (default: current session)")
	rootCmd.Flags().BoolP("onetime", "o", false, "run a single discover/capture/clear/report pass and exit")
	rootCmd.Flags().StringP("time", "t", "", "scheduled start time, HH:MM local time")
	rootCmd.Flags().StringP("instruction", "i", "", "path to a YAML instruction file of startup command overrides")
	rootCmd.Flags().Bool("clear", false, "clear eligible panes once and exit")
	rootCmd.Flags().Bool("clear-all", false, "force-clear every pane once and exit, bypassing eligibility")
	rootCmd.Flags().Bool("kill-all-panes", false, "kill every pane in the session and exit")
	rootCmd.Flags().Bool("start-claude", false, "inject the startup invocation into bare interactive-shell panes")
	rootCmd.Flags().BoolVar(&watchDashboard, "watch", false, "attach a live terminal dashboard (continuous mode only)")

	_ = viper.BindPFlag("session_name", rootCmd.Flags().Lookup("session"))
	_ = viper.BindPFlag("time", rootCmd.Flags().Lookup("time"))
	_ = viper.BindPFlag("instruction", rootCmd.Flags().Lookup("instruction"))
	_ = viper.BindPFlag("clear", rootCmd.Flags().Lookup("clear"))
	_ = viper.BindPFlag("clear_all", rootCmd.Flags().Lookup("clear-all"))
	_ = viper.BindPFlag("kill_all_panes", rootCmd.Flags().Lookup("kill-all-panes"))
	_ = viper.BindPFlag("start_claude", rootCmd.Flags().Lookup("start-claude"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("continuous", defaults.Continuous)
	viper.SetDefault("cycle_interval_ms", defaults.CycleIntervalMs)
	viper.SetDefault("max_runtime_ms", defaults.MaxRuntimeMs)
	viper.SetDefault("max_capture_retries", defaults.MaxCaptureRetries)
	viper.SetDefault("max_clear_retries", defaults.MaxClearRetries)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.AddConfigPath(".tmuxmon")
		viper.AddConfigPath(home + "/.config/tmuxmon")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err == nil {
		log.Info(log.CatConfig, "config loaded", "path", viper.ConfigFileUsed())
	}

	_ = viper.Unmarshal(&cfg)
}

// runApp resolves flags to a cfg, runs any one-shot administrative
// command directly against the tmux transport, and otherwise builds and
// runs the Engine.
func runApp(cmd *cobra.Command, args []string) error {
	if logPath := os.Getenv("TMUXMON_LOG"); logPath != "" {
		cleanup, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		defer cleanup()
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		log.SetMinLevel(log.LevelFromEnv(level))
	}

	onetime, _ := cmd.Flags().GetBool("onetime")
	if onetime {
		cfg.Continuous = false
	}

	transport := tmux.NewTransport("", 5*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.KillAllPanes {
		return killAllPanes(ctx, transport, cfg.SessionName)
	}
	if cfg.ClearAllPanes {
		return clearAllPanes(ctx, transport, transport, cfg.SessionName)
	}

	tracingProvider, err := tracing.NewProvider(tracing.Config{
		Enabled:      os.Getenv("TMUXMON_TRACE") != "",
		OTLPEndpoint: os.Getenv("TMUXMON_TRACE_OTLP_ENDPOINT"),
		ServiceName:  "tmuxmon",
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = tracingProvider.Shutdown(context.Background()) }()

	var rules *instructionfile.Rules
	if cfg.InstructionFile != "" {
		rules, err = instructionfile.Load(cfg.InstructionFile)
		if err != nil {
			return fmt.Errorf("loading instruction file: %w", err)
		}
		watcher, werr := instructionfile.NewWatcher(cfg.InstructionFile, rules)
		if werr == nil {
			if err := watcher.Start(); err != nil {
				log.Warn(log.CatConfig, "instruction file watch failed to start", "reason", err.Error())
			} else {
				defer func() { _ = watcher.Stop() }()
			}
		}
	}

	scheduledStart, err := cfg.ParseScheduledStart(time.Now())
	if err != nil {
		return err
	}

	jrnl, err := journal.Open()
	if err != nil {
		log.Warn(log.CatConfig, "journal unavailable, continuing without diagnostics", "reason", err.Error())
		jrnl = nil
	}
	defer func() { _ = jrnl.Close() }()

	eng := engine.New(engine.Options{
		SessionName:       cfg.SessionName,
		OneShot:           cfg.IsOneShot(),
		ScheduledStart:    scheduledStart,
		ShouldStartClaude: cfg.StartInteractive,
		CycleInterval:     cfg.CycleInterval(),
		MaxRuntime:        cfg.MaxRuntime(),
		MaxCaptureRetries: cfg.MaxCaptureRetries,
		MaxClearRetries:   cfg.MaxClearRetries,
		InstructionRules:  rules,
		Tracer:            tracingProvider.Tracer(),
	}, transport, transport)

	journalCtx, cancelJournal := context.WithCancel(context.Background())
	defer cancelJournal()
	if jrnl != nil {
		go jrnl.Listen(journalCtx, eng.Broker())
	}

	go func() {
		<-ctx.Done()
		eng.Token().Cancel("signal received")
	}()

	reasonCh := make(chan string, 1)
	go func() { reasonCh <- eng.Run(ctx) }()

	if watchDashboard && !cfg.IsOneShot() {
		if err := runDashboard(eng); err != nil {
			log.Warn(log.CatUI, "dashboard exited with error", "reason", err.Error())
		}
		eng.Token().Cancel("dashboard closed")
	}

	reason := <-reasonCh
	log.Info(log.CatEngine, "engine terminated", "reason", reason)

	if jrnl != nil {
		rows, serr := jrnl.Summary(context.Background())
		if serr == nil {
			fmt.Print(journal.FormatSummary(rows))
		}
	}

	if reason != "cancelled" && reason != "one_shot_complete" {
		return fmt.Errorf("tmuxmon terminated: %s", reason)
	}
	return nil
}

func runDashboard(eng *engine.Engine) error {
	return tui.Run(eng)
}

func killAllPanes(ctx context.Context, repo tmux.Repository, session string) error {
	args := []string{"kill-pane", "-a"}
	if session != "" {
		args = append(args, "-t", session)
	}
	_, err := repo.ExecuteRaw(ctx, args)
	return err
}

func clearAllPanes(ctx context.Context, repo tmux.Repository, comm tmux.Communicator, session string) error {
	panes, err := repo.DiscoverPanes(ctx, session)
	if err != nil {
		return err
	}
	for _, p := range panes {
		if err := comm.SendClearCommand(ctx, p.PaneID); err != nil {
			log.Warn(log.CatClear, "force-clear failed", "paneID", p.PaneID, "reason", err.Error())
		}
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string shown by --version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
