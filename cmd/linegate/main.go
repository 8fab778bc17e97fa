package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/linegate/internal/config"
	"github.com/mattjoyce/linegate/internal/content"
	"github.com/mattjoyce/linegate/internal/dispatch"
	"github.com/mattjoyce/linegate/internal/events"
	"github.com/mattjoyce/linegate/internal/log"
	"github.com/mattjoyce/linegate/internal/publish"
	"github.com/mattjoyce/linegate/internal/reply"
	"github.com/mattjoyce/linegate/internal/store"
	"github.com/mattjoyce/linegate/internal/tui/watch"
	"github.com/mattjoyce/linegate/internal/webhook"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

const defaultConfigPath = "config.yaml"

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	if cmd == "--version" {
		return runVersion(args)
	}

	switch cmd {
	// --- NOUNS ---
	case "system":
		return runSystemNoun(args)
	case "config":
		return runConfigNoun(args)

	// --- ROOT ALIASES ---
	case "start":
		return runStart(args)
	case "watch":
		return runWatch(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: linegate version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("linegate %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}

	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	resolvedCommit := strings.TrimSpace(gitCommit)
	if resolvedCommit == "" || resolvedCommit == "unknown" {
		resolvedCommit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if resolvedCommit != "" {
		info.Commit = shortenCommit(resolvedCommit)
	}

	resolvedBuildTime := strings.TrimSpace(buildDate)
	if resolvedBuildTime == "" || resolvedBuildTime == "unknown" {
		resolvedBuildTime = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if normalizedBuildTime, ok := normalizeBuildTimeUTC(resolvedBuildTime); ok {
		info.BuildTime = normalizedBuildTime
	}

	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func normalizeBuildTimeUTC(raw string) (string, bool) {
	if raw == "" || raw == "unknown" {
		return "", false
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", false
	}

	return t.UTC().Format(time.RFC3339), true
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`linegate - Messaging-platform webhook gateway

Usage:
  linegate <noun> <action> [flags]

Core Resources (Nouns):
  system    Gateway lifecycle and monitoring
  config    System configuration and integrity

System Commands:
  system start      Start the gateway service in foreground
  system watch      Real-time pipeline monitoring TUI

Config Commands:
  config check      Validate syntax, policy, and integrity
  config lock       Authorize current state (update integrity hashes)

General:
  --version         Show version information
  version           Show version information
  help              Show this help message

Use 'linegate <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			printSystemStartHelp()
			return 0
		}
		return runStart(actionArgs)
	case "watch":
		if hasHelpFlag(actionArgs) {
			printSystemWatchHelp()
			return 0
		}
		return runWatch(actionArgs)
	case "help":
		printSystemNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	case "lock":
		if hasHelpFlag(actionArgs) {
			printConfigLockHelp()
			return 0
		}
		return runConfigLock(actionArgs)
	case "help":
		printConfigNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func isHelpToken(s string) bool {
	return s == "help" || s == "--help" || s == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return true
		}
	}
	return false
}

// --- HELP TEXT ---

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: linegate system <action>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  start    Start the gateway service in foreground")
	fmt.Fprintln(w, "  watch    Real-time pipeline monitoring TUI")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: linegate config <action>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  check    Validate configuration syntax and integrity")
	fmt.Fprintln(w, "  lock     Authorize current state (update integrity hashes)")
}

func printSystemStartHelp() {
	fmt.Println("Usage: linegate system start [--config PATH]")
	fmt.Println("Start the webhook gateway in the foreground.")
}

func printSystemWatchHelp() {
	fmt.Println("Usage: linegate system watch [flags]")
	fmt.Println()
	fmt.Println("Real-time pipeline monitoring TUI.")
	fmt.Println("Shows gateway health, recent messages, and the event stream.")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --api-url URL        Gateway API URL (default: http://localhost:8080)")
	fmt.Println("  --admin-token TOKEN  Admin bearer token (or LINEGATE_ADMIN_TOKEN env var)")
	fmt.Println()
	fmt.Println("Keybindings:")
	fmt.Println("  q, Ctrl+C        Quit")
	fmt.Println("  ↑/↓, k/j         Scroll messages")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: linegate config check [--config PATH]")
	fmt.Println("Validate configuration syntax, required fields, and integrity.")
}

func printConfigLockHelp() {
	fmt.Println("Usage: linegate config lock [--config PATH]")
	fmt.Println("Authorize current configuration state by regenerating integrity hashes.")
}

// --- ACTION IMPLEMENTATIONS ---

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("linegate starting", "version", version, "config", *configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.OpenSQLite(ctx, cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Storage.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.Storage.Path)

	st := store.New(db)

	replier := reply.New(cfg.Line.ReplyEndpoint, cfg.Line.ChannelAccessToken)

	fetcher, err := content.New(cfg.Line.ContentEndpoint, cfg.Line.ChannelAccessToken, cfg.Storage.ContentDir, st)
	if err != nil {
		logger.Error("failed to initialize content fetcher", "dir", cfg.Storage.ContentDir, "error", err)
		return 1
	}

	pub, err := publish.Connect(cfg.Publish.URL, cfg.Publish.Subject)
	if err != nil {
		logger.Error("failed to connect message broker", "url", cfg.Publish.URL, "error", err)
		return 1
	}
	defer pub.Close()
	if pub != nil {
		logger.Info("message forwarding enabled", "url", cfg.Publish.URL, "subject", cfg.Publish.Subject)
	}

	hub := events.NewHub(256)
	disp := dispatch.New(st, fetcher, replier, hub)
	server := webhook.New(cfg, st, disp, pub, hub)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("webhook: %w", err)
		}
	}()

	logger.Info("linegate running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("linegate stopped")
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api-url", "http://localhost:8080", "Gateway API URL")
	adminToken := fs.String("admin-token", os.Getenv("LINEGATE_ADMIN_TOKEN"), "Admin bearer token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if *adminToken == "" {
		fmt.Fprintln(os.Stderr, "Error: admin token required. Use --admin-token or LINEGATE_ADMIN_TOKEN env var.")
		return 1
	}

	m := watch.New(*apiURL, *adminToken)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config check failed: %v\n", err)
		return 1
	}

	fmt.Printf("Config OK: %s\n", *configPath)
	fmt.Printf("  listen:    %s\n", cfg.Server.Listen)
	fmt.Printf("  storage:   %s\n", cfg.Storage.Path)
	fmt.Printf("  integrity: %s\n", cfg.Integrity)
	if cfg.Publish.URL != "" {
		fmt.Printf("  publish:   %s (%s)\n", cfg.Publish.URL, cfg.Publish.Subject)
	}
	return 0
}

func runConfigLock(args []string) int {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if err := config.Lock(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Config lock failed: %v\n", err)
		return 1
	}

	fmt.Printf("Integrity hashes updated for %s\n", *configPath)
	return 0
}
