// ABOUTME: Entry point for the ask-engine content numbering and generation CLI
// ABOUTME: Runs generation cycles, reports statistics and manages database backups

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/askresearch/ask-engine/internal/config"
	"github.com/askresearch/ask-engine/internal/cycle"
	"github.com/askresearch/ask-engine/internal/dedupe"
	"github.com/askresearch/ask-engine/internal/generate"
	"github.com/askresearch/ask-engine/internal/sequence"
	"github.com/askresearch/ask-engine/internal/store"
	"github.com/askresearch/ask-engine/internal/theme"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
            _
  __ _ ___| | __      ___ _ __   __ _(_)_ __   ___
 / _' / __| |/ /____ / _ \ '_ \ / _' | | '_ \ / _ \
| (_| \__ \   <_____|  __/ | | | (_| | | | | |  __/
 \__,_|___/_|\_\    \___|_| |_|\__, |_|_| |_|\___|
                               |___/
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "run":
		err = runCycles(ctx, os.Args[2:])
	case "stats":
		err = runStats(ctx)
	case "export":
		err = runExport(ctx, os.Args[2:])
	case "backup":
		err = runBackup(ctx)
	case "backups":
		err = runBackupList()
	case "restore":
		err = runRestore(os.Args[2:])
	case "init":
		err = runInit()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: ask-engine <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  run [-n count]       Run generation cycles (default: 1)")
	fmt.Println("  stats                Show record log statistics")
	fmt.Println("  export [file]        Export questions as CSV (default: stdout)")
	fmt.Println("  backup               Create a verified database backup")
	fmt.Println("  backups              List existing backups")
	fmt.Println("  restore <path>       Restore the database from a backup file")
	fmt.Println("  init                 Create a default config file")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  ASK_CONFIG           Config file path (default: ~/.config/ask/engine.yaml)")
	fmt.Println("  ASK_API_KEY          Generation API key (referenced from the config file)")
	fmt.Println()
}

// openStore loads config and opens the record store. The caller closes it.
func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	rpv := cfg.Volumes.RecordsPerVolume
	if rpv == 0 {
		rpv = store.DefaultRecordsPerVolume
	}
	return store.NewSQLiteStore(cfg.Database.Path, rpv)
}

func themePolicy(cfg *config.Config) (theme.Policy, error) {
	switch cfg.Themes.Policy {
	case "", "round-robin":
		return theme.NewRoundRobin(nil)
	case "random":
		return theme.NewRandom(nil, nil)
	case "fixed":
		return theme.Fixed(cfg.Themes.Fixed), nil
	default:
		return nil, fmt.Errorf("unknown theme policy %q", cfg.Themes.Policy)
	}
}

func runCycles(ctx context.Context, args []string) error {
	count := 1
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-n" || arg == "--count":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", arg)
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid cycle count %q", args[i+1])
			}
			count = n
			i++
		case strings.HasPrefix(arg, "-n="):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "-n="))
			if err != nil || n < 1 {
				return fmt.Errorf("invalid cycle count %q", arg)
			}
			count = n
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	s, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	client, err := generate.NewClient(generate.Options{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.APIBase,
		TextModel:   cfg.Generation.TextModel,
		ImageModel:  cfg.Generation.ImageModel,
		Timeout:     cfg.Generation.Timeout,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
	})
	if err != nil {
		return fmt.Errorf("creating generation client: %w", err)
	}

	guard := dedupe.NewGuard(s)
	alloc, err := sequence.NewAllocator(s, s.RecordsPerVolume())
	if err != nil {
		return fmt.Errorf("creating allocator: %w", err)
	}

	coord, err := cycle.New(s, guard, alloc, client, cycle.Options{
		CandidatesPerCycle: cfg.Generation.CandidatesPerCycle,
	})
	if err != nil {
		return fmt.Errorf("creating coordinator: %w", err)
	}

	policy, err := themePolicy(cfg)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := coord.RunCycle(ctx, policy)
		if err != nil {
			return fmt.Errorf("cycle %d of %d: %w", i+1, count, err)
		}

		green.Printf("#%d [vol %d] %s\n", result.Question.SequenceID, result.Question.Volume, result.Question.Theme)
		fmt.Printf("  Q: %s\n", result.Question.Text)
		fmt.Printf("  A: %s\n\n", truncate(result.Answer.Text, 200))
	}

	report, err := coord.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("reading statistics: %w", err)
	}
	gray.Printf("volume %d: %d/%d records, %d total\n",
		report.Volume.Volume, report.Volume.RecordsInVolume, s.RecordsPerVolume(), report.Stats.TotalRecords)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func runStats(ctx context.Context) error {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	stats, err := s.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("reading statistics: %w", err)
	}

	yellow := color.New(color.FgYellow)
	yellow.Println("Record log:")

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  total records\t%d\n", stats.TotalRecords)
	fmt.Fprintf(w, "  questions\t%d\n", stats.TotalQuestions)
	fmt.Fprintf(w, "  answers\t%d\n", stats.TotalAnswers)
	fmt.Fprintf(w, "  used questions\t%d\n", stats.UsedQuestions)
	fmt.Fprintf(w, "  unused questions\t%d\n", stats.UnusedQuestions)
	fmt.Fprintf(w, "  current volume\t%d\n", stats.CurrentVolume)
	w.Flush()

	if len(stats.PerThemeCounts) > 0 {
		fmt.Println()
		yellow.Println("Per theme:")
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, t := range sortedKeys(stats.PerThemeCounts) {
			fmt.Fprintf(tw, "  %s\t%d\n", t, stats.PerThemeCounts[t])
		}
		tw.Flush()
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runExport(ctx context.Context, args []string) error {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	out := os.Stdout
	if len(args) > 0 {
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := s.ExportQuestions(ctx, out); err != nil {
		return fmt.Errorf("exporting questions: %w", err)
	}
	return nil
}

func runBackup(ctx context.Context) error {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	mgr := store.NewBackupManager(s, backupOptions(cfg))
	info, err := mgr.Create(ctx)
	if err != nil {
		return fmt.Errorf("creating backup: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("Backup created: %s (%d bytes)\n", info.Path, info.Size)
	fmt.Printf("  sha256: %s\n", info.SHA256)
	return nil
}

func runBackupList() error {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	mgr := store.NewBackupManager(s, backupOptions(cfg))
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("listing backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Println("No backups found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tSIZE\tPATH")
	for _, b := range backups {
		fmt.Fprintf(w, "%s\t%d\t%s\n", b.CreatedAt.Format("2006-01-02 15:04:05"), b.Size, b.Path)
	}
	return w.Flush()
}

func runRestore(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("restore requires a backup file path")
	}
	backupPath := args[0]

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := store.Restore(backupPath, cfg.Database.Path); err != nil {
		return fmt.Errorf("restoring backup: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("Restored %s from %s\n", cfg.Database.Path, backupPath)
	return nil
}

func backupOptions(cfg *config.Config) store.BackupOptions {
	dir := cfg.Backup.Dir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(cfg.Database.Path), "backups")
	}
	return store.BackupOptions{
		Dir:           dir,
		MaxBackups:    cfg.Backup.MaxBackups,
		RetentionDays: cfg.Backup.RetentionDays,
	}
}

const defaultConfig = `database:
  path: "records.db"

volumes:
  records_per_volume: 50

generation:
  api_base: "https://api.openai.com/v1"
  api_key: "${ASK_API_KEY}"
  text_model: "gpt-4o"
  image_model: "dall-e-3"
  timeout: "60s"
  candidates_per_cycle: 3

themes:
  policy: "round-robin"

backup:
  dir: "backups"
  max_backups: 100
  retention_days: 30

logging:
  level: "info"
  format: "text"
`

func runInit() error {
	path := config.DefaultPath()

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("Created %s\n", path)
	fmt.Println("Set ASK_API_KEY in your environment before running cycles.")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
