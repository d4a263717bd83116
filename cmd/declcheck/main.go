package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"declcheck/internal/config"
	"declcheck/internal/crawler"
	"declcheck/internal/decl"
	"declcheck/internal/diag"
	"declcheck/internal/extractor"
	"declcheck/internal/reconcile"
	"declcheck/internal/spec"
	"declcheck/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:   "declcheck",
		Short: "Checks C declarations against an expected-declarations spec",
	}
	configPath string
	dbPath     string
	specPath   string
	checkMain  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the run database (SQLite); overrides config")

	checkCmd.Flags().StringVarP(&specPath, "spec", "s", "", "Path to the expected-declarations document; overrides config")
	checkCmd.Flags().BoolVar(&checkMain, "check-main", false, "Also check the program entry point")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(runsCmd)
}

func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if specPath != "" {
		cfg.Check.Spec = specPath
	}
	if cmd.Flags().Changed("check-main") {
		cfg.Check.CheckMain = checkMain
	}
	if dbPath != "" {
		cfg.Report.DB = dbPath
	}
	return cfg
}

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Scan a C project and reconcile its declarations against the spec",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		root := cfg.Project.Root
		if len(args) > 0 {
			root = args[0]
		}

		// No spec configured disables the engine entirely.
		if cfg.Check.Spec == "" {
			fmt.Println("No declaration spec configured, nothing to check.")
			return
		}

		// A malformed spec is the one fatal condition: there is nothing
		// sensible to reconcile against.
		expected, err := spec.LoadFile(cfg.Check.Spec)
		if err != nil {
			log.Fatalf("Failed to load spec: %v", err)
		}
		for _, w := range expected.OverlapWarnings() {
			fmt.Fprintf(os.Stderr, "spec: warning: %s\n", w)
		}

		ext, err := extractor.NewExtractor("c")
		if err != nil {
			log.Fatalf("Failed to create extractor: %v", err)
		}
		cr := crawler.NewCrawler(ext, cfg.Project.Ignore...)

		fmt.Printf("🔍 Scanning %s...\n", root)
		started := time.Now()

		var observed []decl.Declaration
		if err := cr.ScanProject(root, func(d decl.Declaration) {
			observed = append(observed, d)
		}); err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		fmt.Printf("📋 Found %d declarations in %v.\n", len(observed), time.Since(started).Round(time.Millisecond))

		collector := &diag.Collector{}
		sink := multiSink{diag.NewWriter(os.Stderr), collector}

		report, err := reconcile.Run(expected, observed, reconcile.Options{CheckMain: cfg.Check.CheckMain}, sink)
		if err != nil {
			log.Fatalf("Reconciliation failed: %v", err)
		}

		if report.Empty() && len(collector.Diagnostics) == 0 {
			fmt.Println("✅ All expected declarations accounted for.")
		} else {
			report.Write(os.Stdout)
			fmt.Printf("⚠️  %d diagnostic(s), %d missing declaration(s).\n",
				len(collector.Diagnostics), report.Total())
		}

		if cfg.Report.DB != "" {
			saveRun(cfg, root, started, collector.Diagnostics, report)
		}
	},
}

func saveRun(cfg *config.Config, root string, started time.Time, diagnostics []diag.Diagnostic, report *reconcile.Report) {
	store, err := storage.NewSQLiteStore(cfg.Report.DB)
	if err != nil {
		log.Printf("Warning: failed to open run database: %v", err)
		return
	}
	defer store.Close()

	run := &storage.Run{
		ID:          uuid.NewString(),
		Root:        root,
		SpecPath:    cfg.Check.Spec,
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Diagnostics: diagnostics,
		Report:      report,
	}
	if err := store.SaveRun(context.Background(), run); err != nil {
		log.Printf("Warning: failed to save run: %v", err)
		return
	}
	fmt.Printf("💾 Run %s saved to %s.\n", run.ID, cfg.Report.DB)
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted check runs",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		if cfg.Report.DB == "" {
			fmt.Println("No run database configured.")
			return
		}

		store, err := storage.NewSQLiteStore(cfg.Report.DB)
		if err != nil {
			log.Fatalf("Failed to open run database: %v", err)
		}
		defer store.Close()

		runs, err := store.ListRuns(context.Background())
		if err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  root=%s spec=%s  %d diagnostic(s), %d missing\n",
				r.ID, r.FinishedAt.Format(time.RFC3339), r.Root, r.SpecPath, r.Diagnostics, r.Missing)
		}
	},
}

// multiSink fans a diagnostic out to several sinks.
type multiSink []diag.Sink

func (m multiSink) Report(d diag.Diagnostic) {
	for _, s := range m {
		s.Report(d)
	}
}
