package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/beomseockjeong/threat-trend-detection/internal/adapters/input"
	"github.com/beomseockjeong/threat-trend-detection/internal/adapters/match"
	"github.com/beomseockjeong/threat-trend-detection/internal/adapters/output"
	"github.com/beomseockjeong/threat-trend-detection/internal/app"
	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/internal/ports"
	"github.com/beomseockjeong/threat-trend-detection/internal/tui"
)

var (
	cfgFile      string
	workbookPath string
	noTUI        bool
	jsonOut      bool
	watchMode    bool
	reportPath   string
	exportPath   string

	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "threattrend",
	Short: "Correlate SOC security logs with threat-news articles",
	Long: `ThreatTrend correlates a week of SOC security logs with the threat-news
articles those logs relate to. It ingests a single xlsx workbook carrying
the articles plus mail-gateway, NDR and WAF log sheets, matches every log
row to the article it concerns, and aggregates the matches into
per-article detections.

Matching:
  - Keyword: article-title keywords against every text field of a row
  - Title: normalized article titles carried by labeled log sheets
  - Merge: WAF detections fold into the NDR detection of the same article

Output:
  - Interactive terminal dashboard (articles, detections, chat)
  - JSON and xlsx detection reports
  - Prometheus metrics and readiness endpoint`,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a workbook and open the dashboard",
	Long: `Analyze the given workbook and open the terminal dashboard. With --watch
the workbook is re-analyzed every time the file is saved.

Examples:
  threattrend analyze --input weekly.xlsx
  threattrend analyze --input weekly.xlsx --watch
  threattrend analyze --input weekly.xlsx --no-tui --report report.json
  threattrend analyze --input weekly.xlsx --json
  threattrend analyze            (no workbook: built-in sample data)`,
	RunE: runAnalyze,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Analyze a workbook and write the detection reports",
	Long: `Run one analysis pass and write the detections to an xlsx report, and
optionally a JSON report, without opening the dashboard.

Examples:
  threattrend export --input weekly.xlsx --out detections.xlsx
  threattrend export --input weekly.xlsx --out detections.xlsx --report report.json`,
	RunE: runExport,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ThreatTrend %s\n", Version)
		fmt.Printf("Commit:  %s\n", Commit)
		fmt.Printf("Built:   %s\n", BuildTime)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&workbookPath, "input", "i", "", "workbook (.xlsx) to analyze")
	rootCmd.PersistentFlags().BoolVar(&noTUI, "no-tui", false, "disable the dashboard, log to stderr only")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "write the JSON report to stdout (implies --no-tui)")
	rootCmd.PersistentFlags().BoolVarP(&watchMode, "watch", "w", false, "re-analyze when the workbook changes")
	rootCmd.PersistentFlags().StringVar(&reportPath, "report", "", "JSON report file path")

	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "detections.xlsx", "xlsx report output path")

	viper.BindPFlag("input.path", rootCmd.PersistentFlags().Lookup("input"))
	viper.BindPFlag("input.watch", rootCmd.PersistentFlags().Lookup("watch"))
	viper.BindPFlag("report.path", rootCmd.PersistentFlags().Lookup("report"))

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/threattrend")
	}

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("input.path", "")
	viper.SetDefault("input.watch", false)
	viper.SetDefault("input.debounce_ms", 500)
	viper.SetDefault("input.article_sheet_prefix", "기사")
	viper.SetDefault("input.mail_sheet", "메일")
	viper.SetDefault("input.ndr_sheet", "NDR")
	viper.SetDefault("input.waf_sheet", "WAF")
	viper.SetDefault("input.sample_fallback", true)
	viper.SetDefault("matching.extra_stopwords", []string{})
	viper.SetDefault("report.path", "")
	viper.SetDefault("report.pretty", false)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.addr", ":9102")
	viper.SetDefault("tui.enabled", true)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn().Err(err).Msg("Error reading config file")
		}
	}

	viper.SetEnvPrefix("THREATTREND")
	viper.AutomaticEnv()
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	applyLogLevel(viper.GetString("logging.level"))

	if noTUI || jsonOut {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

func applyLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// buildIngestor picks the workbook source: the real reader, the reader
// with sample fallback for empty workbooks, or the sample alone when no
// path was given.
func buildIngestor(opts app.Options) ports.WorkbookIngestor {
	reader := input.NewWorkbookReader(input.SheetNames{
		ArticlePrefix: opts.ArticleSheetPrefix,
		Mail:          opts.MailSheet,
		NDR:           opts.NdrSheet,
		WAF:           opts.WafSheet,
	})
	if opts.WorkbookPath == "" {
		log.Info().Msg("No workbook given, serving the built-in sample")
		return input.SampleIngestor{}
	}
	if opts.SampleFallback {
		return input.WithSampleFallback(reader)
	}
	return reader
}

// matcherFactory selects the strategy per batch: labeled sheets carry
// article titles and use title matching, positional sheets fall back to
// keywords. current is read at batch time so reloaded stopwords apply to
// the next analysis.
func matcherFactory(current func() app.Options) app.MatcherFactory {
	return func(variant domain.LayoutVariant, threats []domain.Threat) ports.RowMatcher {
		if variant == domain.LayoutLabeled {
			return match.NewTitleMatcher(threats)
		}
		return match.NewKeywordMatcher(threats, current().ExtraStopwords...)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	setupLogging()

	opts := app.OptionsFromViper()
	if noTUI || jsonOut {
		opts.TUIEnabled = false
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	sourceName := "SAMPLE"
	if opts.WorkbookPath != "" {
		sourceName = filepath.Base(opts.WorkbookPath)
	}

	log.Info().
		Str("source", sourceName).
		Bool("watch", opts.Watch).
		Bool("tui", opts.TUIEnabled).
		Msg("ThreatTrend started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgWatcher := app.NewConfigWatcher(opts)
	cfgWatcher.OnReload(func(o app.Options) { applyLogLevel(o.LogLevel) })
	cfgWatcher.StartWatching()
	defer cfgWatcher.Stop()

	var collector ports.MetricsCollector
	if opts.MetricsEnabled {
		promMetrics := output.NewPrometheusMetrics("threattrend", nil)
		collector = promMetrics

		metricsConfig := output.DefaultMetricsConfig()
		metricsConfig.Addr = opts.MetricsAddr
		if err := promMetrics.StartServer(metricsConfig); err != nil {
			log.Warn().Err(err).Msg("Failed to start metrics server")
		} else {
			log.Debug().Str("addr", metricsConfig.Addr).Msg("Metrics server started")
		}
		defer promMetrics.StopServer()
	}

	pipeline := app.NewPipeline(buildIngestor(opts), matcherFactory(cfgWatcher.Current), collector)

	if jsonOut || opts.ReportPath != "" {
		reportConfig := output.JSONReporterConfig{
			FilePath: opts.ReportPath,
			Stdout:   jsonOut && opts.ReportPath == "",
			Pretty:   opts.ReportPretty || jsonOut,
		}
		reporter, err := output.NewJSONReporter(reportConfig)
		if err != nil {
			return fmt.Errorf("failed to create JSON reporter: %w", err)
		}
		pipeline.AddSubscriber(reporter)
		defer reporter.Close()
	}

	var tuiApp *tui.App
	if opts.TUIEnabled {
		tuiApp = tui.NewApp()
		pipeline.AddSubscriber(tuiApp)
	}

	if _, err := pipeline.Analyze(ctx, opts.WorkbookPath); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if opts.Watch && opts.WorkbookPath != "" {
		watcher := input.NewFileWatcher(opts.WorkbookPath, time.Duration(opts.DebounceMS)*time.Millisecond)
		go func() {
			if err := pipeline.Watch(ctx, watcher); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Workbook watch stopped")
			}
		}()
	}

	if !opts.TUIEnabled {
		if opts.Watch && opts.WorkbookPath != "" {
			log.Info().Msg("Running in console mode, watching for changes")
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			<-sigChan
			cancel()
			log.Info().Msg("Shutting down...")
		}
		return nil
	}

	var tuiErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("TUI panic recovered")
				tuiErr = fmt.Errorf("TUI panic: %v", r)
			}
		}()
		tuiErr = tuiApp.Run()
	}()

	cancel()
	log.Info().Msg("Shutting down...")
	return tuiErr
}

func runExport(cmd *cobra.Command, args []string) error {
	setupLogging()

	opts := app.OptionsFromViper()
	if err := opts.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pipeline := app.NewPipeline(buildIngestor(opts), matcherFactory(func() app.Options { return opts }), nil)

	ds, err := pipeline.Analyze(ctx, opts.WorkbookPath)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := output.NewExcelReporter(exportPath).Write(ctx, ds); err != nil {
		return err
	}
	log.Info().Str("path", exportPath).Msg("xlsx report written")

	if opts.ReportPath != "" {
		reporter, err := output.NewJSONReporter(output.JSONReporterConfig{
			FilePath: opts.ReportPath,
			Pretty:   opts.ReportPretty,
		})
		if err != nil {
			return fmt.Errorf("failed to create JSON reporter: %w", err)
		}
		defer reporter.Close()
		if err := reporter.Write(ctx, ds); err != nil {
			return err
		}
		log.Info().Str("path", opts.ReportPath).Msg("JSON report written")
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
