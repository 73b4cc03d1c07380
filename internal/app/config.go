package app

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Options is the validated runtime configuration snapshot. Reloads swap the
// whole value, so readers never observe a half-applied config.
type Options struct {
	LogLevel string

	WorkbookPath string
	Watch        bool
	DebounceMS   int

	ArticleSheetPrefix string
	MailSheet          string
	NdrSheet           string
	WafSheet           string

	ExtraStopwords []string

	ReportPath   string
	ReportPretty bool

	MetricsEnabled bool
	MetricsAddr    string

	TUIEnabled     bool
	SampleFallback bool
}

func OptionsFromViper() Options {
	return Options{
		LogLevel:           viper.GetString("logging.level"),
		WorkbookPath:       viper.GetString("input.path"),
		Watch:              viper.GetBool("input.watch"),
		DebounceMS:         viper.GetInt("input.debounce_ms"),
		ArticleSheetPrefix: viper.GetString("input.article_sheet_prefix"),
		MailSheet:          viper.GetString("input.mail_sheet"),
		NdrSheet:           viper.GetString("input.ndr_sheet"),
		WafSheet:           viper.GetString("input.waf_sheet"),
		ExtraStopwords:     viper.GetStringSlice("matching.extra_stopwords"),
		ReportPath:         viper.GetString("report.path"),
		ReportPretty:       viper.GetBool("report.pretty"),
		MetricsEnabled:     viper.GetBool("metrics.enabled"),
		MetricsAddr:        viper.GetString("metrics.addr"),
		TUIEnabled:         viper.GetBool("tui.enabled"),
		SampleFallback:     viper.GetBool("input.sample_fallback"),
	}
}

func (o Options) Validate() error {
	switch o.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigValidationError{Field: "logging.level", Value: o.LogLevel, Reason: "must be one of debug, info, warn, error"}
	}

	if o.DebounceMS < 0 || o.DebounceMS > 60000 {
		return &ConfigValidationError{Field: "input.debounce_ms", Value: o.DebounceMS, Reason: "must be between 0 and 60000"}
	}

	if o.ArticleSheetPrefix == "" {
		return &ConfigValidationError{Field: "input.article_sheet_prefix", Value: o.ArticleSheetPrefix, Reason: "must not be empty"}
	}
	if o.MailSheet == "" {
		return &ConfigValidationError{Field: "input.mail_sheet", Value: o.MailSheet, Reason: "must not be empty"}
	}
	if o.NdrSheet == "" {
		return &ConfigValidationError{Field: "input.ndr_sheet", Value: o.NdrSheet, Reason: "must not be empty"}
	}
	if o.WafSheet == "" {
		return &ConfigValidationError{Field: "input.waf_sheet", Value: o.WafSheet, Reason: "must not be empty"}
	}

	if o.MetricsEnabled && o.MetricsAddr == "" {
		return &ConfigValidationError{Field: "metrics.addr", Value: o.MetricsAddr, Reason: "required when metrics are enabled"}
	}

	return nil
}

type ConfigValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return "config validation error: " + e.Field + " = " +
		formatValue(e.Value) + " - " + e.Reason
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val)
	case string:
		return val
	default:
		return "?"
	}
}

// ConfigWatcher keeps the active Options snapshot and hot-swaps it when the
// config file changes on disk. An invalid new config is rejected and the
// previous snapshot stays active.
type ConfigWatcher struct {
	current  atomic.Pointer[Options]
	onReload []func(Options)

	mu       sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewConfigWatcher(initial Options) *ConfigWatcher {
	w := &ConfigWatcher{stopChan: make(chan struct{})}
	w.current.Store(&initial)
	return w
}

func (w *ConfigWatcher) Current() Options {
	return *w.current.Load()
}

// OnReload registers a callback invoked with every accepted snapshot.
func (w *ConfigWatcher) OnReload(fn func(Options)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = append(w.onReload, fn)
}

func (w *ConfigWatcher) StartWatching() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info().
			Str("file", e.Name).
			Str("op", e.Op.String()).
			Msg("Config file changed, reloading...")

		w.reload()
	})

	viper.WatchConfig()
	log.Info().Msg("Config hot-reload watching started")
}

func (w *ConfigWatcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.stopChan:
		return
	default:
	}

	if err := viper.ReadInConfig(); err != nil {
		log.Error().Err(err).Msg("Failed to re-read config, keeping current configuration")
		return
	}

	opts := OptionsFromViper()
	if err := opts.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration, rejecting reload")
		return
	}

	w.current.Store(&opts)
	for _, fn := range w.onReload {
		fn(opts)
	}

	log.Info().Str("level", opts.LogLevel).Msg("Configuration hot-reloaded successfully")
}

func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		log.Info().Msg("Config watcher stopped")
	})
}
