package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Platform    PlatformConfig  `toml:"platform"`
	Session     SessionConfig   `toml:"session"`
	Discovery   DiscoveryConfig `toml:"discovery"`
	Enrichment  EnrichConfig    `toml:"enrichment"`
	Crawler     CrawlerConfig   `toml:"crawler"`
	Relevance   RelevanceConfig `toml:"relevance"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Metrics     MetricsConfig   `toml:"metrics"`
}

type ServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Port    int    `toml:"port"`
	Host    string `toml:"host"`
}

type StorageConfig struct {
	Type   string       `toml:"type"` // only "badger" is supported
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "trace", "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// PlatformConfig locates the events platform
type PlatformConfig struct {
	WebBaseURL   string `toml:"web_base_url"`  // event pages live at {web_base_url}/{slug}
	APIBaseURL   string `toml:"api_base_url"`  // discovery API root
	CategorySlug string `toml:"category_slug"` // category queried on the discovery API
}

// SessionConfig holds the request identity shared by the API client, enricher and browser
type SessionConfig struct {
	UserAgent      string            `toml:"user_agent"`
	Headers        map[string]string `toml:"headers"`
	Cookies        map[string]string `toml:"cookies"`
	RequestTimeout string            `toml:"request_timeout"` // e.g. "30s"
}

type DiscoveryConfig struct {
	Enabled        bool     `toml:"enabled"`
	PageLimit      int      `toml:"page_limit"`      // results per partition query
	RequestDelay   string   `toml:"request_delay"`   // e.g. "300ms" between API calls
	Workers        int      `toml:"workers"`         // partitions processed concurrently (1 = sequential)
	PartitionsFile string   `toml:"partitions_file"` // optional YAML catalog replacing the built-in partitions
	BaseTags       []string `toml:"base_tags"`
	MaxAttempts    int      `toml:"max_attempts"` // retry attempts per request
}

type EnrichConfig struct {
	Enabled           bool   `toml:"enabled"`
	DescriptionFormat string `toml:"description_format"` // "text" or "markdown"
}

// CrawlerConfig controls the browser fallback crawl
type CrawlerConfig struct {
	Headless              bool     `toml:"headless"`
	NoSandbox             bool     `toml:"no_sandbox"`
	DelayMin              string   `toml:"delay_min"` // jittered delay between page visits
	DelayMax              string   `toml:"delay_max"`
	NavigationTimeout     string   `toml:"navigation_timeout"`
	PageSettle            string   `toml:"page_settle"`  // wait after navigation for client rendering
	ScrollPause           string   `toml:"scroll_pause"` // wait between scroll checks
	StableChecks          int      `toml:"stable_checks"`
	ScrollTimeout         string   `toml:"scroll_timeout"`          // default per-seed budget
	CategoryScrollTimeout string   `toml:"category_scroll_timeout"` // budget for the category seed
	MaxScrollTimeout      string   `toml:"max_scroll_timeout"`      // ceiling when extending toward a target count
	TargetGrace           string   `toml:"target_grace"`            // extra time once 80% of the target is visible
	MaxEventsPerSeed      int      `toml:"max_events_per_seed"`
	UseCalendarSeeds      bool     `toml:"use_calendar_seeds"`
	MaxCalendarSeeds      int      `toml:"max_calendar_seeds"`
	SearchTerms           []string `toml:"search_terms"`
	ExtraSeeds            []string `toml:"extra_seeds"`
}

type RelevanceConfig struct {
	Keywords   []string `toml:"keywords"` // empty uses the built-in vocabulary
	ApplyToAPI bool     `toml:"apply_to_api"`
}

type PipelineConfig struct {
	Phases     string `toml:"phases"`      // "api", "web" or "both"
	RunTimeout string `toml:"run_timeout"` // soft limit on the discovery phases
}

type SchedulerConfig struct {
	Enabled    bool   `toml:"enabled"`
	Schedule   string `toml:"schedule"` // 5-field cron expression
	RunOnStart bool   `toml:"run_on_start"`
}

type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Namespace string `toml:"namespace"`
}

// NewDefaultConfig returns the configuration used when no file overrides a value
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Enabled: true,
			Port:    8085,
			Host:    "localhost",
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path: "./data/events",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Platform: PlatformConfig{
			WebBaseURL:   "https://lu.ma",
			APIBaseURL:   "https://api2.luma.com",
			CategorySlug: "crypto",
		},
		Session: SessionConfig{
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36",
			Headers: map[string]string{
				"Accept":             "application/json",
				"Accept-Language":    "en",
				"Origin":             "https://lu.ma",
				"Referer":            "https://lu.ma/crypto",
				"X-Luma-Client-Type": "luma-web",
			},
			Cookies:        map[string]string{},
			RequestTimeout: "30s",
		},
		Discovery: DiscoveryConfig{
			Enabled:      true,
			PageLimit:    100,
			RequestDelay: "300ms",
			Workers:      1,
			BaseTags:     []string{"crypto", "web3"},
			MaxAttempts:  3,
		},
		Enrichment: EnrichConfig{
			Enabled:           true,
			DescriptionFormat: "text",
		},
		Crawler: CrawlerConfig{
			Headless:              true,
			NoSandbox:             true,
			DelayMin:              "600ms",
			DelayMax:              "1100ms",
			NavigationTimeout:     "30s",
			PageSettle:            "2s",
			ScrollPause:           "2s",
			StableChecks:          4,
			ScrollTimeout:         "60s",
			CategoryScrollTimeout: "120s",
			MaxScrollTimeout:      "180s",
			TargetGrace:           "15s",
			MaxEventsPerSeed:      25,
			UseCalendarSeeds:      true,
			MaxCalendarSeeds:      10,
			SearchTerms:           []string{"web3", "blockchain", "ethereum", "bitcoin"},
		},
		Relevance: RelevanceConfig{
			ApplyToAPI: true,
		},
		Pipeline: PipelineConfig{
			Phases:     "both",
			RunTimeout: "2h",
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 2 * * *", // daily at 02:00
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "venator",
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env.
// Later files override earlier files; CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VENATOR_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("VENATOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("VENATOR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if path := os.Getenv("VENATOR_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	// Logging configuration
	if level := os.Getenv("VENATOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("VENATOR_LOG_OUTPUT"); output != "" {
		config.Logging.Output = splitList(output)
	}

	// Platform configuration
	if webBase := os.Getenv("VENATOR_WEB_BASE_URL"); webBase != "" {
		config.Platform.WebBaseURL = webBase
	}
	if apiBase := os.Getenv("VENATOR_API_BASE_URL"); apiBase != "" {
		config.Platform.APIBaseURL = apiBase
	}

	// Session cookie, typically the platform's auth session key
	if authKey := os.Getenv("VENATOR_AUTH_SESSION_KEY"); authKey != "" {
		if config.Session.Cookies == nil {
			config.Session.Cookies = map[string]string{}
		}
		config.Session.Cookies["luma.auth-session-key"] = authKey
	}

	// Pipeline configuration
	if phases := os.Getenv("VENATOR_PHASES"); phases != "" {
		config.Pipeline.Phases = phases
	}
	if timeout := os.Getenv("VENATOR_RUN_TIMEOUT"); timeout != "" {
		config.Pipeline.RunTimeout = timeout
	}
	if workers := os.Getenv("VENATOR_DISCOVERY_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Discovery.Workers = w
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("VENATOR_SCHEDULER_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = b
		}
	}
	if schedule := os.Getenv("VENATOR_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string, phases string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if phases != "" {
		config.Pipeline.Phases = phases
	}
}

// Validate checks values that would otherwise fail late in a run
func (c *Config) Validate() error {
	switch strings.ToLower(c.Pipeline.Phases) {
	case "api", "web", "both":
	default:
		return fmt.Errorf("invalid pipeline phases %q: expected api, web or both", c.Pipeline.Phases)
	}

	switch c.Enrichment.DescriptionFormat {
	case "", "text", "markdown":
	default:
		return fmt.Errorf("invalid enrichment description_format %q", c.Enrichment.DescriptionFormat)
	}

	durations := map[string]string{
		"session.request_timeout":         c.Session.RequestTimeout,
		"discovery.request_delay":         c.Discovery.RequestDelay,
		"crawler.delay_min":               c.Crawler.DelayMin,
		"crawler.delay_max":               c.Crawler.DelayMax,
		"crawler.navigation_timeout":      c.Crawler.NavigationTimeout,
		"crawler.page_settle":             c.Crawler.PageSettle,
		"crawler.scroll_pause":            c.Crawler.ScrollPause,
		"crawler.scroll_timeout":          c.Crawler.ScrollTimeout,
		"crawler.category_scroll_timeout": c.Crawler.CategoryScrollTimeout,
		"crawler.max_scroll_timeout":      c.Crawler.MaxScrollTimeout,
		"crawler.target_grace":            c.Crawler.TargetGrace,
		"pipeline.run_timeout":            c.Pipeline.RunTimeout,
	}
	for key, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
	}

	if c.Scheduler.Enabled {
		if err := ValidateSchedule(c.Scheduler.Schedule); err != nil {
			return err
		}
	}

	return nil
}

// PhaseList expands the configured phase selection into the ordered phases to run
func (c *Config) PhaseList() []string {
	switch strings.ToLower(c.Pipeline.Phases) {
	case "api":
		return []string{"api"}
	case "web":
		return []string{"web"}
	default:
		return []string{"api", "web"}
	}
}

// ValidateSchedule validates a 5-field cron expression
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// ParseDurationOrDefault parses a duration string, falling back to def when empty or invalid
func ParseDurationOrDefault(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return def
	}
	return d
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

func splitList(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
